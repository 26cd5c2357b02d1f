package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driving"
)

type scriptedChat struct {
	tokens   []string
	result   *driving.TurnResult
	err      error
	internet bool
	queries  []string
}

func (s *scriptedChat) Ask(context.Context, string) (*driving.TurnResult, error) {
	return s.result, s.err
}

func (s *scriptedChat) AskStream(_ context.Context, query string, sink driving.TokenSink) (*driving.TurnResult, error) {
	s.queries = append(s.queries, query)
	for _, token := range s.tokens {
		sink.WriteToken(token) //nolint:errcheck
	}
	return s.result, s.err
}

func (s *scriptedChat) SetInternetSearch(enabled bool) { s.internet = enabled }

func (s *scriptedChat) InternetSearch() bool { return s.internet }

func newReadyModel(chat driving.ChatService) *Model {
	m := NewModel(context.Background(), chat, Options{ModelName: "test-model"})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(*Model)
}

// drain runs commands until the event stream for the current turn is
// exhausted, feeding each produced message back into Update.
func drain(t *testing.T, m *Model, cmd tea.Cmd) *Model {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			break
		}
		var model tea.Model
		model, cmd = m.Update(msg)
		m = model.(*Model)
		if _, done := msg.(turnDoneMsg); done {
			break
		}
	}
	return m
}

func TestModel_SubmitStreamsTurn(t *testing.T) {
	chat := &scriptedChat{
		tokens: []string{"pong", "!"},
		result: &driving.TurnResult{Answer: "pong!\n\nSources: a.txt"},
	}
	m := newReadyModel(chat)

	m.input.SetValue("ping")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(*Model)
	require.NotNil(t, cmd)
	assert.True(t, m.streaming)

	m = drain(t, m, cmd)

	assert.False(t, m.streaming)
	assert.Equal(t, []string{"ping"}, chat.queries)
	require.Len(t, m.turns, 1)
	assert.Equal(t, "pong!\n\nSources: a.txt", m.turns[0].answer)
	assert.False(t, m.turns[0].failed)
	assert.Empty(t, m.input.Value(), "input is cleared on submit")
}

func TestModel_EmptyInputIsIgnored(t *testing.T) {
	chat := &scriptedChat{}
	m := newReadyModel(chat)

	m.input.SetValue("   ")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, chat.queries)
}

func TestModel_ToggleInternet(t *testing.T) {
	chat := &scriptedChat{}
	m := newReadyModel(chat)

	require.False(t, chat.InternetSearch())
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.True(t, chat.InternetSearch())
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.False(t, chat.InternetSearch())
}

func TestModel_RetryRepeatsLastQuery(t *testing.T) {
	chat := &scriptedChat{
		tokens: []string{"hi"},
		result: &driving.TurnResult{Answer: "hi"},
	}
	m := newReadyModel(chat)

	m.input.SetValue("hello")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, updated.(*Model), cmd)

	updated, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m = drain(t, updated.(*Model), cmd)

	assert.Equal(t, []string{"hello", "hello"}, chat.queries)
	assert.Len(t, m.turns, 2)
}

func TestModel_RetryWithoutHistoryDoesNothing(t *testing.T) {
	chat := &scriptedChat{}
	m := newReadyModel(chat)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Nil(t, cmd)
	assert.Empty(t, chat.queries)
}

func TestModel_FailedTurnIsMarked(t *testing.T) {
	chat := &scriptedChat{
		result: &driving.TurnResult{Answer: "An error occurred while processing your request."},
		err:    assert.AnError,
	}
	m := newReadyModel(chat)

	m.input.SetValue("q")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, updated.(*Model), cmd)

	require.Len(t, m.turns, 1)
	assert.True(t, m.turns[0].failed)
	assert.Contains(t, m.turns[0].answer, "error occurred")
}

func TestModel_ViewShowsNoticeAndModel(t *testing.T) {
	chat := &scriptedChat{}
	m := NewModel(context.Background(), chat, Options{
		ModelName: "llama3.1:latest",
		Notice:    "Model server unreachable, answers are degraded",
	})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = updated.(*Model)

	view := m.View()
	assert.Contains(t, view, "llama3.1:latest")
	assert.Contains(t, view, "degraded")
}

// floodingChat streams far more tokens than the event buffer holds and
// stops at the first sink failure.
type floodingChat struct {
	scriptedChat
	done chan struct{}
}

func (f *floodingChat) AskStream(_ context.Context, _ string, sink driving.TokenSink) (*driving.TurnResult, error) {
	defer close(f.done)
	for i := 0; i < 200; i++ {
		if err := sink.WriteToken("x"); err != nil {
			return &driving.TurnResult{Answer: "An error occurred while processing your request."}, err
		}
	}
	return &driving.TurnResult{Answer: strings.Repeat("x", 200)}, nil
}

func TestModel_QuitMidTurnUnblocksProducer(t *testing.T) {
	chat := &floodingChat{done: make(chan struct{})}
	m := newReadyModel(chat)

	m.input.SetValue("q")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(*Model)

	// Quit without draining the event stream; the turn must still
	// unwind instead of parking on a full buffer.
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)

	select {
	case <-chat.done:
	case <-time.After(2 * time.Second):
		t.Fatal("turn goroutine still blocked after quit")
	}
}

func TestModel_QuitKeys(t *testing.T) {
	m := newReadyModel(&scriptedChat{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_ViewBeforeReady(t *testing.T) {
	m := NewModel(context.Background(), &scriptedChat{}, Options{})
	assert.True(t, strings.Contains(m.View(), "Loading"))
}
