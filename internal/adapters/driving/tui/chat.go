// Package tui provides the interactive chat terminal UI following the
// Elm architecture.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driving"
)

// tokenMsg carries one streamed token into the update loop.
type tokenMsg string

// turnDoneMsg signals that a chat turn completed.
type turnDoneMsg struct {
	result *driving.TurnResult
	err    error
}

// Options configures the chat UI.
type Options struct {
	// ModelName is shown in the header.
	ModelName string

	// Notice is an operator advisory shown above the conversation,
	// e.g. the degraded-mode notice. Empty hides the banner.
	Notice string
}

// turn is one completed or in-flight exchange.
type turn struct {
	query  string
	answer string
	failed bool
}

// Model is the chat TUI model. It implements tea.Model.
type Model struct {
	chat   driving.ChatService
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options

	input    textinput.Model
	viewport viewport.Model
	styles   Styles

	turns     []turn
	streaming bool
	lastQuery string
	events    chan tea.Msg

	width  int
	height int
	ready  bool
}

// Ensure Model implements tea.Model.
var _ tea.Model = (*Model)(nil)

// NewModel creates the chat model.
func NewModel(ctx context.Context, chat driving.ChatService, opts Options) *Model {
	input := textinput.New()
	input.Placeholder = "Ask a question..."
	input.Focus()
	input.CharLimit = 4096

	// Turns run under a UI-owned context so quitting unwinds an
	// in-flight turn instead of leaving its goroutine parked.
	ctx, cancel := context.WithCancel(ctx)

	return &Model{
		chat:   chat,
		ctx:    ctx,
		cancel: cancel,
		opts:   opts,
		input:  input,
		styles: DefaultStyles(),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tea.SetWindowTitle("ragchat"),
	)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 2
		if m.opts.Notice != "" {
			headerHeight++
		}
		footerHeight := 3
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.input.Width = msg.Width - 4
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancel()
			return m, tea.Quit

		case "enter":
			if m.streaming {
				return m, nil
			}
			query := strings.TrimSpace(m.input.Value())
			if query == "" {
				return m, nil
			}
			m.input.Reset()
			return m, m.startTurn(query)

		case "ctrl+t":
			m.chat.SetInternetSearch(!m.chat.InternetSearch())
			return m, nil

		case "ctrl+r":
			if m.streaming || m.lastQuery == "" {
				return m, nil
			}
			return m, m.startTurn(m.lastQuery)
		}

	case tokenMsg:
		if len(m.turns) > 0 {
			m.turns[len(m.turns)-1].answer += string(msg)
			m.refreshViewport()
		}
		return m, m.nextEvent

	case turnDoneMsg:
		m.streaming = false
		if len(m.turns) > 0 {
			current := &m.turns[len(m.turns)-1]
			if msg.err != nil {
				current.failed = true
			}
			if msg.result != nil {
				// The streamed tokens and the accumulated answer
				// agree; prefer the authoritative result.
				current.answer = msg.result.Answer
			}
		}
		m.refreshViewport()
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	if m.opts.Notice != "" {
		b.WriteString(m.styles.Notice.Render(m.opts.Notice))
		b.WriteString("\n")
	}
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.styles.Input.Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.footerView())
	return b.String()
}

// startTurn begins a streamed chat turn for query.
func (m *Model) startTurn(query string) tea.Cmd {
	m.streaming = true
	m.lastQuery = query
	m.turns = append(m.turns, turn{query: query})
	m.refreshViewport()

	events := make(chan tea.Msg, 64)
	m.events = events

	chat := m.chat
	ctx := m.ctx
	go func() {
		defer close(events)

		sink := driving.TokenSinkFunc(func(token string) error {
			select {
			case events <- tokenMsg(token):
				return nil
			case <-ctx.Done():
				// The UI quit; fail the turn so it unwinds.
				return ctx.Err()
			}
		})
		result, err := chat.AskStream(ctx, query, sink)
		select {
		case events <- turnDoneMsg{result: result, err: err}:
		case <-ctx.Done():
		}
	}()

	return m.nextEvent
}

// nextEvent waits for the next streaming event.
func (m *Model) nextEvent() tea.Msg {
	return <-m.events
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	var b strings.Builder
	for i, t := range m.turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.styles.Query.Render("> " + t.query))
		b.WriteString("\n")
		if t.failed {
			b.WriteString(m.styles.Error.Render(t.answer))
		} else {
			b.WriteString(t.answer)
		}
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m *Model) headerView() string {
	title := "ragchat"
	if m.opts.ModelName != "" {
		title += " · " + m.opts.ModelName
	}
	internet := "off"
	if m.chat.InternetSearch() {
		internet = "on"
	}
	status := "internet: " + internet
	if m.streaming {
		status += " · thinking..."
	}
	return m.styles.Header.Render(title) + "  " + m.styles.Status.Render(status)
}

func (m *Model) footerView() string {
	return m.styles.Help.Render("enter: send · ctrl+t: internet · ctrl+r: retry · ctrl+c: quit")
}
