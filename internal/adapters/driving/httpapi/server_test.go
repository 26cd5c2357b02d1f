package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driving"
)

type fakeChat struct {
	result   *driving.TurnResult
	err      error
	tokens   []string
	internet bool
}

func (f *fakeChat) Ask(context.Context, string) (*driving.TurnResult, error) {
	return f.result, f.err
}

func (f *fakeChat) AskStream(_ context.Context, _ string, sink driving.TokenSink) (*driving.TurnResult, error) {
	for _, token := range f.tokens {
		if err := sink.WriteToken(token); err != nil {
			return f.result, err
		}
	}
	return f.result, f.err
}

func (f *fakeChat) SetInternetSearch(enabled bool) { f.internet = enabled }

func (f *fakeChat) InternetSearch() bool { return f.internet }

type fakeIngestor struct {
	chunks int
	err    error
}

func (f *fakeIngestor) Ingest(context.Context) (int, error) { return f.chunks, f.err }

type fakeFeedback struct {
	records []driven.FeedbackRecord
	err     error
}

func (f *fakeFeedback) Append(rec driven.FeedbackRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

func newTestServer(chat *fakeChat, ingestor *fakeIngestor, feedback *fakeFeedback) *httptest.Server {
	var store driven.FeedbackStore
	if feedback != nil {
		store = feedback
	}
	s := NewServer(":0", chat, ingestor, store, func() Status {
		return Status{Model: "test-model", Streaming: true, Chunks: 3}
	})
	return httptest.NewServer(s.Router())
}

func TestHandleHealth(t *testing.T) {
	ts := newTestServer(&fakeChat{}, &fakeIngestor{}, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test-model", body["model"])
	assert.Equal(t, float64(3), body["chunks"])
}

func TestHandleQuery(t *testing.T) {
	chat := &fakeChat{result: &driving.TurnResult{
		Answer:  "42\n\nSources: a.txt",
		Sources: []string{"a.txt"},
	}}
	ts := newTestServer(chat, &fakeIngestor{}, nil)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/query", "application/json",
		strings.NewReader(`{"prompt": "what is the answer"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body queryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "42\n\nSources: a.txt", body.Answer)
	assert.Equal(t, []string{"a.txt"}, body.Sources)
}

func TestHandleQuery_EmptyPrompt(t *testing.T) {
	ts := newTestServer(&fakeChat{}, &fakeIngestor{}, nil)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/query", "application/json", strings.NewReader(`{"prompt": "  "}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleQuery_InvalidBody(t *testing.T) {
	ts := newTestServer(&fakeChat{}, &fakeIngestor{}, nil)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/query", "application/json", strings.NewReader(`{`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleQuery_TurnFailure(t *testing.T) {
	chat := &fakeChat{
		result: &driving.TurnResult{Answer: "An error occurred while processing your request."},
		err:    errors.New("model down"),
	}
	ts := newTestServer(chat, &fakeIngestor{}, nil)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/query", "application/json", strings.NewReader(`{"prompt": "q"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body queryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body.Answer, "error occurred")
}

func TestHandleStream(t *testing.T) {
	chat := &fakeChat{
		tokens: []string{"pong", "!"},
		result: &driving.TurnResult{Answer: "pong!"},
	}
	ts := newTestServer(chat, &fakeIngestor{}, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/stream?prompt=ping")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	raw := readAll(t, resp)
	assert.Contains(t, raw, "event: token\ndata: pong\n\n")
	assert.Contains(t, raw, "event: token\ndata: !\n\n")
	assert.Contains(t, raw, "event: done\ndata: pong!\n\n")

	// Token order is preserved.
	assert.Less(t, strings.Index(raw, "data: pong"), strings.Index(raw, "data: !"))
}

func TestHandleStream_MissingPrompt(t *testing.T) {
	ts := newTestServer(&fakeChat{}, &fakeIngestor{}, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleStream_FailureStillTerminates(t *testing.T) {
	chat := &fakeChat{
		result: &driving.TurnResult{Answer: "An error occurred while processing your request."},
		err:    errors.New("boom"),
	}
	ts := newTestServer(chat, &fakeIngestor{}, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/stream?prompt=q")
	require.NoError(t, err)
	defer resp.Body.Close()

	raw := readAll(t, resp)
	assert.Contains(t, raw, "event: done", "the stream must terminate even on failure")
}

func TestHandleReindex(t *testing.T) {
	ts := newTestServer(&fakeChat{}, &fakeIngestor{chunks: 7}, nil)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/reindex", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(7), body["chunks"])
}

func TestHandleReindex_Failure(t *testing.T) {
	ts := newTestServer(&fakeChat{}, &fakeIngestor{err: errors.New("disk gone")}, nil)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/reindex", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHandleFeedback(t *testing.T) {
	feedback := &fakeFeedback{}
	ts := newTestServer(&fakeChat{}, &fakeIngestor{}, feedback)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/feedback", "application/json",
		strings.NewReader(`{"query": "what is go", "detail": "wrong answer"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Len(t, feedback.records, 1)
	assert.Equal(t, "what is go", feedback.records[0].Query)
	assert.Equal(t, "wrong answer", feedback.records[0].Detail)
	assert.False(t, feedback.records[0].Timestamp.IsZero())
}

func TestHandleFeedback_MissingDetail(t *testing.T) {
	ts := newTestServer(&fakeChat{}, &fakeIngestor{}, &fakeFeedback{})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/feedback", "application/json", strings.NewReader(`{"query": "q"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleFeedback_DisabledWithoutStore(t *testing.T) {
	ts := newTestServer(&fakeChat{}, &fakeIngestor{}, nil)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/feedback", "application/json", strings.NewReader(`{"detail": "d"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleQuery_BodyTooLarge(t *testing.T) {
	chat := &fakeChat{result: &driving.TurnResult{Answer: "ok"}}
	s := NewServer(":0", chat, &fakeIngestor{}, nil, nil, WithMaxInputSize(16))
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/query", "application/json",
		strings.NewReader(`{"prompt": "`+strings.Repeat("x", 100)+`"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	var sb strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		sb.Write(buf[:n])
		if err != nil {
			break
		}
	}
	return sb.String()
}
