package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat-cli/internal/logger"
)

// queryRequest is the body of POST /query.
type queryRequest struct {
	Prompt string `json:"prompt"`
}

// queryResponse is the body of a successful query.
type queryResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources,omitempty"`
}

// feedbackRequest is the body of POST /feedback.
type feedbackRequest struct {
	Query  string `json:"query"`
	Detail string `json:"detail"`
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if s.status == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	status := s.status()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"model":     status.Model,
		"streaming": status.Streaming,
		"degraded":  status.Degraded,
		"chunks":    status.Chunks,
	})
}

// handleQuery handles POST /query: one batch chat turn.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxInputSize)

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("prompt is required"))
		return
	}

	result, err := s.chat.Ask(r.Context(), req.Prompt)
	if err != nil {
		logger.Warn("Query failed: %v", err)
		// The turn already produced the generic failure answer.
		writeJSON(w, http.StatusInternalServerError, queryResponse{Answer: result.Answer})
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{Answer: result.Answer, Sources: result.Sources})
}

// handleStream handles GET /stream: one chat turn delivered as
// server-sent events, one "token" event per token and a final "done"
// event carrying the accumulated answer.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	prompt := strings.TrimSpace(r.URL.Query().Get("prompt"))
	if prompt == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("prompt is required"))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sink := driving.TokenSinkFunc(func(token string) error {
		if err := writeEvent(w, "token", token); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})

	result, err := s.chat.AskStream(r.Context(), prompt, sink)
	if err != nil {
		logger.Warn("Stream turn failed: %v", err)
	}

	// Terminate the stream even on failure so the client never hangs.
	if err := writeEvent(w, "done", result.Answer); err == nil {
		flusher.Flush()
	}
}

// handleReindex handles POST /reindex: a full rebuild of the index.
func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	chunks, err := s.ingestor.Ingest(r.Context())
	if err != nil {
		logger.Warn("Reindex failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("reindex failed"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"chunks":   chunks,
		"duration": time.Since(started).String(),
	})
}

// handleFeedback handles POST /feedback.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxInputSize)

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	if req.Detail == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("detail is required"))
		return
	}

	if err := s.feedback.Append(driven.FeedbackRecord{
		Timestamp: time.Now().UTC(),
		Query:     req.Query,
		Detail:    req.Detail,
	}); err != nil {
		logger.Warn("Appending feedback: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("could not record feedback"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeEvent writes one SSE event. Multi-line data is split into one
// data: line per line, per the SSE framing rules.
func writeEvent(w http.ResponseWriter, event, data string) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
		return err
	}
	for _, line := range strings.Split(data, "\n") {
		if _, err := fmt.Fprintf(w, "data: %s\n", line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, "\n")
	return err
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Debug("Encoding response: %v", err)
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
