// Package ollama provides an LLM service adapter using Ollama.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.1:latest"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the Ollama LLM service.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the LLM model to use (default: llama3.1:latest).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// KeepAlive controls how long the model stays loaded server-side.
	KeepAlive time.Duration

	// NumCtx is the model context window in tokens.
	NumCtx int

	// NumBatch is the prompt batch size.
	NumBatch int

	// NumPredict caps the generated token count.
	NumPredict int

	// Temperature is the default sampling temperature.
	Temperature float64
}

// LLMService provides LLM operations using Ollama.
type LLMService struct {
	client      *http.Client
	baseURL     string
	model       string
	keepAlive   string
	numCtx      int
	numBatch    int
	numPredict  int
	temperature float64
}

// generateRequest is the Ollama /api/generate request format.
type generateRequest struct {
	Model     string   `json:"model"`
	Prompt    string   `json:"prompt"`
	Stream    bool     `json:"stream"`
	KeepAlive string   `json:"keep_alive,omitempty"`
	Options   *options `json:"options,omitempty"`
}

// options holds generation parameters.
type options struct {
	NumCtx      int      `json:"num_ctx,omitempty"`
	NumBatch    int      `json:"num_batch,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// generateResponse is the Ollama /api/generate response format.
// In streaming mode one object arrives per NDJSON line.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// tagsResponse is the Ollama /api/tags response format.
type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// New creates a new Ollama LLM service.
func New(cfg Config) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	keepAlive := ""
	if cfg.KeepAlive > 0 {
		keepAlive = cfg.KeepAlive.String()
	}

	return &LLMService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		keepAlive:   keepAlive,
		numCtx:      cfg.NumCtx,
		numBatch:    cfg.NumBatch,
		numPredict:  cfg.NumPredict,
		temperature: cfg.Temperature,
	}
}

// buildOptions merges per-call options over the configured defaults.
func (s *LLMService) buildOptions(opts driven.GenerateOptions) *options {
	o := &options{
		NumCtx:      s.numCtx,
		NumBatch:    s.numBatch,
		NumPredict:  s.numPredict,
		Temperature: s.temperature,
		Stop:        opts.StopWords,
	}
	if opts.MaxTokens > 0 {
		o.NumPredict = opts.MaxTokens
	}
	if opts.Temperature > 0 {
		o.Temperature = opts.Temperature
	}
	return o
}

// Generate produces text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	reqBody := generateRequest{
		Model:     s.model,
		Prompt:    prompt,
		Stream:    false,
		KeepAlive: s.keepAlive,
		Options:   s.buildOptions(opts),
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/api/generate",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("ollama error (status %d): failed to read response", resp.StatusCode)
		}
		return "", fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return genResp.Response, nil
}

// GenerateStream produces a native token stream via the NDJSON
// streaming mode of /api/generate. Tokens are sent in arrival order;
// the token channel is closed exactly once when the stream ends, then
// a terminal error, if any, is delivered on the error channel.
func (s *LLMService) GenerateStream(ctx context.Context, prompt string, opts driven.GenerateOptions) (<-chan string, <-chan error) {
	tokens := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		err := s.stream(ctx, prompt, opts, tokens)
		close(tokens)
		if err != nil {
			errs <- err
		}
	}()

	return tokens, errs
}

// stream performs the blocking NDJSON scan, relaying each token onto ch.
func (s *LLMService) stream(ctx context.Context, prompt string, opts driven.GenerateOptions, ch chan<- string) error {
	reqBody := generateRequest{
		Model:     s.model,
		Prompt:    prompt,
		Stream:    true,
		KeepAlive: s.keepAlive,
		Options:   s.buildOptions(opts),
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/api/generate",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("ollama error (status %d): failed to read response", resp.StatusCode)
		}
		return fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(body))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk generateResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return fmt.Errorf("decode stream chunk: %w", err)
		}

		if chunk.Response != "" {
			select {
			case ch <- chunk.Response:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if chunk.Done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}

// ListModels returns the models the server advertises via /api/tags.
// This doubles as the liveness probe during connection bring-up: it is
// a lightweight check that validates connectivity without running
// inference.
func (s *LLMService) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("ollama: failed to create list request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: list models failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("ollama: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("ollama: API returned status %d: %s", resp.StatusCode, string(body))
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("ollama: decode tags: %w", err)
	}

	names := make([]string, len(tags.Models))
	for i, m := range tags.Models {
		names[i] = m.Name
	}
	return names, nil
}

// Streaming reports true: this adapter produces real incremental tokens.
func (s *LLMService) Streaming() bool {
	return true
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Close releases resources.
func (s *LLMService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
