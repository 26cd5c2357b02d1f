// Package mock provides a deterministic placeholder LLM handle.
// The connection manager falls back to it when the model server is
// unreachable, so the pipeline never hard-fails purely because no
// model is running.
package mock

import (
	"context"
	"strings"

	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// DefaultMaxTokens bounds the placeholder response length.
const DefaultMaxTokens = 32

// placeholderWord is repeated to fill the bounded placeholder answer,
// mirroring the fixed-text behaviour of a mock model.
const placeholderWord = "text"

// LLMService is a deterministic mock generation handle.
type LLMService struct {
	maxTokens int
}

// New creates a mock LLM service.
func New() *LLMService {
	return &LLMService{maxTokens: DefaultMaxTokens}
}

// Generate returns a bounded placeholder response. The length follows
// opts.MaxTokens capped at the mock's own bound; the content is fixed
// so repeated calls are identical.
func (s *LLMService) Generate(_ context.Context, _ string, opts driven.GenerateOptions) (string, error) {
	n := s.maxTokens
	if opts.MaxTokens > 0 && opts.MaxTokens < n {
		n = opts.MaxTokens
	}
	words := make([]string, n)
	for i := range words {
		words[i] = placeholderWord
	}
	return strings.Join(words, " "), nil
}

// GenerateStream emits the placeholder response word by word.
// The token channel is closed exactly once; no error is ever sent.
func (s *LLMService) GenerateStream(ctx context.Context, prompt string, opts driven.GenerateOptions) (<-chan string, <-chan error) {
	tokens := make(chan string)
	errs := make(chan error, 1)

	answer, _ := s.Generate(ctx, prompt, opts)
	go func() {
		defer close(tokens)
		defer close(errs)
		for i, word := range strings.Fields(answer) {
			tok := word
			if i > 0 {
				tok = " " + word
			}
			select {
			case tokens <- tok:
			case <-ctx.Done():
				return
			}
		}
	}()

	return tokens, errs
}

// ListModels reports the mock's single pseudo-model.
func (s *LLMService) ListModels(_ context.Context) ([]string, error) {
	return []string{s.ModelName()}, nil
}

// Streaming reports false: the mock has no native token stream, its
// GenerateStream replays a completed answer.
func (s *LLMService) Streaming() bool {
	return false
}

// ModelName returns the name of the mock model.
func (s *LLMService) ModelName() string {
	return "mock"
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
