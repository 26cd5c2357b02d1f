package driven

import "context"

// LLMService is the generation handle produced by the connection
// manager. It is either a live model-server adapter or the
// deterministic mock fallback; callers cannot tell the difference
// beyond the Streaming capability and answer quality.
type LLMService interface {
	// Generate produces a complete text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// GenerateStream produces a token stream for a prompt. Tokens are
	// sent on the returned channel in generation order; the channel is
	// closed exactly once when the stream ends. A terminal error, if
	// any, is delivered on the error channel after the token channel
	// closes. The stream is finite and not restartable.
	GenerateStream(ctx context.Context, prompt string, opts GenerateOptions) (<-chan string, <-chan error)

	// ListModels returns the model identifiers the server advertises.
	// Used as the liveness probe during connection bring-up.
	ListModels(ctx context.Context) ([]string, error)

	// Streaming reports whether GenerateStream produces real
	// incremental tokens. Decided once at construction, never
	// re-probed per call.
	Streaming() bool

	// ModelName returns the name of the model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}
