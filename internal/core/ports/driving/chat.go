package driving

import "context"

// TokenSink receives incremental output during a streamed chat turn.
// WriteToken is called once per token, in producer order, plus once for
// the trailing sources segment when present.
type TokenSink interface {
	WriteToken(token string) error
}

// TurnResult is the outcome of one completed chat turn.
type TurnResult struct {
	// Answer is the accumulated answer text including the sources
	// segment when one was appended.
	Answer string

	// Sources lists the unique attribution labels of the nodes used,
	// sorted lexicographically. Empty when no node carried metadata.
	Sources []string
}

// ChatService runs query-to-answer turns against the loaded pipeline.
type ChatService interface {
	// Ask runs a batch turn: retrieve, generate, attribute.
	Ask(ctx context.Context, query string) (*TurnResult, error)

	// AskStream runs a streamed turn, delivering tokens to sink as
	// they are produced. The returned result carries the accumulated
	// answer; the turn is not done until every token has been both
	// produced and consumed.
	AskStream(ctx context.Context, query string, sink TokenSink) (*TurnResult, error)

	// SetInternetSearch toggles web-search augmentation for
	// subsequent turns.
	SetInternetSearch(enabled bool)

	// InternetSearch reports whether augmentation is enabled.
	InternetSearch() bool
}

// TokenSinkFunc adapts a function to the TokenSink interface.
type TokenSinkFunc func(token string) error

// WriteToken calls f(token).
func (f TokenSinkFunc) WriteToken(token string) error {
	return f(token)
}
