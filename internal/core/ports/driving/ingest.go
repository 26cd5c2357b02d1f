package driving

import "context"

// Ingestor builds the index from the document directory and persists it.
type Ingestor interface {
	// Ingest enumerates, extracts, chunks, embeds and persists.
	// Returns the number of chunks indexed.
	Ingest(ctx context.Context) (int, error)
}

// Evaluator scores a generated answer against an expected answer.
type Evaluator interface {
	// Evaluate returns a similarity score in [0, 1].
	Evaluate(answer, expected string) float64
}
