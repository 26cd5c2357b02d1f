package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// The pipeline's default implementation is a deterministic hashing
// embedding, so Embed never performs I/O, but the interface keeps the
// context so a learned-model adapter can slot in unchanged.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	// The result is L2-normalised; token-less text yields the zero vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts with
	// identical per-item semantics to Embed.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelName returns the name of the embedding scheme being used.
	ModelName() string
}
