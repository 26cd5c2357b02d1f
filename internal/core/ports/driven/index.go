package driven

import (
	"context"

	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
)

// Index is a loaded, queryable collection of embedded chunks.
// Built or loaded whole and read-only thereafter; a rebuild produces a
// new Index that replaces the old one under a single assignment.
type Index interface {
	// Search returns the k nearest chunks to the query vector,
	// ordered by descending similarity with stable ties.
	Search(ctx context.Context, query []float32, k int) ([]domain.ScoredNode, error)

	// Len returns the number of chunks in the index.
	Len() int
}

// IndexStore owns the persistence lifecycle of the index.
type IndexStore interface {
	// Persist serialises chunks and their vectors to dir, fully
	// replacing any prior content so a reload reflects only the
	// latest build.
	Persist(ctx context.Context, dir string, chunks []domain.Chunk) error

	// Load deserialises a previously persisted index.
	// Returns domain.ErrIndexNotFound when dir holds no index and
	// domain.ErrIndexCorrupt when it cannot be read.
	Load(ctx context.Context, dir string) (Index, error)

	// Exists reports whether dir holds a persisted index, for
	// cold-start decisions.
	Exists(dir string) bool
}
