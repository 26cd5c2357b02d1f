// Package memory provides an in-memory vector index with brute-force search.
package memory

import (
	"context"
	"math"
	"sort"

	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
)

// Index holds chunks with their embeddings and answers similarity
// queries by scanning every entry. It implements the Index interface.
// The chunk slice is immutable after construction, so an Index is safe
// for concurrent readers.
type Index struct {
	chunks []domain.Chunk
}

var _ driven.Index = (*Index)(nil)

// New creates an index over the given chunks.
func New(chunks []domain.Chunk) *Index {
	return &Index{chunks: chunks}
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	return len(idx.chunks)
}

// Chunks returns the indexed chunks.
func (idx *Index) Chunks() []domain.Chunk {
	return idx.chunks
}

// Search returns the k chunks most similar to the query embedding,
// sorted by descending cosine similarity. Ties keep insertion order.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]domain.ScoredNode, error) {
	if k <= 0 || len(idx.chunks) == 0 {
		return nil, nil
	}

	nodes := make([]domain.ScoredNode, 0, len(idx.chunks))
	for _, chunk := range idx.chunks {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		nodes = append(nodes, domain.ScoredNode{
			Chunk: chunk,
			Score: cosineSimilarity(query, chunk.Embedding),
		})
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Score > nodes[j].Score
	})

	if k < len(nodes) {
		nodes = nodes[:k]
	}
	return nodes, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths or zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
