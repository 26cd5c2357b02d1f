// Package hashing provides a deterministic, dependency-free embedding
// based on token hashing: a fixed-size histogram of SHA-256 token
// buckets, L2-normalised. It is a hashing-trick substitute for learned
// embeddings and produces bit-identical vectors for identical text
// across processes and platforms.
package hashing

import (
	"context"
	"crypto/sha256"
	"math"
	"strings"

	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultDimensions is the default embedding vector size.
const DefaultDimensions = 256

// EmbeddingService generates hashed bag-of-tokens embeddings.
type EmbeddingService struct {
	dim int
}

// New creates a hashing embedding service with the given dimension.
// Non-positive dimensions fall back to the default.
func New(dim int) *EmbeddingService {
	if dim <= 0 {
		dim = DefaultDimensions
	}
	return &EmbeddingService{dim: dim}
}

// Embed generates the embedding for text: lower-case, split on
// whitespace, bucket each token at sha256(token) mod dim, then
// L2-normalise. Token-less text yields the zero vector.
func (s *EmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	return s.embed(text), nil
}

// EmbedBatch embeds each text with identical per-item semantics to Embed.
func (s *EmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = s.embed(t)
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dim
}

// ModelName returns the name of the embedding scheme.
func (s *EmbeddingService) ModelName() string {
	return "hashing-sha256"
}

func (s *EmbeddingService) embed(text string) []float32 {
	// Accumulate in float64 so the norm is computed at full precision
	// before narrowing to the stored float32 representation.
	vec := make([]float64, s.dim)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		vec[s.bucket(token)]++
	}

	var sum float64
	for _, v := range vec {
		sum += v * v
	}

	out := make([]float32, s.dim)
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}

// bucket maps a token to an index by reducing the full 256-bit SHA-256
// digest modulo dim. The digest is treated as one big-endian integer,
// reduced byte by byte, so the result matches an arbitrary-precision
// "digest mod dim" exactly.
func (s *EmbeddingService) bucket(token string) int {
	digest := sha256.Sum256([]byte(token))
	rem := 0
	for _, b := range digest {
		rem = (rem*256 + int(b)) % s.dim
	}
	return rem
}
