package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat-cli/internal/logger"
)

// DefaultTopK is the default number of nodes returned per retrieval.
const DefaultTopK = 5

// DefaultFetchK is the default similarity-search candidate pool size.
const DefaultFetchK = 20

// Retriever answers similarity queries against the pipeline's current
// index. fetchK controls how many candidates the underlying search
// considers before truncating to topK.
type Retriever struct {
	pipeline *Pipeline
	embedder driven.EmbeddingService
	topK     int
	fetchK   int
}

// NewRetriever creates a retriever over the pipeline's index.
// topK and fetchK fall back to their defaults when <= 0.
// Fails with ErrInvalidConfig when fetchK < topK.
func NewRetriever(pipeline *Pipeline, embedder driven.EmbeddingService, topK, fetchK int) (*Retriever, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if fetchK <= 0 {
		fetchK = DefaultFetchK
	}
	if fetchK < topK {
		return nil, fmt.Errorf("%w: fetchK %d < topK %d", domain.ErrInvalidConfig, fetchK, topK)
	}

	return &Retriever{
		pipeline: pipeline,
		embedder: embedder,
		topK:     topK,
		fetchK:   fetchK,
	}, nil
}

// Retrieve returns the topK highest-scoring nodes for the query,
// ordered by descending score with stable ties. topK <= 0 uses the
// configured default.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredNode, error) {
	if topK <= 0 {
		topK = r.topK
	}

	index, err := r.pipeline.Index()
	if err != nil {
		return nil, err
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	fetchK := r.fetchK
	if fetchK < topK {
		fetchK = topK
	}

	nodes, err := index.Search(ctx, vector, fetchK)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	if topK < len(nodes) {
		nodes = nodes[:topK]
	}

	logger.Debug("Retrieved %d nodes for query %q", len(nodes), query)
	return nodes, nil
}
