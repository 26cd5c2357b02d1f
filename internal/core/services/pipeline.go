package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat-cli/internal/logger"
)

// Ensure Pipeline implements the interface.
var _ driving.Ingestor = (*Pipeline)(nil)

// PipelineState is one immutable snapshot of the loaded index.
// A rebuild constructs a fresh state and swaps it in under a single
// assignment, so readers in flight observe either the fully-old or
// fully-new version.
type PipelineState struct {
	Index     driven.Index
	Documents int
	BuiltAt   time.Time
}

// Pipeline owns the index build/load/persist lifecycle.
type Pipeline struct {
	source     driven.DocumentSource
	registry   driven.NormaliserRegistry
	processors driven.PostProcessorPipeline
	embedder   driven.EmbeddingService
	store      driven.IndexStore

	docsDir  string
	indexDir string

	state atomic.Pointer[PipelineState]
}

// NewPipeline creates a new index pipeline reading documents from
// docsDir and persisting the index under indexDir.
func NewPipeline(
	source driven.DocumentSource,
	registry driven.NormaliserRegistry,
	processors driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	store driven.IndexStore,
	docsDir string,
	indexDir string,
) *Pipeline {
	return &Pipeline{
		source:     source,
		registry:   registry,
		processors: processors,
		embedder:   embedder,
		store:      store,
		docsDir:    docsDir,
		indexDir:   indexDir,
	}
}

// State returns the current snapshot, or nil before the first
// successful Ingest or Load.
func (p *Pipeline) State() *PipelineState {
	return p.state.Load()
}

// Index returns the current index.
// Returns ErrNoIndexLoaded before the first successful Ingest or Load.
func (p *Pipeline) Index() (driven.Index, error) {
	state := p.state.Load()
	if state == nil {
		return nil, domain.ErrNoIndexLoaded
	}
	return state.Index, nil
}

// Ingest builds the index from the document directory, persists it and
// swaps it in as the current state. Returns the number of chunks
// indexed.
func (p *Pipeline) Ingest(ctx context.Context) (int, error) {
	logger.Section("Index Build")
	logger.Debug("Reading documents from %s", p.docsDir)

	raws, err := p.source.Read(ctx, p.docsDir)
	if err != nil {
		return 0, fmt.Errorf("reading documents: %w", err)
	}
	logger.Debug("Found %d documents", len(raws))

	documents := 0
	var chunks []domain.Chunk
	for i := range raws {
		result, err := p.registry.Normalise(ctx, &raws[i])
		if err != nil {
			if errors.Is(err, domain.ErrUnsupportedType) {
				logger.Debug("Skipping %s: unsupported type %s", raws[i].URI, raws[i].MIMEType)
				continue
			}
			return 0, fmt.Errorf("normalising %s: %w", raws[i].URI, err)
		}

		docChunks, err := p.processors.Process(ctx, &result.Document)
		if err != nil {
			return 0, fmt.Errorf("processing %s: %w", raws[i].URI, err)
		}

		documents++
		chunks = append(chunks, docChunks...)
	}

	if err := p.embedChunks(ctx, chunks); err != nil {
		return 0, err
	}

	logger.Debug("Persisting %d chunks to %s", len(chunks), p.indexDir)
	if err := p.store.Persist(ctx, p.indexDir, chunks); err != nil {
		return 0, fmt.Errorf("persisting index: %w", err)
	}

	// Load the persisted index back so the live state is exactly what
	// a cold start would see.
	index, err := p.store.Load(ctx, p.indexDir)
	if err != nil {
		return 0, fmt.Errorf("loading persisted index: %w", err)
	}

	p.state.Store(&PipelineState{
		Index:     index,
		Documents: documents,
		BuiltAt:   time.Now().UTC(),
	})

	logger.Info("Indexed %d chunks from %d documents", len(chunks), documents)
	return len(chunks), nil
}

// Load reads a previously persisted index and swaps it in as the
// current state. Returns ErrIndexNotFound or ErrIndexCorrupt
// unchanged so callers can decide whether to rebuild.
func (p *Pipeline) Load(ctx context.Context) error {
	index, err := p.store.Load(ctx, p.indexDir)
	if err != nil {
		return err
	}

	p.state.Store(&PipelineState{
		Index:   index,
		BuiltAt: time.Now().UTC(),
	})

	logger.Debug("Loaded index with %d chunks from %s", index.Len(), p.indexDir)
	return nil
}

// Ensure makes an index available: a persisted one is loaded, a
// missing or unreadable one triggers a rebuild. Returns the number of
// chunks indexed by a rebuild, or 0 when the persisted index was used.
func (p *Pipeline) Ensure(ctx context.Context) (int, error) {
	if p.store.Exists(p.indexDir) {
		err := p.Load(ctx)
		if err == nil {
			return 0, nil
		}
		if !errors.Is(err, domain.ErrIndexNotFound) && !errors.Is(err, domain.ErrIndexCorrupt) {
			return 0, err
		}
		logger.Warn("Persisted index unusable (%v), rebuilding", err)
	}

	return p.Ingest(ctx)
}

// embedChunks fills in the Embedding field of every chunk in place.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}

	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: %d vectors for %d chunks", len(vectors), len(chunks))
	}

	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}
	return nil
}
