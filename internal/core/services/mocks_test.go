package services

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
)

// fakeIndex returns canned nodes for any query.
type fakeIndex struct {
	nodes []domain.ScoredNode
	err   error
}

func (f *fakeIndex) Search(_ context.Context, _ []float32, k int) ([]domain.ScoredNode, error) {
	if f.err != nil {
		return nil, f.err
	}
	if k < len(f.nodes) {
		return f.nodes[:k], nil
	}
	return f.nodes, nil
}

func (f *fakeIndex) Len() int { return len(f.nodes) }

// fakeStore serves a canned index and records persisted chunks.
type fakeStore struct {
	mu        sync.Mutex
	index     driven.Index
	loadErr   error
	persisted []domain.Chunk
	exists    bool
}

func (f *fakeStore) Persist(_ context.Context, _ string, chunks []domain.Chunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.persisted = chunks
	f.exists = true
	if f.index == nil || f.loadErr != nil {
		f.index = &fakeIndex{}
		f.loadErr = nil
	}
	return nil
}

func (f *fakeStore) Load(_ context.Context, _ string) (driven.Index, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.index == nil {
		return nil, domain.ErrIndexNotFound
	}
	return f.index, nil
}

func (f *fakeStore) Exists(string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exists
}

// fakeSource serves canned raw documents.
type fakeSource struct {
	raws []domain.RawDocument
	err  error
}

func (f *fakeSource) Read(context.Context, string) ([]domain.RawDocument, error) {
	return f.raws, f.err
}

// fakeRegistry normalises everything to a one-document result, or
// rejects MIME types in unsupported.
type fakeRegistry struct {
	unsupported map[string]bool
}

func (f *fakeRegistry) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if f.unsupported[raw.MIMEType] {
		return nil, domain.ErrUnsupportedType
	}
	return &driven.NormaliseResult{Document: domain.Document{
		ID:       raw.URI,
		URI:      raw.URI,
		Content:  string(raw.Content),
		Metadata: raw.Metadata,
	}}, nil
}

func (f *fakeRegistry) Register(driven.Normaliser) {}

func (f *fakeRegistry) SupportedMIMETypes() []string { return []string{"text/plain"} }

// fakeProcessors produces one chunk per document.
type fakeProcessors struct {
	err error
}

func (f *fakeProcessors) Process(_ context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []domain.Chunk{{
		ID:         doc.ID + "-0",
		DocumentID: doc.ID,
		Content:    doc.Content,
		Metadata:   doc.Metadata,
	}}, nil
}

// fakeEmbedder returns a constant unit vector per text.
type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i], _ = f.Embed(ctx, texts[i])
	}
	return vectors, nil
}

func (f *fakeEmbedder) Dimensions() int { return 2 }

func (f *fakeEmbedder) ModelName() string { return "fake" }

// fakeLLM replays canned tokens or an error.
type fakeLLM struct {
	tokens    []string
	err       error
	streaming bool

	mu      sync.Mutex
	prompts []string
}

func (f *fakeLLM) recordPrompt(prompt string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
}

func (f *fakeLLM) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	f.recordPrompt(prompt)
	if f.err != nil {
		return "", f.err
	}
	return strings.Join(f.tokens, ""), nil
}

func (f *fakeLLM) GenerateStream(_ context.Context, prompt string, _ driven.GenerateOptions) (<-chan string, <-chan error) {
	f.recordPrompt(prompt)
	tokens := make(chan string, len(f.tokens))
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		for _, token := range f.tokens {
			tokens <- token
		}
		close(tokens)
		if f.err != nil {
			errs <- f.err
		}
	}()
	return tokens, errs
}

func (f *fakeLLM) ListModels(context.Context) ([]string, error) { return []string{"fake"}, nil }

func (f *fakeLLM) Streaming() bool { return f.streaming }

func (f *fakeLLM) ModelName() string { return "fake" }

func (f *fakeLLM) Close() error { return nil }

// fakeWebSearcher returns a canned snippet.
type fakeWebSearcher struct {
	snippet string
	ok      bool
	queries []string
}

func (f *fakeWebSearcher) Search(_ context.Context, query string) (string, bool) {
	f.queries = append(f.queries, query)
	return f.snippet, f.ok
}

// collectSink records every token written to it.
type collectSink struct {
	mu     sync.Mutex
	tokens []string
	err    error
}

func (c *collectSink) WriteToken(token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.tokens = append(c.tokens, token)
	return nil
}

func (c *collectSink) Tokens() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.tokens...)
}
