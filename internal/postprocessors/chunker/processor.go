// Package chunker provides a fixed-size text chunking processor.
package chunker

import (
	"context"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 800

// DefaultOverlapRatio is the default fraction of a chunk shared with its neighbour.
const DefaultOverlapRatio = 0.1

// Processor splits document content into fixed-size chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize    int
	overlapRatio float64
	overlap      int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlapRatio sets the overlap as a fraction of the chunk size.
// Values outside [0, 1) are ignored.
func WithOverlapRatio(ratio float64) Option {
	return func(p *Processor) {
		if ratio >= 0 && ratio < 1 {
			p.overlapRatio = ratio
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize:    DefaultChunkSize,
		overlapRatio: DefaultOverlapRatio,
	}

	for _, opt := range opts {
		opt(p)
	}

	p.overlap = int(p.overlapRatio * float64(p.chunkSize))

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document
// content. Each chunk inherits a copy of the document metadata so that
// source attribution survives the document itself.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc.Content == "" {
		// Empty content produces no chunks
		return nil, nil
	}

	// Chunk over runes so a multi-byte character is never split
	// across a boundary.
	content := []rune(doc.Content)
	contentLen := len(content)

	// Estimate number of chunks
	estimatedChunks := (contentLen / (p.chunkSize - p.overlap)) + 1
	chunks := make([]domain.Chunk, 0, estimatedChunks)

	position := 0
	start := 0

	for start < contentLen {
		end := start + p.chunkSize
		if end > contentLen {
			end = contentLen
		}

		chunk := domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Content:    string(content[start:end]),
			Position:   position,
			Metadata:   copyMetadata(doc.Metadata),
		}

		chunks = append(chunks, chunk)
		position++

		// Move start forward by (chunkSize - overlap)
		start += p.chunkSize - p.overlap

		// Avoid infinite loop for edge cases
		if p.chunkSize <= p.overlap {
			break
		}
	}

	return chunks, nil
}

func copyMetadata(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
