package driven

import (
	"context"

	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
)

// Normaliser transforms raw documents into indexed form.
// Each normaliser handles specific MIME types (e.g., Markdown, plain text).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// MIME-specific normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise transforms a raw document into a document with Content.
	// Chunking is handled by the PostProcessor pipeline.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
type NormaliseResult struct {
	// Document is the normalised document with Content field populated.
	Document domain.Document
}

// NormaliserRegistry selects the appropriate normaliser for a document
// based on MIME type and priority.
type NormaliserRegistry interface {
	// Normalise transforms a raw document using the best matching
	// normaliser. Returns domain.ErrUnsupportedType when no
	// normaliser handles the MIME type.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// SupportedMIMETypes returns all MIME types that can be normalised.
	SupportedMIMETypes() []string
}
