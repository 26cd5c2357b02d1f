package driven

import (
	"context"

	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
)

// DocumentSource enumerates readable documents under a root directory.
// Unreadable or binary files are skipped with a logged notice, never
// surfaced as errors.
type DocumentSource interface {
	// Read returns the raw documents under dir.
	Read(ctx context.Context, dir string) ([]domain.RawDocument, error)
}
