package normalisers

import (
	"context"
	"sort"

	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches raw documents to the highest-priority normaliser
// registered for their MIME type.
type Registry struct {
	byMIME map[string][]driven.Normaliser
}

// NewRegistry creates a registry with the given normalisers.
func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	r := &Registry{byMIME: make(map[string][]driven.Normaliser)}
	for _, n := range normalisers {
		r.Register(n)
	}
	return r
}

// Register adds a normaliser to the registry.
func (r *Registry) Register(n driven.Normaliser) {
	for _, mime := range n.SupportedMIMETypes() {
		r.byMIME[mime] = append(r.byMIME[mime], n)
		sort.SliceStable(r.byMIME[mime], func(i, j int) bool {
			return r.byMIME[mime][i].Priority() > r.byMIME[mime][j].Priority()
		})
	}
}

// Normalise transforms a raw document using the best matching normaliser.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	candidates := r.byMIME[raw.MIMEType]
	if len(candidates) == 0 {
		return nil, domain.ErrUnsupportedType
	}
	return candidates[0].Normalise(ctx, raw)
}

// SupportedMIMETypes returns all MIME types that can be normalised.
func (r *Registry) SupportedMIMETypes() []string {
	types := make([]string, 0, len(r.byMIME))
	for mime := range r.byMIME {
		types = append(types, mime)
	}
	sort.Strings(types)
	return types
}
