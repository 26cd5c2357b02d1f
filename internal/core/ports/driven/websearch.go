package driven

import "context"

// WebSearcher returns a short text snippet for a query.
//
// The contract is strictly best-effort: implementations swallow every
// failure (timeout, non-success status, malformed payload) and report
// it as "no snippet" via ok = false, logging at debug level. A web
// search failure must never fail a chat turn.
type WebSearcher interface {
	// Search returns a snippet and true, or "" and false when no
	// snippet is available.
	Search(ctx context.Context, query string) (snippet string, ok bool)
}
