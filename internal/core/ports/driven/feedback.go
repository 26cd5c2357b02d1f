package driven

import "time"

// FeedbackRecord is one user feedback entry.
type FeedbackRecord struct {
	// Timestamp is when the feedback was given (UTC).
	Timestamp time.Time

	// Query is the original user query the feedback refers to.
	Query string

	// Detail is the free-text description of the problem.
	Detail string
}

// FeedbackStore persists feedback records append-only.
type FeedbackStore interface {
	// Append adds one record. Records are never updated or removed.
	Append(rec FeedbackRecord) error
}
