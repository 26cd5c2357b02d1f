package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates a malformed configuration value.
	// Configuration errors are fatal: they abort startup of the
	// affected component rather than being recovered at runtime.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrIndexNotFound indicates no persisted index exists at the
	// configured location. Query turns are rejected until a rebuild.
	ErrIndexNotFound = errors.New("index not found")

	// ErrIndexCorrupt indicates the persisted index could not be read.
	// Treated like ErrIndexNotFound: an explicit rebuild is required.
	ErrIndexCorrupt = errors.New("index corrupt")

	// ErrNoIndexLoaded indicates a query turn was attempted before an
	// index was loaded or built.
	ErrNoIndexLoaded = errors.New("no index loaded")

	// ErrLLMUnavailable indicates the model server is not reachable.
	// The connection manager absorbs this into the mock fallback, so
	// it never surfaces to end users as a hard failure.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrUnsupportedType indicates an unknown normaliser type.
	ErrUnsupportedType = errors.New("unsupported type")
)
