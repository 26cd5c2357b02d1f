package domain

// RawDocument represents opaque bytes read from the document source
// before text extraction.
type RawDocument struct {
	// URI is the original location (file path).
	URI string

	// MIMEType is the content type (e.g., "text/markdown").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata contains source-specific key-value pairs.
	Metadata map[string]string
}
