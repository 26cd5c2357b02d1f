package domain

import "time"

// Metadata keys recognised by the pipeline.
const (
	// MetaFileName is the base name of the file a chunk came from.
	// Used for the sources footer of an answer.
	MetaFileName = "file_name"

	// MetaSource is a generic origin marker. Internet-augmentation
	// nodes carry MetaSource = "Internet" instead of a file name.
	MetaSource = "source"

	// MetaFilePath is the absolute path of the originating file.
	MetaFilePath = "file_path"
)

// SourceInternet is the MetaSource value for web-search nodes.
const SourceInternet = "Internet"

// Document represents a source unit handed to indexing.
// It is immutable once produced by the document source.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// URI is the original location (file path).
	URI string

	// Title is the human-readable title.
	Title string

	// Content is the full extracted text before chunking.
	Content string

	// Metadata contains arbitrary key-value pairs inherited by chunks.
	Metadata map[string]string

	// CreatedAt is when the document was first indexed.
	CreatedAt time.Time
}

// Chunk is the atomic indexed unit: a sub-span of a document's text
// plus inherited metadata. Owned by the index once built, read-only
// thereafter.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Embedding is the L2-normalised vector representation.
	Embedding []float32

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]string
}

// SourceLabel returns the attribution label for a chunk: the file_name
// metadata value, falling back to source, or "" when neither is set.
func (c Chunk) SourceLabel() string {
	if name := c.Metadata[MetaFileName]; name != "" {
		return name
	}
	return c.Metadata[MetaSource]
}

// ScoredNode pairs a chunk with its relevance score for one query.
type ScoredNode struct {
	// Chunk is the retrieved unit.
	Chunk Chunk

	// Score is the relevance score. Cosine similarity for retrieved
	// nodes, a fixed constant for internet-augmentation nodes.
	Score float64
}
