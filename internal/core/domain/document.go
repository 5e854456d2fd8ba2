package domain

import "time"

// ProcessorType identifies the document processor that extracted a
// document's text. Extraction itself happens outside the engine.
type ProcessorType string

const (
	// ProcessorNative is the built-in plain-text/markdown processor.
	ProcessorNative ProcessorType = "native"

	// ProcessorExternal marks content extracted by an external service
	// (OCR, PDF pipelines) and handed to the engine as plain text.
	ProcessorExternal ProcessorType = "external"
)

// Document is one ingested source file after text extraction.
// Content is immutable once stored; re-ingesting a document requires
// discarding and regenerating all of its chunks.
type Document struct {
	// ID is the unique identifier.
	ID string

	// UserID is the owning user.
	UserID string

	// KnowledgeBaseID links to the parent knowledge base.
	KnowledgeBaseID string

	// Title is the human-readable title.
	Title string

	// Content is the full extracted text before chunking.
	Content string

	// FileType is the source MIME type.
	FileType string

	// FileSize is the original file size in bytes.
	FileSize int64

	// Processor is the extractor that produced Content.
	Processor ProcessorType

	// Metadata contains arbitrary key-value pairs from the processor.
	Metadata map[string]any

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document record was last touched.
	UpdatedAt time.Time
}

// Chunk is one retrievable unit of document text.
type Chunk struct {
	// ID is the unique identifier.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// KnowledgeBaseID links to the parent knowledge base.
	KnowledgeBaseID string

	// Content is the chunk text.
	Content string

	// Embedding is the vector representation. Empty until the chunk
	// has been embedded; once populated its length equals the owning
	// knowledge base's embedding dimension.
	Embedding []float32

	// Tokens is the token count of Content.
	Tokens int

	// Position is the ordinal within the chunking run that produced
	// this chunk. It doubles as the vector index key, so it is only
	// unique within one knowledge base's numeric range (see the
	// services.VectorStore documentation for the collision caveat).
	Position int

	// ParentChunkID links a hierarchical child to its parent chunk,
	// which is always produced in the same chunking run.
	ParentChunkID *string

	// Metadata records the strategy and strategy-specific parameters
	// that produced this chunk.
	Metadata map[string]any

	// CreatedAt is when the chunk was created.
	CreatedAt time.Time
}

// ChunkWithScore pairs a chunk with a similarity score in [0,1].
// The score is only meaningful relative to other results from the
// same query.
type ChunkWithScore struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}
