package driven

import (
	"context"

	"github.com/GQAdonis/Shannon/internal/core/domain"
)

// KnowledgeBaseStore persists knowledge base records.
type KnowledgeBaseStore interface {
	// Save stores or updates a knowledge base.
	Save(ctx context.Context, kb domain.KnowledgeBase) error

	// Get retrieves a knowledge base by ID.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.KnowledgeBase, error)

	// List returns all knowledge bases for a user.
	List(ctx context.Context, userID string) ([]domain.KnowledgeBase, error)

	// Delete removes a knowledge base. Documents and chunks cascade.
	Delete(ctx context.Context, id string) error
}

// DocumentStore persists document records.
type DocumentStore interface {
	// SaveDocument stores a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns documents for a knowledge base.
	ListDocuments(ctx context.Context, knowledgeBaseID string) ([]domain.Document, error)

	// DeleteDocument removes a document. Its chunks cascade.
	DeleteDocument(ctx context.Context, id string) error
}

// ChunkStore persists the relational side of the hybrid store: chunk
// content and metadata rows. Vectors live in the VectorIndex.
type ChunkStore interface {
	// SaveChunk inserts a single chunk row.
	SaveChunk(ctx context.Context, chunk domain.Chunk) error

	// SaveChunks inserts chunk rows in one transaction. The batch is
	// atomic: either every row commits or none do.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunkByPosition retrieves the chunk with the given position
	// within a knowledge base. Returns domain.ErrNotFound when the
	// position does not belong to that knowledge base.
	GetChunkByPosition(ctx context.Context, knowledgeBaseID string, position int) (*domain.Chunk, error)

	// GetChunksByKB returns all chunks for a knowledge base, ordered
	// by position.
	GetChunksByKB(ctx context.Context, knowledgeBaseID string) ([]domain.Chunk, error)

	// DeleteChunksByKB removes all chunk rows for a knowledge base
	// and reports how many were deleted.
	DeleteChunksByKB(ctx context.Context, knowledgeBaseID string) (int, error)

	// DeleteChunksByDocument removes all chunk rows for a document
	// and reports how many were deleted.
	DeleteChunksByDocument(ctx context.Context, documentID string) (int, error)
}
