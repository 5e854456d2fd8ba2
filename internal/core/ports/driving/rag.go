package driving

import (
	"context"

	"github.com/GQAdonis/Shannon/internal/core/domain"
)

// RAGService orchestrates ingestion (chunk, embed, store) and
// retrieval (embed query, search, rank, format). This is the entire
// surface the HTTP/IPC shell needs.
type RAGService interface {
	// ProcessDocument chunks a document with the knowledge base's
	// configured strategy, embeds all chunks in one batch, and stores
	// them. Returns the stored chunks. Nothing is persisted if
	// chunking or embedding fails.
	ProcessDocument(ctx context.Context, doc *domain.Document, kb *domain.KnowledgeBase) ([]domain.Chunk, error)

	// Search embeds the query once, searches each knowledge base, and
	// returns the global top-limit results sorted by descending score.
	Search(ctx context.Context, query string, knowledgeBaseIDs []string, limit int) ([]domain.ChunkWithScore, error)

	// AugmentQuery formats search results into a context-prefixed
	// prompt. With no knowledge bases or no results, the query is
	// returned unchanged.
	AugmentQuery(ctx context.Context, query string, knowledgeBaseIDs []string, limit int) (string, error)

	// GetChunks returns all chunks for a knowledge base.
	GetChunks(ctx context.Context, knowledgeBaseID string) ([]domain.Chunk, error)

	// DeleteChunks removes all chunks for a knowledge base.
	DeleteChunks(ctx context.Context, knowledgeBaseID string) error

	// GetStats computes per-knowledge-base chunk statistics.
	GetStats(ctx context.Context, knowledgeBaseID string) (*domain.KnowledgeBaseStats, error)
}

// KnowledgeService manages knowledge base and document lifecycle
// around the RAG pipeline.
type KnowledgeService interface {
	// CreateKnowledgeBase creates and persists a knowledge base.
	CreateKnowledgeBase(ctx context.Context, kb domain.KnowledgeBase) (*domain.KnowledgeBase, error)

	// GetKnowledgeBase retrieves a knowledge base by ID.
	GetKnowledgeBase(ctx context.Context, id string) (*domain.KnowledgeBase, error)

	// ListKnowledgeBases returns all knowledge bases for a user.
	ListKnowledgeBases(ctx context.Context, userID string) ([]domain.KnowledgeBase, error)

	// DeleteKnowledgeBase removes a knowledge base, its documents,
	// and its chunks.
	DeleteKnowledgeBase(ctx context.Context, id string) error

	// AddDocument stores a processed document and runs it through the
	// RAG ingestion pipeline.
	AddDocument(ctx context.Context, knowledgeBaseID string, doc *domain.Document) ([]domain.Chunk, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error
}
