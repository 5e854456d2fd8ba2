package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/GQAdonis/Shannon/internal/core/domain"
	"github.com/GQAdonis/Shannon/internal/core/ports/driven"
	"github.com/GQAdonis/Shannon/internal/core/ports/driving"
	"github.com/GQAdonis/Shannon/internal/logger"
)

// KnowledgeService manages knowledge base and document lifecycle and
// drives the RAG pipeline for ingestion.
type KnowledgeService struct {
	kbs     driven.KnowledgeBaseStore
	docs    driven.DocumentStore
	vectors *VectorStore
	rag     driving.RAGService
}

var _ driving.KnowledgeService = (*KnowledgeService)(nil)

// NewKnowledgeService creates a knowledge service.
func NewKnowledgeService(kbs driven.KnowledgeBaseStore, docs driven.DocumentStore, vectors *VectorStore, rag driving.RAGService) *KnowledgeService {
	return &KnowledgeService{kbs: kbs, docs: docs, vectors: vectors, rag: rag}
}

// CreateKnowledgeBase validates and persists a knowledge base,
// assigning an ID when absent.
func (s *KnowledgeService) CreateKnowledgeBase(ctx context.Context, kb domain.KnowledgeBase) (*domain.KnowledgeBase, error) {
	if kb.Name == "" {
		return nil, fmt.Errorf("%w: knowledge base name is required", domain.ErrInvalidInput)
	}

	strategy, err := domain.ParseChunkingStrategy(string(kb.ChunkingStrategy))
	if err != nil {
		return nil, err
	}
	kb.ChunkingStrategy = strategy

	if kb.ID == "" {
		kb.ID = uuid.New().String()
	}

	if err := s.kbs.Save(ctx, kb); err != nil {
		return nil, fmt.Errorf("saving knowledge base: %w", err)
	}

	logger.Info("created knowledge base %s (%s, strategy %s)", kb.ID, kb.Name, kb.ChunkingStrategy)
	return &kb, nil
}

// GetKnowledgeBase retrieves a knowledge base by ID.
func (s *KnowledgeService) GetKnowledgeBase(ctx context.Context, id string) (*domain.KnowledgeBase, error) {
	return s.kbs.Get(ctx, id)
}

// ListKnowledgeBases returns all knowledge bases for a user.
func (s *KnowledgeService) ListKnowledgeBases(ctx context.Context, userID string) ([]domain.KnowledgeBase, error) {
	return s.kbs.List(ctx, userID)
}

// DeleteKnowledgeBase removes a knowledge base with its documents and
// chunks. Indexed vectors stay behind until the index is rebuilt.
func (s *KnowledgeService) DeleteKnowledgeBase(ctx context.Context, id string) error {
	if _, err := s.kbs.Get(ctx, id); err != nil {
		return err
	}

	if err := s.rag.DeleteChunks(ctx, id); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	if err := s.kbs.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting knowledge base: %w", err)
	}

	logger.Info("deleted knowledge base %s", id)
	return nil
}

// AddDocument stores a document in a knowledge base and runs it
// through the ingestion pipeline. The document record persists even
// when chunking or embedding fails, so ingestion can be retried.
func (s *KnowledgeService) AddDocument(ctx context.Context, knowledgeBaseID string, doc *domain.Document) ([]domain.Chunk, error) {
	kb, err := s.kbs.Get(ctx, knowledgeBaseID)
	if err != nil {
		return nil, err
	}

	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	doc.KnowledgeBaseID = kb.ID
	if doc.UserID == "" {
		doc.UserID = kb.UserID
	}

	if err := s.docs.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("saving document: %w", err)
	}

	chunks, err := s.rag.ProcessDocument(ctx, doc, kb)
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// DeleteDocument removes a document and its chunks.
func (s *KnowledgeService) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.docs.GetDocument(ctx, id); err != nil {
		return err
	}

	if _, err := s.vectors.DeleteChunksByDocument(ctx, id); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	if err := s.docs.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	logger.Info("deleted document %s", id)
	return nil
}
