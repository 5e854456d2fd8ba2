package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/GQAdonis/Shannon/internal/chunking"
	"github.com/GQAdonis/Shannon/internal/core/domain"
	"github.com/GQAdonis/Shannon/internal/core/ports/driven"
	"github.com/GQAdonis/Shannon/internal/core/ports/driving"
	"github.com/GQAdonis/Shannon/internal/logger"
)

// EmbedderFactory returns the embedding service for a knowledge base.
// Used when knowledge bases configure different providers or models.
type EmbedderFactory func(kb *domain.KnowledgeBase) (driven.EmbeddingService, error)

// RAGService orchestrates chunking, embedding, storage, and retrieval.
type RAGService struct {
	tokenizer   driven.Tokenizer
	embedder    driven.EmbeddingService
	vectors     *VectorStore
	embedderFor EmbedderFactory
}

var _ driving.RAGService = (*RAGService)(nil)

// RAGOption configures a RAGService.
type RAGOption func(*RAGService)

// WithEmbedderFactory makes ingestion use per-knowledge-base embedding
// services instead of the default one. Queries still use the default
// embedder.
func WithEmbedderFactory(f EmbedderFactory) RAGOption {
	return func(s *RAGService) { s.embedderFor = f }
}

// NewRAGService creates a RAG service. The embedder handles queries
// and, absent a factory, ingestion too.
func NewRAGService(tokenizer driven.Tokenizer, embedder driven.EmbeddingService, vectors *VectorStore, opts ...RAGOption) *RAGService {
	s := &RAGService{
		tokenizer: tokenizer,
		embedder:  embedder,
		vectors:   vectors,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessDocument chunks a document, embeds every chunk in one batch,
// and stores rows and vectors. Nothing is persisted when chunking or
// embedding fails.
func (s *RAGService) ProcessDocument(ctx context.Context, doc *domain.Document, kb *domain.KnowledgeBase) ([]domain.Chunk, error) {
	logger.Section("Ingest")
	defer logger.Timing("document processing", time.Now())

	chunker, err := chunking.New(kb.ChunkingStrategy, s.tokenizer)
	if err != nil {
		return nil, err
	}

	chunks, err := chunker.Chunk(doc, kb.ChunkingConfig)
	if err != nil {
		return nil, fmt.Errorf("chunking document: %w", err)
	}
	if len(chunks) == 0 {
		logger.Debug("document %s produced no chunks", doc.ID)
		return nil, nil
	}
	logger.Debug("chunked document %s into %d chunks (%s)", doc.ID, len(chunks), kb.ChunkingStrategy)

	embedder, err := s.ingestEmbedder(kb)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	embeddings, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d chunks",
			domain.ErrEmbeddingUnavailable, len(embeddings), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	if err := s.vectors.AddChunksBatch(ctx, chunks); err != nil {
		return nil, fmt.Errorf("storing chunks: %w", err)
	}

	logger.Info("document %s processed into %d chunks for knowledge base %s", doc.ID, len(chunks), kb.ID)
	return chunks, nil
}

// Search embeds the query once and returns the global top-limit
// results across the given knowledge bases, best score first.
func (s *RAGService) Search(ctx context.Context, query string, knowledgeBaseIDs []string, limit int) ([]domain.ChunkWithScore, error) {
	logger.Section("Search")
	defer logger.Timing("search", time.Now())

	if len(knowledgeBaseIDs) == 0 {
		return nil, nil
	}

	queryEmbedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	var all []domain.ChunkWithScore
	for _, kbID := range knowledgeBaseIDs {
		results, err := s.vectors.Search(ctx, kbID, queryEmbedding, limit)
		if err != nil {
			return nil, fmt.Errorf("searching knowledge base %s: %w", kbID, err)
		}
		logger.Debug("knowledge base %s returned %d results", kbID, len(results))
		all = append(all, results...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Score > all[j].Score
	})
	if len(all) > limit {
		all = all[:limit]
	}

	return all, nil
}

// AugmentQuery wraps the query in retrieved context. With no knowledge
// bases or no results it returns the query unchanged.
func (s *RAGService) AugmentQuery(ctx context.Context, query string, knowledgeBaseIDs []string, limit int) (string, error) {
	if len(knowledgeBaseIDs) == 0 {
		return query, nil
	}

	results, err := s.Search(ctx, query, knowledgeBaseIDs, limit)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		logger.Debug("no relevant context found, using original query")
		return query, nil
	}

	sources := make([]string, len(results))
	for i, r := range results {
		sources[i] = fmt.Sprintf("[Source %d] (Relevance: %.2f)\n%s", i+1, r.Score, r.Chunk.Content)
	}
	augmented := fmt.Sprintf(
		"# Relevant Context from Knowledge Base\n\n%s\n\n---\n\n# User Query\n\n%s",
		strings.Join(sources, "\n\n---\n\n"), query,
	)

	logger.Info("query augmented with %d sources", len(results))
	return augmented, nil
}

// GetChunks returns all chunks for a knowledge base.
func (s *RAGService) GetChunks(ctx context.Context, knowledgeBaseID string) ([]domain.Chunk, error) {
	return s.vectors.GetChunksByKB(ctx, knowledgeBaseID)
}

// DeleteChunks removes all chunks for a knowledge base.
func (s *RAGService) DeleteChunks(ctx context.Context, knowledgeBaseID string) error {
	_, err := s.vectors.DeleteChunksByKB(ctx, knowledgeBaseID)
	return err
}

// GetStats computes chunk statistics for a knowledge base.
func (s *RAGService) GetStats(ctx context.Context, knowledgeBaseID string) (*domain.KnowledgeBaseStats, error) {
	chunks, err := s.GetChunks(ctx, knowledgeBaseID)
	if err != nil {
		return nil, err
	}

	totalTokens := 0
	documents := make(map[string]struct{})
	for _, chunk := range chunks {
		totalTokens += chunk.Tokens
		documents[chunk.DocumentID] = struct{}{}
	}

	avgTokens := 0
	if len(chunks) > 0 {
		avgTokens = totalTokens / len(chunks)
	}

	return &domain.KnowledgeBaseStats{
		TotalChunks:       len(chunks),
		TotalTokens:       totalTokens,
		AvgTokensPerChunk: avgTokens,
		NumDocuments:      len(documents),
	}, nil
}

// IndexStats reports vector index divergence counters.
func (s *RAGService) IndexStats() IndexStats {
	return s.vectors.Stats()
}

func (s *RAGService) ingestEmbedder(kb *domain.KnowledgeBase) (driven.EmbeddingService, error) {
	if s.embedderFor == nil || kb.EmbeddingProvider == "" {
		return s.embedder, nil
	}
	embedder, err := s.embedderFor(kb)
	if err != nil {
		return nil, fmt.Errorf("creating embedder for knowledge base %s: %w", kb.ID, err)
	}
	return embedder, nil
}
