// Package services implements the core use cases behind the driving
// ports: the hybrid vector store, the RAG pipeline, and knowledge
// base lifecycle.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/GQAdonis/Shannon/internal/core/domain"
	"github.com/GQAdonis/Shannon/internal/core/ports/driven"
	"github.com/GQAdonis/Shannon/internal/logger"
)

// VectorStore combines the relational chunk store with the ANN index.
// Chunk rows commit in one transaction; vectors are then inserted into
// the index outside that transaction. An index failure after the
// commit therefore leaves rows without vectors, which the error
// surfaces but does not roll back.
//
// Deletion is relational only: the index keeps stale vectors, whose
// hits are dropped at search time when the row lookup misses. Stats
// exposes counters for both effects.
//
// The index key is the chunk position, so two chunks at the same
// position (in any knowledge base) overwrite each other's vector. The
// row lookup is scoped by knowledge base, which keeps results
// well-formed but means a colliding chunk can shadow another's vector.
type VectorStore struct {
	mu     sync.Mutex // serializes writes; reads go through the index's own lock
	chunks driven.ChunkStore
	index  driven.VectorIndex

	staleDeletes int64
	droppedHits  int64
}

// IndexStats reports the divergence between the relational store and
// the ANN index accumulated in this process.
type IndexStats struct {
	// IndexedVectors is the number of vectors in the ANN index,
	// including stale ones.
	IndexedVectors int `json:"indexed_vectors"`

	// StaleDeletes counts chunk rows deleted while their vectors
	// stayed in the index.
	StaleDeletes int64 `json:"stale_deletes"`

	// DroppedHits counts search hits discarded because no row matched
	// the hit's position.
	DroppedHits int64 `json:"dropped_hits"`
}

// NewVectorStore creates a hybrid store over a chunk store and an ANN
// index.
func NewVectorStore(chunks driven.ChunkStore, index driven.VectorIndex) *VectorStore {
	return &VectorStore{chunks: chunks, index: index}
}

// AddChunk stores a single chunk and its vector.
func (v *VectorStore) AddChunk(ctx context.Context, chunk domain.Chunk) error {
	return v.AddChunksBatch(ctx, []domain.Chunk{chunk})
}

// AddChunksBatch stores chunk rows atomically, then indexes their
// vectors. Chunks without embeddings are stored but not indexed.
func (v *VectorStore) AddChunksBatch(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.chunks.SaveChunks(ctx, chunks); err != nil {
		return fmt.Errorf("saving chunk rows: %w", err)
	}

	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			continue
		}
		if err := v.index.Add(ctx, chunk.Position, chunk.Embedding); err != nil {
			// Rows are already committed; report the divergence.
			return fmt.Errorf("indexing chunk %s at position %d (rows already stored): %w",
				chunk.ID, chunk.Position, err)
		}
	}

	logger.Debug("stored %d chunks, index now holds %d vectors", len(chunks), v.index.Len())
	return nil
}

// Search finds the chunks of one knowledge base most similar to the
// query embedding. Hits whose rows are missing (stale vectors, other
// knowledge bases) are dropped, so fewer than limit results may come
// back.
func (v *VectorStore) Search(ctx context.Context, knowledgeBaseID string, queryEmbedding []float32, limit int) ([]domain.ChunkWithScore, error) {
	hits, err := v.index.Search(ctx, queryEmbedding, limit)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	var results []domain.ChunkWithScore
	for _, hit := range hits {
		chunk, err := v.chunks.GetChunkByPosition(ctx, knowledgeBaseID, hit.Position)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				atomic.AddInt64(&v.droppedHits, 1)
				logger.Debug("dropping hit at position %d: no row in knowledge base %s", hit.Position, knowledgeBaseID)
				continue
			}
			return nil, fmt.Errorf("loading chunk at position %d: %w", hit.Position, err)
		}
		// Results carry content, not vectors.
		chunk.Embedding = nil
		results = append(results, domain.ChunkWithScore{
			Chunk: *chunk,
			Score: 1.0 - hit.Distance,
		})
	}

	return results, nil
}

// GetChunksByKB returns all stored chunks of a knowledge base in
// position order.
func (v *VectorStore) GetChunksByKB(ctx context.Context, knowledgeBaseID string) ([]domain.Chunk, error) {
	return v.chunks.GetChunksByKB(ctx, knowledgeBaseID)
}

// DeleteChunksByKB removes all chunk rows for a knowledge base. Their
// vectors stay in the index until it is rebuilt.
func (v *VectorStore) DeleteChunksByKB(ctx context.Context, knowledgeBaseID string) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	n, err := v.chunks.DeleteChunksByKB(ctx, knowledgeBaseID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		atomic.AddInt64(&v.staleDeletes, int64(n))
		logger.Warn("deleted %d chunk rows for knowledge base %s; their vectors remain in the index", n, knowledgeBaseID)
	}
	return n, nil
}

// DeleteChunksByDocument removes all chunk rows for a document. Their
// vectors stay in the index until it is rebuilt.
func (v *VectorStore) DeleteChunksByDocument(ctx context.Context, documentID string) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	n, err := v.chunks.DeleteChunksByDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		atomic.AddInt64(&v.staleDeletes, int64(n))
		logger.Warn("deleted %d chunk rows for document %s; their vectors remain in the index", n, documentID)
	}
	return n, nil
}

// Stats reports index size and divergence counters.
func (v *VectorStore) Stats() IndexStats {
	return IndexStats{
		IndexedVectors: v.index.Len(),
		StaleDeletes:   atomic.LoadInt64(&v.staleDeletes),
		DroppedHits:    atomic.LoadInt64(&v.droppedHits),
	}
}
