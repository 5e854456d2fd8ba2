// Package hnsw provides approximate nearest-neighbour search over a
// hierarchical navigable small world graph, persisted to a single
// file. It backs the VectorIndex port.
package hnsw

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/coder/hnsw"

	"github.com/GQAdonis/Shannon/internal/core/domain"
	"github.com/GQAdonis/Shannon/internal/core/ports/driven"
)

var _ driven.VectorIndex = (*Index)(nil)

// Index is an HNSW graph keyed by chunk position, using cosine
// distance. Writes are serialized; searches take a read lock.
type Index struct {
	mu        sync.RWMutex
	graph     *hnsw.Graph[int]
	saved     *hnsw.SavedGraph[int]
	dimension int
	closed    bool
}

// New opens or creates an index file at path. An empty path keeps the
// index in memory only, which tests use.
func New(path string, dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrInvalidInput, dimension)
	}

	if path == "" {
		g := hnsw.NewGraph[int]()
		g.Distance = hnsw.CosineDistance
		return &Index{graph: g, dimension: dimension}, nil
	}

	saved, err := hnsw.LoadSavedGraph[int](path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening index at %s: %v", domain.ErrVectorIndexUnavailable, path, err)
	}
	if saved.Len() == 0 {
		saved.Distance = hnsw.CosineDistance
	}
	return &Index{graph: saved.Graph, saved: saved, dimension: dimension}, nil
}

// Add inserts a vector under the given position key. Re-adding a key
// replaces its vector.
func (idx *Index) Add(_ context.Context, position int, embedding []float32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return errors.New("hnsw: index is closed")
	}
	if len(embedding) != idx.dimension {
		return fmt.Errorf("%w: got %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(embedding), idx.dimension)
	}

	idx.graph.Add(hnsw.MakeNode(position, embedding))
	return nil
}

// Search finds the k nearest neighbours to the query vector, nearest
// first.
func (idx *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, errors.New("hnsw: index is closed")
	}
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: got %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(query), idx.dimension)
	}
	if k <= 0 || idx.graph.Len() == 0 {
		return nil, nil
	}

	nodes := idx.graph.Search(query, k)
	hits := make([]driven.VectorHit, len(nodes))
	for i, node := range nodes {
		hits[i] = driven.VectorHit{
			Position: node.Key,
			Distance: float64(hnsw.CosineDistance(query, node.Value)),
		}
	}
	return hits, nil
}

// Len returns the number of stored vectors.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.graph.Len()
}

// Flush writes the graph to disk. No-op for in-memory indexes.
func (idx *Index) Flush() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed || idx.saved == nil {
		return nil
	}
	if err := idx.saved.Save(); err != nil {
		return fmt.Errorf("%w: saving index: %v", domain.ErrVectorIndexUnavailable, err)
	}
	return nil
}

// Close persists the graph and marks the index unusable.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return nil
	}
	idx.closed = true
	if idx.saved != nil {
		if err := idx.saved.Save(); err != nil {
			return fmt.Errorf("%w: saving index: %v", domain.ErrVectorIndexUnavailable, err)
		}
	}
	return nil
}
