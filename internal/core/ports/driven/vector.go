package driven

import "context"

// VectorIndex provides approximate nearest-neighbour similarity search
// over embeddings, using cosine distance.
//
// Keys are chunk positions. The key space is shared by all knowledge
// bases and the index does not support point deletion; both caveats
// are handled (and surfaced) by the services.VectorStore layer.
type VectorIndex interface {
	// Add inserts a vector under the given position key.
	Add(ctx context.Context, position int, embedding []float32) error

	// Search finds the k nearest neighbours to the query vector,
	// nearest first.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Len returns the number of stored vectors, including entries
	// whose relational rows have since been deleted.
	Len() int

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Position is the matched key.
	Position int

	// Distance is the cosine distance to the query (0 = identical).
	Distance float64
}
