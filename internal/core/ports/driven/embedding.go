package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Batches are all-or-nothing: EmbedBatch returns one vector per input
// in input order, or an error and no vectors. Provider failures
// (authentication, network, rate limiting) propagate to the caller
// unmodified; retry and backoff policy belongs to the caller.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call.
	// More efficient than calling Embed in a loop for large batches.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 768, 1536).
	// Fixed per configured provider+model and must match the vector
	// index configuration.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
