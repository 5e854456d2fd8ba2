package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// Read paths that list or search translate this into an empty
	// result; paths addressing a specific record surface it.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown processor, provider, or
	// file type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrTokenization indicates the tokenizer could not encode or
	// decode the input. Fatal for the calling chunking or embedding
	// operation; no partial output is produced.
	ErrTokenization = errors.New("tokenization failed")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Ingestion and semantic search are disabled without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not
	// configured. Similarity search is disabled.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrDimensionMismatch indicates a vector's length does not match
	// the index dimension fixed at startup.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
