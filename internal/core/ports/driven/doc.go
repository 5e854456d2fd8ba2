// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): tokenization, embedding generation,
// vector indexing, and persistence.
package driven
