// Package domain contains the core business entities and rules for the
// Shannon knowledge engine: knowledge bases, documents, chunks, and the
// configuration types that drive chunking and embedding.
//
// Domain types have no dependencies on adapters or infrastructure.
package domain
