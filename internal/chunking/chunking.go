// Package chunking splits documents into retrievable chunks.
//
// Four strategies are available behind one interface: fixed-size
// token windows, semantic (paragraph/sentence boundaries, the
// default), structure-aware (code blocks and tables kept intact), and
// hierarchical (parent chunks subdivided into linked children).
//
// A chunking run is all-or-nothing per document: any tokenization
// failure aborts the whole run and returns no chunks.
package chunking

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/GQAdonis/Shannon/internal/core/domain"
	"github.com/GQAdonis/Shannon/internal/core/ports/driven"
)

// Strategy splits a document's text into an ordered sequence of
// chunks according to a configuration.
type Strategy interface {
	// Chunk produces the chunk sequence for one document.
	Chunk(doc *domain.Document, cfg domain.ChunkingConfig) ([]domain.Chunk, error)
}

// New returns the chunker for the given strategy, sharing the
// provided tokenizer. The tokenizer is read-only and may be shared
// across concurrent chunking runs.
func New(strategy domain.ChunkingStrategy, tok driven.Tokenizer) (Strategy, error) {
	switch strategy {
	case domain.StrategyFixedSize:
		return NewFixedSize(tok), nil
	case domain.StrategySemantic, "":
		return NewSemantic(tok), nil
	case domain.StrategyStructureAware:
		return NewStructureAware(tok), nil
	case domain.StrategyHierarchical:
		return NewHierarchical(tok), nil
	default:
		return nil, fmt.Errorf("%w: chunking strategy %q", domain.ErrUnsupportedType, strategy)
	}
}

// newChunk builds a chunk record for a document.
func newChunk(
	doc *domain.Document,
	content string,
	tokens int,
	position int,
	parentChunkID *string,
	metadata map[string]any,
) domain.Chunk {
	return domain.Chunk{
		ID:              uuid.New().String(),
		DocumentID:      doc.ID,
		KnowledgeBaseID: doc.KnowledgeBaseID,
		Content:         content,
		Embedding:       nil,
		Tokens:          tokens,
		Position:        position,
		ParentChunkID:   parentChunkID,
		Metadata:        metadata,
		CreatedAt:       time.Now().UTC(),
	}
}
