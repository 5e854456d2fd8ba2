package chunking

import (
	"fmt"

	"github.com/GQAdonis/Shannon/internal/core/domain"
	"github.com/GQAdonis/Shannon/internal/core/ports/driven"
)

// Hierarchical splits a document into non-overlapping parent windows
// of ParentChunkSize tokens, then subdivides each parent that exceeds
// ChildChunkSize into child windows linked via ParentChunkID. Output
// order is each parent followed by its children, with positions
// assigned sequentially across the whole sequence.
type Hierarchical struct {
	tok driven.Tokenizer
}

// NewHierarchical returns a two-level parent/child chunker.
func NewHierarchical(tok driven.Tokenizer) *Hierarchical {
	return &Hierarchical{tok: tok}
}

var _ Strategy = (*Hierarchical)(nil)

func (h *Hierarchical) Chunk(doc *domain.Document, cfg domain.ChunkingConfig) ([]domain.Chunk, error) {
	parentSize := cfg.ParentChunkSizeOrDefault()
	childSize := cfg.ChildChunkSizeOrDefault()
	maxDepth := cfg.MaxDepthOrDefault()

	tokens, err := h.tok.Encode(doc.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding document %s: %v", domain.ErrTokenization, doc.ID, err)
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	var chunks []domain.Chunk
	for start := 0; start < len(tokens); start += parentSize {
		end := start + parentSize
		if end > len(tokens) {
			end = len(tokens)
		}
		parentTokens := tokens[start:end]

		content, err := h.tok.Decode(parentTokens)
		if err != nil {
			return nil, fmt.Errorf("%w: decoding parent tokens %d..%d of document %s: %v",
				domain.ErrTokenization, start, end, doc.ID, err)
		}

		parent := newChunk(doc, content, len(parentTokens), len(chunks), nil, map[string]any{
			"strategy":  string(domain.StrategyHierarchical),
			"level":     0,
			"is_parent": true,
		})
		chunks = append(chunks, parent)

		if maxDepth <= 1 || len(parentTokens) <= childSize {
			continue
		}
		for cs := 0; cs < len(parentTokens); cs += childSize {
			ce := cs + childSize
			if ce > len(parentTokens) {
				ce = len(parentTokens)
			}
			childContent, err := h.tok.Decode(parentTokens[cs:ce])
			if err != nil {
				return nil, fmt.Errorf("%w: decoding child tokens %d..%d of document %s: %v",
					domain.ErrTokenization, start+cs, start+ce, doc.ID, err)
			}
			parentID := parent.ID
			chunks = append(chunks, newChunk(doc, childContent, ce-cs, len(chunks), &parentID, map[string]any{
				"strategy":  string(domain.StrategyHierarchical),
				"level":     1,
				"is_parent": false,
				"parent_id": parent.ID,
			}))
		}
	}

	return chunks, nil
}
