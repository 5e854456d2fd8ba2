package chunking

import (
	"fmt"

	"github.com/GQAdonis/Shannon/internal/core/domain"
	"github.com/GQAdonis/Shannon/internal/core/ports/driven"
)

// FixedSize splits a document into sliding token windows of
// ChunkSize tokens, with consecutive windows sharing
// ChunkSize*OverlapPercent tokens. The final window may be shorter.
type FixedSize struct {
	tok driven.Tokenizer
}

// NewFixedSize returns a fixed-size window chunker.
func NewFixedSize(tok driven.Tokenizer) *FixedSize {
	return &FixedSize{tok: tok}
}

var _ Strategy = (*FixedSize)(nil)

func (f *FixedSize) Chunk(doc *domain.Document, cfg domain.ChunkingConfig) ([]domain.Chunk, error) {
	chunkSize := cfg.ChunkSizeOrDefault()
	overlapTokens := int(float64(chunkSize) * cfg.OverlapPercentOrDefault())

	tokens, err := f.tok.Encode(doc.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding document %s: %v", domain.ErrTokenization, doc.ID, err)
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	stride := chunkSize - overlapTokens
	if stride <= 0 {
		stride = chunkSize
	}

	var chunks []domain.Chunk
	position := 0
	for start := 0; start < len(tokens); start += stride {
		end := start + chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}

		content, err := f.tok.Decode(tokens[start:end])
		if err != nil {
			return nil, fmt.Errorf("%w: decoding tokens %d..%d of document %s: %v",
				domain.ErrTokenization, start, end, doc.ID, err)
		}

		chunks = append(chunks, newChunk(doc, content, end-start, position, nil, map[string]any{
			"strategy":       string(domain.StrategyFixedSize),
			"chunk_size":     chunkSize,
			"overlap_tokens": overlapTokens,
			"token_range":    []int{start, end},
		}))
		position++

		if end == len(tokens) {
			break
		}
	}

	return chunks, nil
}
