package chunking

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/GQAdonis/Shannon/internal/core/domain"
	"github.com/GQAdonis/Shannon/internal/core/ports/driven"
)

// Semantic accumulates paragraphs into chunks of MinChunkSize to
// MaxChunkSize tokens, flushing at paragraph boundaries. Paragraphs
// that alone exceed MaxChunkSize are re-split on sentence boundaries
// when RespectSentences is set.
type Semantic struct {
	tok driven.Tokenizer
}

// NewSemantic returns a paragraph/sentence boundary chunker.
func NewSemantic(tok driven.Tokenizer) *Semantic {
	return &Semantic{tok: tok}
}

var _ Strategy = (*Semantic)(nil)

// sentenceEnd matches a terminator followed by whitespace. The split
// point is after the terminator so punctuation stays with its sentence.
var sentenceEnd = regexp.MustCompile(`[.!?]\s+`)

func (s *Semantic) Chunk(doc *domain.Document, cfg domain.ChunkingConfig) ([]domain.Chunk, error) {
	minSize := cfg.MinChunkSizeOrDefault()
	maxSize := cfg.MaxChunkSizeOrDefault()
	respectSentences := cfg.RespectSentences == nil || *cfg.RespectSentences

	var (
		chunks        []domain.Chunk
		current       strings.Builder
		currentTokens int
		boundary      = "paragraph"
	)

	flush := func() error {
		content := current.String()
		if content == "" {
			return nil
		}
		tokens, err := s.tok.Count(content)
		if err != nil {
			return fmt.Errorf("%w: counting chunk of document %s: %v", domain.ErrTokenization, doc.ID, err)
		}
		chunks = append(chunks, newChunk(doc, content, tokens, len(chunks), nil, map[string]any{
			"strategy":      string(domain.StrategySemantic),
			"boundary_type": boundary,
		}))
		current.Reset()
		currentTokens = 0
		boundary = "paragraph"
		return nil
	}

	for _, para := range strings.Split(doc.Content, "\n\n") {
		if strings.TrimSpace(para) == "" {
			continue
		}
		paraTokens, err := s.tok.Count(para)
		if err != nil {
			return nil, fmt.Errorf("%w: counting paragraph of document %s: %v", domain.ErrTokenization, doc.ID, err)
		}

		if paraTokens > maxSize {
			// The paragraph alone overflows. Flush what we have if it
			// already meets the minimum, then fall back to sentences.
			if current.Len() > 0 && currentTokens >= minSize {
				if err := flush(); err != nil {
					return nil, err
				}
			}
			if !respectSentences {
				// Emit the oversized paragraph as-is, joined with any
				// remainder below the minimum.
				if current.Len() > 0 {
					current.WriteString("\n\n")
				}
				current.WriteString(para)
				if err := flush(); err != nil {
					return nil, err
				}
				continue
			}
			for _, sentence := range splitSentences(para) {
				sentTokens, err := s.tok.Count(sentence)
				if err != nil {
					return nil, fmt.Errorf("%w: counting sentence of document %s: %v", domain.ErrTokenization, doc.ID, err)
				}
				if currentTokens+sentTokens > maxSize && currentTokens >= minSize {
					if err := flush(); err != nil {
						return nil, err
					}
				}
				if current.Len() > 0 {
					current.WriteString(" ")
				}
				current.WriteString(sentence)
				currentTokens += sentTokens
				boundary = "sentence"
			}
			continue
		}

		if currentTokens+paraTokens > maxSize && currentTokens >= minSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
		currentTokens += paraTokens
	}

	if err := flush(); err != nil {
		return nil, err
	}
	return chunks, nil
}

// splitSentences splits text after each ./!/? that is followed by
// whitespace. Abbreviations are split too; that is acceptable noise
// for chunk boundaries.
func splitSentences(text string) []string {
	var sentences []string
	last := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		sentence := strings.TrimSpace(text[last : loc[0]+1])
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		last = loc[1]
	}
	if tail := strings.TrimSpace(text[last:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}
