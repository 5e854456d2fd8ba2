package chunking

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/GQAdonis/Shannon/internal/core/domain"
	"github.com/GQAdonis/Shannon/internal/core/ports/driven"
)

// StructureAware keeps fenced code blocks and pipe tables intact as
// single chunks, however large, and accumulates the surrounding prose
// into chunks of at most MaxChunkSize tokens. Chunks come out in
// document order.
type StructureAware struct {
	tok driven.Tokenizer
}

// NewStructureAware returns a structure-preserving chunker.
func NewStructureAware(tok driven.Tokenizer) *StructureAware {
	return &StructureAware{tok: tok}
}

var _ Strategy = (*StructureAware)(nil)

var (
	codeBlockRe = regexp.MustCompile("(?s)```.*?```")
	tableRe     = regexp.MustCompile(`(?m)^\|.*\|(?:\n\|.*\|)*`)
)

type segment struct {
	content string
	kind    string // "text", "code_block", "table"
	start   int
}

func (s *StructureAware) Chunk(doc *domain.Document, cfg domain.ChunkingConfig) ([]domain.Chunk, error) {
	maxSize := cfg.MaxChunkSizeOrDefault()
	segments := extractSegments(doc.Content, cfg.PreserveCodeBlocksOrDefault(), cfg.PreserveTablesOrDefault())

	var (
		chunks        []domain.Chunk
		current       strings.Builder
		currentTokens int
	)

	emit := func(content, kind string, tokens int, preserved bool) {
		chunks = append(chunks, newChunk(doc, content, tokens, len(chunks), nil, map[string]any{
			"strategy":     string(domain.StrategyStructureAware),
			"segment_type": kind,
			"preserved":    preserved,
		}))
	}

	flushText := func() {
		if current.Len() == 0 {
			return
		}
		emit(current.String(), "text", currentTokens, false)
		current.Reset()
		currentTokens = 0
	}

	for _, seg := range segments {
		if seg.kind != "text" {
			// Preserved spans become their own chunks, verbatim,
			// regardless of token count.
			flushText()
			tokens, err := s.tok.Count(seg.content)
			if err != nil {
				return nil, fmt.Errorf("%w: counting segment of document %s: %v", domain.ErrTokenization, doc.ID, err)
			}
			emit(seg.content, seg.kind, tokens, true)
			continue
		}

		text := strings.TrimSpace(seg.content)
		if text == "" {
			continue
		}
		segTokens, err := s.tok.Count(text)
		if err != nil {
			return nil, fmt.Errorf("%w: counting segment of document %s: %v", domain.ErrTokenization, doc.ID, err)
		}
		if currentTokens+segTokens > maxSize {
			flushText()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(text)
		currentTokens += segTokens
	}

	flushText()
	return chunks, nil
}

// extractSegments partitions text into plain-text spans and preserved
// structures. Code blocks are located first; tables are then detected
// in the text after the final code block, so a table inside prose that
// precedes a code block is treated as plain text.
func extractSegments(text string, preserveCode, preserveTables bool) []segment {
	var segments []segment
	lastPos := 0

	if preserveCode {
		for _, loc := range codeBlockRe.FindAllStringIndex(text, -1) {
			if loc[0] > lastPos {
				segments = append(segments, segment{content: text[lastPos:loc[0]], kind: "text", start: lastPos})
			}
			segments = append(segments, segment{content: text[loc[0]:loc[1]], kind: "code_block", start: loc[0]})
			lastPos = loc[1]
		}
	}

	remaining := text[lastPos:]
	if preserveTables {
		tail := 0
		for _, loc := range tableRe.FindAllStringIndex(remaining, -1) {
			if loc[0] > tail {
				segments = append(segments, segment{content: remaining[tail:loc[0]], kind: "text", start: lastPos + tail})
			}
			segments = append(segments, segment{content: remaining[loc[0]:loc[1]], kind: "table", start: lastPos + loc[0]})
			tail = loc[1]
		}
		if tail < len(remaining) {
			segments = append(segments, segment{content: remaining[tail:], kind: "text", start: lastPos + tail})
		}
	} else if remaining != "" {
		segments = append(segments, segment{content: remaining, kind: "text", start: lastPos})
	}

	sort.SliceStable(segments, func(i, j int) bool { return segments[i].start < segments[j].start })
	return segments
}
