package chunking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GQAdonis/Shannon/internal/core/domain"
)

func TestFixedSizeShortDocumentSingleChunk(t *testing.T) {
	tok := newWordTokenizer()
	chunker := NewFixedSize(tok)

	content := "one two three four five"
	chunks, err := chunker.Chunk(testDoc(content), domain.ChunkingConfig{})
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, content, chunks[0].Content)
	assert.Equal(t, 5, chunks[0].Tokens)
	assert.Equal(t, 0, chunks[0].Position)
}

func TestFixedSizeWindowsAndOverlap(t *testing.T) {
	tok := newWordTokenizer()
	chunker := NewFixedSize(tok)

	chunks, err := chunker.Chunk(testDoc(words(25)), domain.ChunkingConfig{
		ChunkSize:      intPtr(10),
		OverlapPercent: floatPtr(0.2), // overlap 2, stride 8
	})
	require.NoError(t, err)

	// Windows: [0,10) [8,18) [16,25).
	require.Len(t, chunks, 3)
	assert.Equal(t, 10, chunks[0].Tokens)
	assert.Equal(t, 10, chunks[1].Tokens)
	assert.Equal(t, 9, chunks[2].Tokens)

	for i, c := range chunks {
		assert.Equal(t, i, c.Position)
		assert.Equal(t, "fixed_size", c.Metadata["strategy"])
		assert.Equal(t, 10, c.Metadata["chunk_size"])
		assert.Equal(t, 2, c.Metadata["overlap_tokens"])
	}
	assert.Equal(t, []int{0, 10}, chunks[0].Metadata["token_range"])
	assert.Equal(t, []int{8, 18}, chunks[1].Metadata["token_range"])
	assert.Equal(t, []int{16, 25}, chunks[2].Metadata["token_range"])
}

func TestFixedSizeEveryTokenCovered(t *testing.T) {
	tok := newWordTokenizer()
	chunker := NewFixedSize(tok)

	doc := testDoc(words(97))
	chunks, err := chunker.Chunk(doc, domain.ChunkingConfig{
		ChunkSize:      intPtr(16),
		OverlapPercent: floatPtr(0.25),
	})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	seen := make(map[string]bool)
	for _, c := range chunks {
		for _, w := range strings.Fields(c.Content) {
			seen[w] = true
		}
	}
	for _, w := range strings.Fields(doc.Content) {
		assert.True(t, seen[w], "token %q missing from output", w)
	}
}

func TestFixedSizeFullOverlapStillTerminates(t *testing.T) {
	tok := newWordTokenizer()
	chunker := NewFixedSize(tok)

	chunks, err := chunker.Chunk(testDoc(words(30)), domain.ChunkingConfig{
		ChunkSize:      intPtr(10),
		OverlapPercent: floatPtr(1.0),
	})
	require.NoError(t, err)
	assert.Len(t, chunks, 3)
}

func TestFixedSizeEmptyDocument(t *testing.T) {
	chunker := NewFixedSize(newWordTokenizer())

	chunks, err := chunker.Chunk(testDoc(""), domain.ChunkingConfig{})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
