package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GQAdonis/Shannon/internal/core/domain"
	"github.com/GQAdonis/Shannon/internal/core/ports/driven"
)

type ragFixture struct {
	rag      *RAGService
	vectors  *VectorStore
	chunks   *memChunkStore
	index    *memIndex
	embedder *fakeEmbedder
}

func newRAGFixture() *ragFixture {
	chunks := newMemChunkStore()
	index := newMemIndex()
	vectors := NewVectorStore(chunks, index)
	embedder := &fakeEmbedder{}
	return &ragFixture{
		rag:      NewRAGService(newFakeTokenizer(), embedder, vectors),
		vectors:  vectors,
		chunks:   chunks,
		index:    index,
		embedder: embedder,
	}
}

func semanticKB(id string) *domain.KnowledgeBase {
	return &domain.KnowledgeBase{
		ID:               id,
		UserID:           "user-1",
		Name:             "kb " + id,
		ChunkingStrategy: domain.StrategySemantic,
	}
}

func ragDoc(id, kbID, content string) *domain.Document {
	return &domain.Document{
		ID:              id,
		UserID:          "user-1",
		KnowledgeBaseID: kbID,
		Title:           "doc " + id,
		Content:         content,
		FileType:        "text/plain",
		Processor:       domain.ProcessorNative,
	}
}

func TestProcessDocumentStoresEmbeddedChunks(t *testing.T) {
	f := newRAGFixture()
	ctx := context.Background()

	kb := semanticKB("kb-1")
	doc := ragDoc("doc-1", "kb-1", "alpha paragraph one.\n\nbeta paragraph two.")

	// Force one chunk per paragraph.
	minSize := 1
	maxSize := 3
	kb.ChunkingConfig = domain.ChunkingConfig{MinChunkSize: &minSize, MaxChunkSize: &maxSize}

	chunks, err := f.rag.ProcessDocument(ctx, doc, kb)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	// One batch call regardless of chunk count.
	assert.Equal(t, 1, f.embedder.batchCalls)
	for _, c := range chunks {
		assert.NotEmpty(t, c.Embedding)
		assert.Equal(t, "kb-1", c.KnowledgeBaseID)
	}

	stored, err := f.vectors.GetChunksByKB(ctx, "kb-1")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
	assert.Equal(t, 2, f.index.Len())
}

func TestProcessDocumentEmbeddingFailurePersistsNothing(t *testing.T) {
	f := newRAGFixture()
	f.embedder.failWith = errors.New("rate limited")
	ctx := context.Background()

	_, err := f.rag.ProcessDocument(ctx, ragDoc("doc-1", "kb-1", "some content here"), semanticKB("kb-1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")

	stored, err := f.vectors.GetChunksByKB(ctx, "kb-1")
	require.NoError(t, err)
	assert.Empty(t, stored)
	assert.Equal(t, 0, f.index.Len())
}

func TestProcessDocumentEmptyContent(t *testing.T) {
	f := newRAGFixture()

	chunks, err := f.rag.ProcessDocument(context.Background(), ragDoc("doc-1", "kb-1", ""), semanticKB("kb-1"))
	require.NoError(t, err)
	assert.Empty(t, chunks)
	assert.Equal(t, 0, f.embedder.batchCalls)
}

func TestProcessDocumentUnknownStrategy(t *testing.T) {
	f := newRAGFixture()
	kb := semanticKB("kb-1")
	kb.ChunkingStrategy = "recursive"

	_, err := f.rag.ProcessDocument(context.Background(), ragDoc("doc-1", "kb-1", "text"), kb)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestProcessDocumentUsesEmbedderFactory(t *testing.T) {
	chunks := newMemChunkStore()
	vectors := NewVectorStore(chunks, newMemIndex())
	defaultEmbedder := &fakeEmbedder{}
	kbEmbedder := &fakeEmbedder{}

	rag := NewRAGService(newFakeTokenizer(), defaultEmbedder, vectors,
		WithEmbedderFactory(func(kb *domain.KnowledgeBase) (driven.EmbeddingService, error) {
			return kbEmbedder, nil
		}))

	kb := semanticKB("kb-1")
	kb.EmbeddingProvider = "ollama"
	_, err := rag.ProcessDocument(context.Background(), ragDoc("doc-1", "kb-1", "alpha text"), kb)
	require.NoError(t, err)

	assert.Equal(t, 1, kbEmbedder.batchCalls)
	assert.Equal(t, 0, defaultEmbedder.batchCalls)
}

func TestSearchRanksAcrossKnowledgeBases(t *testing.T) {
	f := newRAGFixture()
	ctx := context.Background()

	// Distinct positions keep the shared index keys from colliding.
	require.NoError(t, f.vectors.AddChunksBatch(ctx, []domain.Chunk{
		storedChunk("a1", "kb-1", 0, []float32{1, 0, 0}),
		storedChunk("b1", "kb-1", 1, []float32{0, 1, 0}),
		storedChunk("a2", "kb-2", 2, []float32{0.95, 0.05, 0}),
	}))

	results, err := f.rag.Search(ctx, "alpha question", []string{"kb-1", "kb-2"}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "a1", results[0].Chunk.ID)
	assert.Equal(t, "a2", results[1].Chunk.ID)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.Equal(t, 1, f.embedder.embedCalls, "query embedded once")
}

func TestSearchWithoutKnowledgeBases(t *testing.T) {
	f := newRAGFixture()

	results, err := f.rag.Search(context.Background(), "anything", nil, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, f.embedder.embedCalls)
}

func TestAugmentQueryFormatsContext(t *testing.T) {
	f := newRAGFixture()
	ctx := context.Background()

	chunk := storedChunk("a1", "kb-1", 0, []float32{1, 0, 0})
	chunk.Content = "alpha facts live here"
	require.NoError(t, f.vectors.AddChunksBatch(ctx, []domain.Chunk{chunk}))

	augmented, err := f.rag.AugmentQuery(ctx, "alpha question", []string{"kb-1"}, 3)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(augmented, "# Relevant Context from Knowledge Base\n\n"))
	assert.Contains(t, augmented, fmt.Sprintf("[Source 1] (Relevance: %.2f)\nalpha facts live here", 1.0))
	assert.True(t, strings.HasSuffix(augmented, "\n\n---\n\n# User Query\n\nalpha question"))
}

func TestAugmentQueryPassthrough(t *testing.T) {
	f := newRAGFixture()
	ctx := context.Background()

	// No knowledge bases selected.
	augmented, err := f.rag.AugmentQuery(ctx, "plain question", nil, 3)
	require.NoError(t, err)
	assert.Equal(t, "plain question", augmented)

	// Knowledge base selected but empty.
	augmented, err = f.rag.AugmentQuery(ctx, "plain question", []string{"kb-empty"}, 3)
	require.NoError(t, err)
	assert.Equal(t, "plain question", augmented)
}

func TestGetStats(t *testing.T) {
	f := newRAGFixture()
	ctx := context.Background()

	c0 := storedChunk("c0", "kb-1", 0, []float32{1, 0, 0})
	c0.Tokens = 10
	c1 := storedChunk("c1", "kb-1", 1, []float32{0, 1, 0})
	c1.Tokens = 20
	c1.DocumentID = "doc-2"
	c2 := storedChunk("c2", "kb-1", 2, []float32{0, 0, 1})
	c2.Tokens = 33
	require.NoError(t, f.vectors.AddChunksBatch(ctx, []domain.Chunk{c0, c1, c2}))

	stats, err := f.rag.GetStats(ctx, "kb-1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalChunks)
	assert.Equal(t, 63, stats.TotalTokens)
	assert.Equal(t, 21, stats.AvgTokensPerChunk)
	assert.Equal(t, 2, stats.NumDocuments)
}

func TestGetStatsEmptyKnowledgeBase(t *testing.T) {
	f := newRAGFixture()

	stats, err := f.rag.GetStats(context.Background(), "kb-none")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalChunks)
	assert.Zero(t, stats.AvgTokensPerChunk)
}

func TestDeleteChunks(t *testing.T) {
	f := newRAGFixture()
	ctx := context.Background()

	require.NoError(t, f.vectors.AddChunksBatch(ctx, []domain.Chunk{
		storedChunk("c0", "kb-1", 0, []float32{1, 0, 0}),
	}))
	require.NoError(t, f.rag.DeleteChunks(ctx, "kb-1"))

	chunks, err := f.rag.GetChunks(ctx, "kb-1")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
