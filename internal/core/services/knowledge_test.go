package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GQAdonis/Shannon/internal/core/domain"
)

type knowledgeFixture struct {
	svc     *KnowledgeService
	rag     *RAGService
	vectors *VectorStore
	kbs     *memKBStore
	docs    *memDocStore
	index   *memIndex
}

func newKnowledgeFixture() *knowledgeFixture {
	chunks := newMemChunkStore()
	index := newMemIndex()
	vectors := NewVectorStore(chunks, index)
	rag := NewRAGService(newFakeTokenizer(), &fakeEmbedder{}, vectors)
	kbs := newMemKBStore()
	docs := newMemDocStore()
	return &knowledgeFixture{
		svc:     NewKnowledgeService(kbs, docs, vectors, rag),
		rag:     rag,
		vectors: vectors,
		kbs:     kbs,
		docs:    docs,
		index:   index,
	}
}

func TestCreateKnowledgeBaseDefaults(t *testing.T) {
	f := newKnowledgeFixture()

	kb, err := f.svc.CreateKnowledgeBase(context.Background(), domain.KnowledgeBase{
		UserID: "user-1",
		Name:   "notes",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, kb.ID)
	assert.Equal(t, domain.StrategySemantic, kb.ChunkingStrategy)

	got, err := f.svc.GetKnowledgeBase(context.Background(), kb.ID)
	require.NoError(t, err)
	assert.Equal(t, "notes", got.Name)
}

func TestCreateKnowledgeBaseValidation(t *testing.T) {
	f := newKnowledgeFixture()
	ctx := context.Background()

	_, err := f.svc.CreateKnowledgeBase(ctx, domain.KnowledgeBase{UserID: "user-1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.CreateKnowledgeBase(ctx, domain.KnowledgeBase{
		UserID:           "user-1",
		Name:             "notes",
		ChunkingStrategy: "recursive",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAddDocumentRunsIngestion(t *testing.T) {
	f := newKnowledgeFixture()
	ctx := context.Background()

	kb, err := f.svc.CreateKnowledgeBase(ctx, domain.KnowledgeBase{
		UserID: "user-1",
		Name:   "notes",
	})
	require.NoError(t, err)

	doc := &domain.Document{
		Title:     "alpha notes",
		Content:   "alpha content for the knowledge base",
		FileType:  "text/plain",
		Processor: domain.ProcessorNative,
	}
	chunks, err := f.svc.AddDocument(ctx, kb.ID, doc)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, kb.ID, doc.KnowledgeBaseID)
	assert.Equal(t, "user-1", doc.UserID)

	stored, err := f.docs.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "alpha notes", stored.Title)

	results, err := f.rag.Search(ctx, "alpha query", []string{kb.ID}, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestAddDocumentUnknownKnowledgeBase(t *testing.T) {
	f := newKnowledgeFixture()

	_, err := f.svc.AddDocument(context.Background(), "missing", &domain.Document{
		Title:   "doc",
		Content: "text",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteDocumentRemovesChunks(t *testing.T) {
	f := newKnowledgeFixture()
	ctx := context.Background()

	kb, err := f.svc.CreateKnowledgeBase(ctx, domain.KnowledgeBase{UserID: "user-1", Name: "notes"})
	require.NoError(t, err)

	doc := &domain.Document{Title: "doc", Content: "alpha content here"}
	_, err = f.svc.AddDocument(ctx, kb.ID, doc)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteDocument(ctx, doc.ID))

	_, err = f.docs.GetDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	chunks, err := f.rag.GetChunks(ctx, kb.ID)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	// Stale vectors stay indexed but no longer surface.
	assert.Greater(t, f.index.Len(), 0)
	results, err := f.rag.Search(ctx, "alpha content", []string{kb.ID}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDeleteDocumentNotFound(t *testing.T) {
	f := newKnowledgeFixture()
	err := f.svc.DeleteDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteKnowledgeBaseCascades(t *testing.T) {
	f := newKnowledgeFixture()
	ctx := context.Background()

	kb, err := f.svc.CreateKnowledgeBase(ctx, domain.KnowledgeBase{UserID: "user-1", Name: "notes"})
	require.NoError(t, err)

	_, err = f.svc.AddDocument(ctx, kb.ID, &domain.Document{Title: "doc", Content: "beta content"})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteKnowledgeBase(ctx, kb.ID))

	_, err = f.svc.GetKnowledgeBase(ctx, kb.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	chunks, err := f.rag.GetChunks(ctx, kb.ID)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestDeleteKnowledgeBaseNotFound(t *testing.T) {
	f := newKnowledgeFixture()
	err := f.svc.DeleteKnowledgeBase(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListKnowledgeBasesByUser(t *testing.T) {
	f := newKnowledgeFixture()
	ctx := context.Background()

	_, err := f.svc.CreateKnowledgeBase(ctx, domain.KnowledgeBase{UserID: "user-1", Name: "a"})
	require.NoError(t, err)
	_, err = f.svc.CreateKnowledgeBase(ctx, domain.KnowledgeBase{UserID: "user-1", Name: "b"})
	require.NoError(t, err)
	_, err = f.svc.CreateKnowledgeBase(ctx, domain.KnowledgeBase{UserID: "user-2", Name: "c"})
	require.NoError(t, err)

	kbs, err := f.svc.ListKnowledgeBases(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, kbs, 2)
}
