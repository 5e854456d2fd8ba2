package services

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/GQAdonis/Shannon/internal/core/domain"
	"github.com/GQAdonis/Shannon/internal/core/ports/driven"
)

// ==================== Tokenizer ====================

// fakeTokenizer treats each whitespace-separated word as one token.
type fakeTokenizer struct {
	mu    sync.Mutex
	vocab map[string]int
	words []string
}

func newFakeTokenizer() *fakeTokenizer {
	return &fakeTokenizer{vocab: make(map[string]int)}
}

func (t *fakeTokenizer) Count(text string) (int, error) {
	return len(strings.Fields(text)), nil
}

func (t *fakeTokenizer) Encode(text string) ([]int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fields := strings.Fields(text)
	ids := make([]int, len(fields))
	for i, w := range fields {
		id, ok := t.vocab[w]
		if !ok {
			id = len(t.words)
			t.vocab[w] = id
			t.words = append(t.words, w)
		}
		ids[i] = id
	}
	return ids, nil
}

func (t *fakeTokenizer) Decode(tokens []int) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	words := make([]string, len(tokens))
	for i, id := range tokens {
		words[i] = t.words[id]
	}
	return strings.Join(words, " "), nil
}

// ==================== Embedding service ====================

// fakeEmbedder maps marker words to fixed unit vectors so tests can
// reason about similarity: "alpha" -> x axis, "beta" -> y axis,
// anything else -> z axis.
type fakeEmbedder struct {
	mu         sync.Mutex
	batchCalls int
	embedCalls int
	failWith   error
}

var _ driven.EmbeddingService = (*fakeEmbedder)(nil)

func (e *fakeEmbedder) vector(text string) []float32 {
	switch {
	case strings.Contains(text, "alpha"):
		return []float32{1, 0, 0}
	case strings.Contains(text, "beta"):
		return []float32{0, 1, 0}
	default:
		return []float32{0, 0, 1}
	}
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failWith != nil {
		return nil, e.failWith
	}
	e.embedCalls++
	return e.vector(text), nil
}

func (e *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failWith != nil {
		return nil, e.failWith
	}
	e.batchCalls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.vector(text)
	}
	return out, nil
}

func (e *fakeEmbedder) Dimensions() int   { return 3 }
func (e *fakeEmbedder) ModelName() string { return "fake-embed" }
func (e *fakeEmbedder) Close() error      { return nil }

// ==================== Vector index ====================

// memIndex is a brute-force cosine index.
type memIndex struct {
	mu      sync.RWMutex
	vectors map[int][]float32
}

var _ driven.VectorIndex = (*memIndex)(nil)

func newMemIndex() *memIndex {
	return &memIndex{vectors: make(map[int][]float32)}
}

func (m *memIndex) Add(_ context.Context, position int, embedding []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors[position] = append([]float32(nil), embedding...)
	return nil
}

func (m *memIndex) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := make([]driven.VectorHit, 0, len(m.vectors))
	for position, vec := range m.vectors {
		hits = append(hits, driven.VectorHit{
			Position: position,
			Distance: cosineDistance(query, vec),
		})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *memIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}

func (m *memIndex) Close() error { return nil }

func cosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// ==================== Chunk store ====================

type memChunkStore struct {
	mu     sync.Mutex
	chunks []domain.Chunk
}

var _ driven.ChunkStore = (*memChunkStore)(nil)

func newMemChunkStore() *memChunkStore {
	return &memChunkStore{}
}

func (m *memChunkStore) SaveChunk(ctx context.Context, chunk domain.Chunk) error {
	return m.SaveChunks(ctx, []domain.Chunk{chunk})
}

func (m *memChunkStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = append(m.chunks, chunks...)
	return nil
}

func (m *memChunkStore) GetChunkByPosition(_ context.Context, knowledgeBaseID string, position int) (*domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.chunks {
		if c.KnowledgeBaseID == knowledgeBaseID && c.Position == position {
			chunk := c
			return &chunk, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memChunkStore) GetChunksByKB(_ context.Context, knowledgeBaseID string) ([]domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Chunk
	for _, c := range m.chunks {
		if c.KnowledgeBaseID == knowledgeBaseID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *memChunkStore) DeleteChunksByKB(_ context.Context, knowledgeBaseID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteWhere(func(c domain.Chunk) bool { return c.KnowledgeBaseID == knowledgeBaseID }), nil
}

func (m *memChunkStore) DeleteChunksByDocument(_ context.Context, documentID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteWhere(func(c domain.Chunk) bool { return c.DocumentID == documentID }), nil
}

func (m *memChunkStore) deleteWhere(match func(domain.Chunk) bool) int {
	kept := m.chunks[:0]
	deleted := 0
	for _, c := range m.chunks {
		if match(c) {
			deleted++
			continue
		}
		kept = append(kept, c)
	}
	m.chunks = kept
	return deleted
}

// ==================== Knowledge base / document stores ====================

type memKBStore struct {
	mu  sync.Mutex
	kbs map[string]domain.KnowledgeBase
}

var _ driven.KnowledgeBaseStore = (*memKBStore)(nil)

func newMemKBStore() *memKBStore {
	return &memKBStore{kbs: make(map[string]domain.KnowledgeBase)}
}

func (m *memKBStore) Save(_ context.Context, kb domain.KnowledgeBase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kbs[kb.ID] = kb
	return nil
}

func (m *memKBStore) Get(_ context.Context, id string) (*domain.KnowledgeBase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kb, ok := m.kbs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &kb, nil
}

func (m *memKBStore) List(_ context.Context, userID string) ([]domain.KnowledgeBase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.KnowledgeBase
	for _, kb := range m.kbs {
		if kb.UserID == userID {
			out = append(out, kb)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memKBStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.kbs, id)
	return nil
}

type memDocStore struct {
	mu   sync.Mutex
	docs map[string]domain.Document
}

var _ driven.DocumentStore = (*memDocStore)(nil)

func newMemDocStore() *memDocStore {
	return &memDocStore{docs: make(map[string]domain.Document)}
}

func (m *memDocStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = *doc
	return nil
}

func (m *memDocStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

func (m *memDocStore) ListDocuments(_ context.Context, knowledgeBaseID string) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Document
	for _, doc := range m.docs {
		if doc.KnowledgeBaseID == knowledgeBaseID {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (m *memDocStore) DeleteDocument(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}
