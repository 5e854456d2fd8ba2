// Package sqlite implements the relational half of the hybrid store:
// knowledge bases, documents, and chunk rows live in a single SQLite
// database. Embeddings are stored alongside chunk rows as blobs so a
// vector index can be rebuilt, but similarity search itself runs
// against the separate HNSW index.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/GQAdonis/Shannon/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/GQAdonis/Shannon/internal/core/domain"
	"github.com/GQAdonis/Shannon/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to all
// metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.shannon/data/knowledge.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".shannon", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "knowledge.db")

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// KnowledgeBaseStore returns a KnowledgeBaseStore backed by this store.
func (s *Store) KnowledgeBaseStore() driven.KnowledgeBaseStore {
	return &knowledgeBaseStore{store: s}
}

// DocumentStore returns a DocumentStore backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// ChunkStore returns a ChunkStore backed by this store.
func (s *Store) ChunkStore() driven.ChunkStore {
	return &chunkStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Knowledge Base Store ====================

type knowledgeBaseStore struct {
	store *Store
}

var _ driven.KnowledgeBaseStore = (*knowledgeBaseStore)(nil)

// Save stores or updates a knowledge base.
func (s *knowledgeBaseStore) Save(ctx context.Context, kb domain.KnowledgeBase) error {
	configJSON, err := json.Marshal(kb.ChunkingConfig)
	if err != nil {
		return fmt.Errorf("marshalling chunking config: %w", err)
	}

	now := time.Now().UTC()
	if kb.CreatedAt.IsZero() {
		kb.CreatedAt = now
	}
	kb.UpdatedAt = now

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO knowledge_bases (id, user_id, name, description, chunking_strategy, chunking_config,
			embedding_provider, embedding_model, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			name = excluded.name,
			description = excluded.description,
			chunking_strategy = excluded.chunking_strategy,
			chunking_config = excluded.chunking_config,
			embedding_provider = excluded.embedding_provider,
			embedding_model = excluded.embedding_model,
			updated_at = excluded.updated_at
	`, kb.ID, kb.UserID, kb.Name, kb.Description, string(kb.ChunkingStrategy), string(configJSON),
		kb.EmbeddingProvider, kb.EmbeddingModel, kb.CreatedAt, kb.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving knowledge base: %w", err)
	}
	return nil
}

// Get retrieves a knowledge base by ID.
func (s *knowledgeBaseStore) Get(ctx context.Context, id string) (*domain.KnowledgeBase, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, description, chunking_strategy, chunking_config,
			embedding_provider, embedding_model, created_at, updated_at
		FROM knowledge_bases WHERE id = ?
	`, id)

	return scanKnowledgeBase(row)
}

// List returns all knowledge bases for a user.
func (s *knowledgeBaseStore) List(ctx context.Context, userID string) ([]domain.KnowledgeBase, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, user_id, name, description, chunking_strategy, chunking_config,
			embedding_provider, embedding_model, created_at, updated_at
		FROM knowledge_bases WHERE user_id = ?
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying knowledge bases: %w", err)
	}
	defer rows.Close()

	var kbs []domain.KnowledgeBase //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			kb         domain.KnowledgeBase
			strategy   string
			configJSON string
		)
		if err := rows.Scan(&kb.ID, &kb.UserID, &kb.Name, &kb.Description, &strategy, &configJSON,
			&kb.EmbeddingProvider, &kb.EmbeddingModel, &kb.CreatedAt, &kb.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning knowledge base: %w", err)
		}
		kb.ChunkingStrategy = domain.ChunkingStrategy(strategy)
		if err := json.Unmarshal([]byte(configJSON), &kb.ChunkingConfig); err != nil {
			return nil, fmt.Errorf("unmarshaling chunking config: %w", err)
		}
		kbs = append(kbs, kb)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating knowledge bases: %w", err)
	}
	return kbs, nil
}

// Delete removes a knowledge base. Documents and chunks cascade.
func (s *knowledgeBaseStore) Delete(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM knowledge_bases WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting knowledge base: %w", err)
	}
	return nil
}

// ==================== Document Store ====================

type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument stores or updates a document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, user_id, knowledge_base_id, title, content, file_type, file_size,
			processor, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			knowledge_base_id = excluded.knowledge_base_id,
			title = excluded.title,
			content = excluded.content,
			file_type = excluded.file_type,
			file_size = excluded.file_size,
			processor = excluded.processor,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, doc.ID, doc.UserID, doc.KnowledgeBaseID, doc.Title, doc.Content, doc.FileType, doc.FileSize,
		string(doc.Processor), string(metadataJSON), doc.CreatedAt, doc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, user_id, knowledge_base_id, title, content, file_type, file_size,
			processor, metadata, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)

	return scanDocument(row)
}

// ListDocuments returns documents for a knowledge base.
func (s *documentStore) ListDocuments(ctx context.Context, knowledgeBaseID string) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, user_id, knowledge_base_id, title, content, file_type, file_size,
			processor, metadata, created_at, updated_at
		FROM documents WHERE knowledge_base_id = ?
		ORDER BY created_at
	`, knowledgeBaseID)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			doc          domain.Document
			processor    string
			metadataJSON string
		)
		if err := rows.Scan(&doc.ID, &doc.UserID, &doc.KnowledgeBaseID, &doc.Title, &doc.Content,
			&doc.FileType, &doc.FileSize, &processor, &metadataJSON, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		doc.Processor = domain.ProcessorType(processor)
		if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document. Its chunks cascade.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ==================== Chunk Store ====================

type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

// SaveChunk inserts a single chunk row.
func (s *chunkStore) SaveChunk(ctx context.Context, chunk domain.Chunk) error {
	return s.SaveChunks(ctx, []domain.Chunk{chunk})
}

// SaveChunks inserts chunk rows in one transaction.
func (s *chunkStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, knowledge_base_id, content, embedding, tokens,
			position, parent_chunk_id, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			knowledge_base_id = excluded.knowledge_base_id,
			content = excluded.content,
			embedding = excluded.embedding,
			tokens = excluded.tokens,
			position = excluded.position,
			parent_chunk_id = excluded.parent_chunk_id,
			metadata = excluded.metadata
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}

		embeddingBlob := float32SliceToBytes(chunk.Embedding)

		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.KnowledgeBaseID,
			chunk.Content, embeddingBlob, chunk.Tokens, chunk.Position,
			chunk.ParentChunkID, string(metadataJSON), chunk.CreatedAt); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunkByPosition retrieves the chunk at a position within a
// knowledge base.
func (s *chunkStore) GetChunkByPosition(ctx context.Context, knowledgeBaseID string, position int) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_id, knowledge_base_id, content, embedding, tokens,
			position, parent_chunk_id, metadata, created_at
		FROM chunks WHERE knowledge_base_id = ? AND position = ?
	`, knowledgeBaseID, position)

	chunk, err := scanChunk(row)
	if err != nil {
		return nil, err
	}
	return chunk, nil
}

// GetChunksByKB returns all chunks for a knowledge base in position
// order.
func (s *chunkStore) GetChunksByKB(ctx context.Context, knowledgeBaseID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, knowledge_base_id, content, embedding, tokens,
			position, parent_chunk_id, metadata, created_at
		FROM chunks WHERE knowledge_base_id = ?
		ORDER BY position
	`, knowledgeBaseID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunkRows(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// DeleteChunksByKB removes all chunk rows for a knowledge base.
func (s *chunkStore) DeleteChunksByKB(ctx context.Context, knowledgeBaseID string) (int, error) {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM chunks WHERE knowledge_base_id = ?", knowledgeBaseID)
	if err != nil {
		return 0, fmt.Errorf("deleting chunks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted chunks: %w", err)
	}
	return int(n), nil
}

// DeleteChunksByDocument removes all chunk rows for a document.
func (s *chunkStore) DeleteChunksByDocument(ctx context.Context, documentID string) (int, error) {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID)
	if err != nil {
		return 0, fmt.Errorf("deleting chunks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted chunks: %w", err)
	}
	return int(n), nil
}

// ==================== Helpers ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// scanKnowledgeBase scans a single knowledge base row.
func scanKnowledgeBase(row *sql.Row) (*domain.KnowledgeBase, error) {
	var (
		kb         domain.KnowledgeBase
		strategy   string
		configJSON string
	)
	if err := row.Scan(&kb.ID, &kb.UserID, &kb.Name, &kb.Description, &strategy, &configJSON,
		&kb.EmbeddingProvider, &kb.EmbeddingModel, &kb.CreatedAt, &kb.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning knowledge base: %w", err)
	}
	kb.ChunkingStrategy = domain.ChunkingStrategy(strategy)
	if err := json.Unmarshal([]byte(configJSON), &kb.ChunkingConfig); err != nil {
		return nil, fmt.Errorf("unmarshaling chunking config: %w", err)
	}
	return &kb, nil
}

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var (
		doc          domain.Document
		processor    string
		metadataJSON string
	)
	if err := row.Scan(&doc.ID, &doc.UserID, &doc.KnowledgeBaseID, &doc.Title, &doc.Content,
		&doc.FileType, &doc.FileSize, &processor, &metadataJSON, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	doc.Processor = domain.ProcessorType(processor)
	if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshaling metadata: %w", err)
	}
	return &doc, nil
}

// scanChunk scans a single chunk row.
func scanChunk(row *sql.Row) (*domain.Chunk, error) {
	var (
		chunk         domain.Chunk
		embeddingBlob []byte
		parentChunkID sql.NullString
		metadataJSON  string
	)
	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.KnowledgeBaseID, &chunk.Content,
		&embeddingBlob, &chunk.Tokens, &chunk.Position, &parentChunkID, &metadataJSON,
		&chunk.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	return finishChunk(chunk, embeddingBlob, parentChunkID, metadataJSON)
}

// scanChunkRows scans a chunk from a multi-row result set.
func scanChunkRows(rows *sql.Rows) (*domain.Chunk, error) {
	var (
		chunk         domain.Chunk
		embeddingBlob []byte
		parentChunkID sql.NullString
		metadataJSON  string
	)
	if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.KnowledgeBaseID, &chunk.Content,
		&embeddingBlob, &chunk.Tokens, &chunk.Position, &parentChunkID, &metadataJSON,
		&chunk.CreatedAt); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	return finishChunk(chunk, embeddingBlob, parentChunkID, metadataJSON)
}

func finishChunk(chunk domain.Chunk, embeddingBlob []byte, parentChunkID sql.NullString, metadataJSON string) (*domain.Chunk, error) {
	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
	if parentChunkID.Valid {
		chunk.ParentChunkID = &parentChunkID.String
	}
	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
		}
	}
	return &chunk, nil
}
