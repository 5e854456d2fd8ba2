package domain

import (
	"fmt"
	"time"
)

// ChunkingStrategy identifies the algorithm used to split documents
// into chunks. It is fixed per knowledge base.
type ChunkingStrategy string

const (
	// StrategyFixedSize splits on a sliding token window with overlap.
	StrategyFixedSize ChunkingStrategy = "fixed_size"

	// StrategySemantic splits on paragraph and sentence boundaries
	// within configured size limits. This is the default.
	StrategySemantic ChunkingStrategy = "semantic"

	// StrategyStructureAware preserves fenced code blocks and tables
	// as intact chunks.
	StrategyStructureAware ChunkingStrategy = "structure_aware"

	// StrategyHierarchical produces parent chunks subdivided into
	// linked child chunks.
	StrategyHierarchical ChunkingStrategy = "hierarchical"
)

// ParseChunkingStrategy converts a string to a ChunkingStrategy.
func ParseChunkingStrategy(s string) (ChunkingStrategy, error) {
	switch ChunkingStrategy(s) {
	case StrategyFixedSize, StrategySemantic, StrategyStructureAware, StrategyHierarchical:
		return ChunkingStrategy(s), nil
	case "":
		return StrategySemantic, nil
	default:
		return "", fmt.Errorf("%w: unknown chunking strategy %q", ErrInvalidInput, s)
	}
}

// Default chunking parameters. A zero ChunkingConfig field means
// "use the default for the knowledge base's strategy".
const (
	DefaultChunkSize       = 768
	DefaultOverlapPercent  = 0.15
	DefaultMinChunkSize    = 256
	DefaultMaxChunkSize    = 1024
	DefaultParentChunkSize = 2048
	DefaultChildChunkSize  = 512
	DefaultMaxDepth        = 3
)

// ChunkingConfig holds parameters for all chunking strategies.
// All fields are optional; nil means the stated default.
type ChunkingConfig struct {
	// Fixed-size parameters.

	// ChunkSize is the window size in tokens (default 768).
	ChunkSize *int `json:"chunk_size,omitempty" toml:"chunk_size,omitempty"`

	// OverlapPercent is the fraction of ChunkSize shared between
	// consecutive windows (default 0.15).
	OverlapPercent *float64 `json:"overlap_percent,omitempty" toml:"overlap_percent,omitempty"`

	// Semantic parameters.

	// MinChunkSize is the smallest chunk flushed before end of input,
	// in tokens (default 256).
	MinChunkSize *int `json:"min_chunk_size,omitempty" toml:"min_chunk_size,omitempty"`

	// MaxChunkSize is the accumulation limit in tokens (default 1024).
	MaxChunkSize *int `json:"max_chunk_size,omitempty" toml:"max_chunk_size,omitempty"`

	// RespectSentences re-splits oversized paragraphs on sentence
	// boundaries (default true).
	RespectSentences *bool `json:"respect_sentences,omitempty" toml:"respect_sentences,omitempty"`

	// Structure-aware parameters.

	// PreserveCodeBlocks keeps fenced code blocks intact (default true).
	PreserveCodeBlocks *bool `json:"preserve_code_blocks,omitempty" toml:"preserve_code_blocks,omitempty"`

	// PreserveTables keeps pipe-delimited tables intact (default true).
	PreserveTables *bool `json:"preserve_tables,omitempty" toml:"preserve_tables,omitempty"`

	// PreserveLists keeps list blocks intact (default true).
	PreserveLists *bool `json:"preserve_lists,omitempty" toml:"preserve_lists,omitempty"`

	// Hierarchical parameters.

	// ParentChunkSize is the parent window in tokens (default 2048).
	ParentChunkSize *int `json:"parent_chunk_size,omitempty" toml:"parent_chunk_size,omitempty"`

	// ChildChunkSize is the child window in tokens (default 512).
	ChildChunkSize *int `json:"child_chunk_size,omitempty" toml:"child_chunk_size,omitempty"`

	// MaxDepth limits hierarchy depth; 1 disables children (default 3).
	MaxDepth *int `json:"max_depth,omitempty" toml:"max_depth,omitempty"`
}

// ChunkSizeOrDefault returns ChunkSize or the default.
func (c ChunkingConfig) ChunkSizeOrDefault() int {
	return intOrDefault(c.ChunkSize, DefaultChunkSize)
}

// OverlapPercentOrDefault returns OverlapPercent or the default.
func (c ChunkingConfig) OverlapPercentOrDefault() float64 {
	if c.OverlapPercent != nil {
		return *c.OverlapPercent
	}
	return DefaultOverlapPercent
}

// MinChunkSizeOrDefault returns MinChunkSize or the default.
func (c ChunkingConfig) MinChunkSizeOrDefault() int {
	return intOrDefault(c.MinChunkSize, DefaultMinChunkSize)
}

// MaxChunkSizeOrDefault returns MaxChunkSize or the default.
func (c ChunkingConfig) MaxChunkSizeOrDefault() int {
	return intOrDefault(c.MaxChunkSize, DefaultMaxChunkSize)
}

// PreserveCodeBlocksOrDefault returns PreserveCodeBlocks or true.
func (c ChunkingConfig) PreserveCodeBlocksOrDefault() bool {
	return boolOrDefault(c.PreserveCodeBlocks, true)
}

// PreserveTablesOrDefault returns PreserveTables or true.
func (c ChunkingConfig) PreserveTablesOrDefault() bool {
	return boolOrDefault(c.PreserveTables, true)
}

// PreserveListsOrDefault returns PreserveLists or true.
func (c ChunkingConfig) PreserveListsOrDefault() bool {
	return boolOrDefault(c.PreserveLists, true)
}

// ParentChunkSizeOrDefault returns ParentChunkSize or the default.
func (c ChunkingConfig) ParentChunkSizeOrDefault() int {
	return intOrDefault(c.ParentChunkSize, DefaultParentChunkSize)
}

// ChildChunkSizeOrDefault returns ChildChunkSize or the default.
func (c ChunkingConfig) ChildChunkSizeOrDefault() int {
	return intOrDefault(c.ChildChunkSize, DefaultChildChunkSize)
}

// MaxDepthOrDefault returns MaxDepth or the default.
func (c ChunkingConfig) MaxDepthOrDefault() int {
	return intOrDefault(c.MaxDepth, DefaultMaxDepth)
}

func intOrDefault(v *int, def int) int {
	if v != nil {
		return *v
	}
	return def
}

func boolOrDefault(v *bool, def bool) bool {
	if v != nil {
		return *v
	}
	return def
}

// KnowledgeBase is a named, owned collection of documents sharing one
// chunking policy and one embedding model.
//
// The embedding dimension is fixed for the knowledge base's lifetime:
// changing the provider or model requires re-embedding every chunk.
type KnowledgeBase struct {
	// ID is the unique identifier.
	ID string

	// UserID is the owning user (supplied by the shell; the engine
	// treats it as opaque).
	UserID string

	// Name is the human-readable name.
	Name string

	// Description is optional.
	Description string

	// ChunkingStrategy selects the chunking algorithm.
	ChunkingStrategy ChunkingStrategy

	// ChunkingConfig parameterizes the strategy.
	ChunkingConfig ChunkingConfig

	// EmbeddingProvider identifies the embedding backend ("openai",
	// "ollama").
	EmbeddingProvider string

	// EmbeddingModel is the model name for the provider.
	EmbeddingModel string

	// CreatedAt is when the knowledge base was created.
	CreatedAt time.Time

	// UpdatedAt is when the knowledge base was last modified.
	UpdatedAt time.Time
}

// KnowledgeBaseStats summarizes the stored chunks of one knowledge base.
type KnowledgeBaseStats struct {
	// TotalChunks is the number of stored chunks.
	TotalChunks int `json:"total_chunks"`

	// TotalTokens is the sum of per-chunk token counts.
	TotalTokens int `json:"total_tokens"`

	// AvgTokensPerChunk is TotalTokens / TotalChunks, truncated.
	AvgTokensPerChunk int `json:"avg_tokens_per_chunk"`

	// NumDocuments is the count of distinct documents among the chunks.
	NumDocuments int `json:"num_documents"`
}
