// Package cli implements the shannon command line interface on top of
// the knowledge engine services.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/GQAdonis/Shannon/internal/adapters/driven/config/file"
	"github.com/GQAdonis/Shannon/internal/adapters/driven/embedding"
	"github.com/GQAdonis/Shannon/internal/adapters/driven/index/hnsw"
	"github.com/GQAdonis/Shannon/internal/adapters/driven/storage/sqlite"
	"github.com/GQAdonis/Shannon/internal/adapters/driven/tokenizer/tiktoken"
	"github.com/GQAdonis/Shannon/internal/core/domain"
	"github.com/GQAdonis/Shannon/internal/core/ports/driven"
	"github.com/GQAdonis/Shannon/internal/core/services"
	"github.com/GQAdonis/Shannon/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var verbose bool

// ownedServices is true when initServices wired the real adapters, so
// closeServices knows it may release them. Tests inject their own.
var ownedServices bool

// Services wired by initServices. Commands nil-check these so the
// error surfaces where the dependency is actually used.
var (
	cfg              *file.Config
	store            *sqlite.Store
	vectorIndex      *hnsw.Index
	embedder         driven.EmbeddingService
	ragService       *services.RAGService
	knowledgeService *services.KnowledgeService
)

var rootCmd = &cobra.Command{
	Use:   "shannon",
	Short: "Local RAG knowledge engine",
	Long: `Shannon manages knowledge bases of chunked, embedded documents
and retrieves relevant context for language model prompts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return initServices()
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return closeServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func initServices() error {
	if knowledgeService != nil {
		return nil
	}

	// Missing .env files are fine; real config lives in config.toml.
	_ = godotenv.Load()

	var err error
	cfg, err = file.Load("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".shannon", "data")
	}

	store, err = sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	embedder, err = embedding.NewService(cfg.Embedding.Provider, cfg.Embedding.Model, embeddingOptions())
	if err != nil {
		return fmt.Errorf("creating embedding service: %w", err)
	}

	vectorIndex, err = hnsw.New(filepath.Join(dataDir, "vectors.hnsw"), embedder.Dimensions())
	if err != nil {
		return fmt.Errorf("opening vector index: %w", err)
	}

	vectors := services.NewVectorStore(store.ChunkStore(), vectorIndex)

	tok, err := tiktoken.New(tiktoken.DefaultEncoding)
	if err != nil {
		return fmt.Errorf("loading tokenizer: %w", err)
	}

	ragService = services.NewRAGService(tok, embedder, vectors,
		services.WithEmbedderFactory(func(kb *domain.KnowledgeBase) (driven.EmbeddingService, error) {
			return embedding.ForKnowledgeBase(kb, embeddingOptions())
		}))
	knowledgeService = services.NewKnowledgeService(store.KnowledgeBaseStore(), store.DocumentStore(), vectors, ragService)

	ownedServices = true
	logger.Debug("services initialised (data dir %s, embedder %s)", dataDir, embedder.ModelName())
	return nil
}

func embeddingOptions() embedding.Options {
	return embedding.Options{
		OpenAIAPIKey:  cfg.Embedding.OpenAIAPIKey,
		OpenAIBaseURL: cfg.Embedding.OpenAIBaseURL,
		OllamaBaseURL: cfg.Embedding.OllamaBaseURL,
		Dimensions:    cfg.Embedding.Dimensions,
	}
}

func closeServices() error {
	if !ownedServices {
		return nil
	}

	var firstErr error
	if vectorIndex != nil {
		if err := vectorIndex.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing vector index: %w", err)
		}
	}
	if embedder != nil {
		if err := embedder.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing embedding service: %w", err)
		}
	}
	if store != nil {
		if err := store.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing store: %w", err)
		}
	}
	return firstErr
}

// userID returns the configured user scope.
func userID() string {
	if cfg != nil && cfg.UserID != "" {
		return cfg.UserID
	}
	return file.DefaultUserID
}
