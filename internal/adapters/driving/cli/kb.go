package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GQAdonis/Shannon/internal/core/domain"
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Manage knowledge bases",
	Long:  `Create, list, inspect, or delete knowledge bases.`,
}

var kbCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a knowledge base",
	Long: `Creates a knowledge base with a chunking strategy and an embedding
backend. Both are fixed for the knowledge base's lifetime.`,
	Args: cobra.ExactArgs(1),
	RunE: runKBCreate,
}

var kbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List knowledge bases",
	RunE:  runKBList,
}

var kbDeleteCmd = &cobra.Command{
	Use:   "delete [kb-id]",
	Short: "Delete a knowledge base and its documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runKBDelete,
}

var kbStatsCmd = &cobra.Command{
	Use:   "stats [kb-id]",
	Short: "Show chunk statistics for a knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE:  runKBStats,
}

var (
	kbDescription       string
	kbStrategy          string
	kbChunkSize         int
	kbOverlapPercent    float64
	kbMinChunkSize      int
	kbMaxChunkSize      int
	kbParentChunkSize   int
	kbChildChunkSize    int
	kbEmbeddingProvider string
	kbEmbeddingModel    string
)

func init() {
	kbCreateCmd.Flags().StringVarP(&kbDescription, "description", "d", "", "knowledge base description")
	kbCreateCmd.Flags().StringVarP(&kbStrategy, "strategy", "s", "", "chunking strategy (fixed_size, semantic, structure_aware, hierarchical)")
	kbCreateCmd.Flags().IntVar(&kbChunkSize, "chunk-size", 0, "fixed-size window in tokens")
	kbCreateCmd.Flags().Float64Var(&kbOverlapPercent, "overlap", 0, "fixed-size window overlap fraction")
	kbCreateCmd.Flags().IntVar(&kbMinChunkSize, "min-chunk-size", 0, "semantic minimum chunk size in tokens")
	kbCreateCmd.Flags().IntVar(&kbMaxChunkSize, "max-chunk-size", 0, "semantic maximum chunk size in tokens")
	kbCreateCmd.Flags().IntVar(&kbParentChunkSize, "parent-chunk-size", 0, "hierarchical parent size in tokens")
	kbCreateCmd.Flags().IntVar(&kbChildChunkSize, "child-chunk-size", 0, "hierarchical child size in tokens")
	kbCreateCmd.Flags().StringVar(&kbEmbeddingProvider, "embedding-provider", "", "embedding provider (openai, ollama)")
	kbCreateCmd.Flags().StringVar(&kbEmbeddingModel, "embedding-model", "", "embedding model name")

	kbCmd.AddCommand(kbCreateCmd)
	kbCmd.AddCommand(kbListCmd)
	kbCmd.AddCommand(kbDeleteCmd)
	kbCmd.AddCommand(kbStatsCmd)
	rootCmd.AddCommand(kbCmd)
}

func runKBCreate(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}

	strategy := kbStrategy
	if strategy == "" {
		strategy = cfg.DefaultStrategy
	}

	kb := domain.KnowledgeBase{
		UserID:            userID(),
		Name:              args[0],
		Description:       kbDescription,
		ChunkingStrategy:  domain.ChunkingStrategy(strategy),
		ChunkingConfig:    chunkingConfigFromFlags(cmd),
		EmbeddingProvider: kbEmbeddingProvider,
		EmbeddingModel:    kbEmbeddingModel,
	}

	created, err := knowledgeService.CreateKnowledgeBase(context.Background(), kb)
	if err != nil {
		return fmt.Errorf("creating knowledge base: %w", err)
	}

	cmd.Printf("Created knowledge base %s\n", headerStyle.Render(created.Name))
	cmd.Printf("  %s %s\n", labelStyle.Render("ID:"), created.ID)
	cmd.Printf("  %s %s\n", labelStyle.Render("Strategy:"), created.ChunkingStrategy)
	return nil
}

// chunkingConfigFromFlags fills only the fields whose flags were set,
// leaving the rest as strategy defaults.
func chunkingConfigFromFlags(cmd *cobra.Command) domain.ChunkingConfig {
	var c domain.ChunkingConfig
	if cmd.Flags().Changed("chunk-size") {
		c.ChunkSize = &kbChunkSize
	}
	if cmd.Flags().Changed("overlap") {
		c.OverlapPercent = &kbOverlapPercent
	}
	if cmd.Flags().Changed("min-chunk-size") {
		c.MinChunkSize = &kbMinChunkSize
	}
	if cmd.Flags().Changed("max-chunk-size") {
		c.MaxChunkSize = &kbMaxChunkSize
	}
	if cmd.Flags().Changed("parent-chunk-size") {
		c.ParentChunkSize = &kbParentChunkSize
	}
	if cmd.Flags().Changed("child-chunk-size") {
		c.ChildChunkSize = &kbChildChunkSize
	}
	return c
}

func runKBList(cmd *cobra.Command, _ []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}

	kbs, err := knowledgeService.ListKnowledgeBases(context.Background(), userID())
	if err != nil {
		return fmt.Errorf("listing knowledge bases: %w", err)
	}

	if len(kbs) == 0 {
		cmd.Println("No knowledge bases. Create one with: shannon kb create <name>")
		return nil
	}

	cmd.Println(headerStyle.Render("Knowledge bases:"))
	cmd.Println()
	for i := range kbs {
		cmd.Printf("  %s %s\n", headerStyle.Render(kbs[i].Name), idStyle.Render(kbs[i].ID))
		cmd.Printf("      %s %s", labelStyle.Render("strategy:"), kbs[i].ChunkingStrategy)
		if kbs[i].EmbeddingProvider != "" {
			cmd.Printf("  %s %s", labelStyle.Render("embedding:"), kbs[i].EmbeddingProvider)
		}
		cmd.Println()
		if kbs[i].Description != "" {
			cmd.Printf("      %s\n", kbs[i].Description)
		}
	}
	return nil
}

func runKBDelete(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}

	if err := knowledgeService.DeleteKnowledgeBase(context.Background(), args[0]); err != nil {
		return fmt.Errorf("deleting knowledge base: %w", err)
	}
	cmd.Printf("Deleted knowledge base %s\n", args[0])
	return nil
}

func runKBStats(cmd *cobra.Command, args []string) error {
	if ragService == nil || knowledgeService == nil {
		return errors.New("services not configured")
	}

	ctx := context.Background()
	kb, err := knowledgeService.GetKnowledgeBase(ctx, args[0])
	if err != nil {
		return fmt.Errorf("getting knowledge base: %w", err)
	}

	stats, err := ragService.GetStats(ctx, kb.ID)
	if err != nil {
		return fmt.Errorf("computing stats: %w", err)
	}

	cmd.Println(headerStyle.Render(kb.Name))
	cmd.Printf("  %s %d\n", labelStyle.Render("Documents:"), stats.NumDocuments)
	cmd.Printf("  %s %d\n", labelStyle.Render("Chunks:"), stats.TotalChunks)
	cmd.Printf("  %s %d\n", labelStyle.Render("Tokens:"), stats.TotalTokens)
	cmd.Printf("  %s %d\n", labelStyle.Render("Avg tokens/chunk:"), stats.AvgTokensPerChunk)

	idx := ragService.IndexStats()
	cmd.Println()
	cmd.Println(headerStyle.Render("Vector index (all knowledge bases):"))
	cmd.Printf("  %s %d\n", labelStyle.Render("Indexed vectors:"), idx.IndexedVectors)
	cmd.Printf("  %s %d\n", labelStyle.Render("Stale deletes:"), idx.StaleDeletes)
	cmd.Printf("  %s %d\n", labelStyle.Render("Dropped hits:"), idx.DroppedHits)
	return nil
}
