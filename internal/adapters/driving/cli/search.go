package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	searchKBs   []string
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search knowledge bases",
	Long: `Embeds the query and returns the most similar chunks across the
selected knowledge bases. Without --kb, all knowledge bases are searched.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringSliceVar(&searchKBs, "kb", nil, "knowledge base IDs to search (default all)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

// selectedKnowledgeBases resolves --kb, defaulting to every knowledge
// base owned by the configured user.
func selectedKnowledgeBases(ctx context.Context) ([]string, error) {
	if len(searchKBs) > 0 {
		return searchKBs, nil
	}

	kbs, err := knowledgeService.ListKnowledgeBases(ctx, userID())
	if err != nil {
		return nil, fmt.Errorf("listing knowledge bases: %w", err)
	}
	ids := make([]string, len(kbs))
	for i := range kbs {
		ids[i] = kbs[i].ID
	}
	return ids, nil
}

func resultLimit() int {
	if searchLimit > 0 {
		return searchLimit
	}
	return cfg.Search.Limit
}

func runSearch(cmd *cobra.Command, args []string) error {
	if ragService == nil || knowledgeService == nil {
		return errors.New("services not configured")
	}

	ctx := context.Background()
	kbIDs, err := selectedKnowledgeBases(ctx)
	if err != nil {
		return err
	}

	results, err := ragService.Search(ctx, args[0], kbIDs, resultLimit())
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println(headerStyle.Render("Results:"))
	cmd.Println()
	for i := range results {
		cmd.Printf("  [%d] %s %s\n", i+1,
			scoreStyle.Render(fmt.Sprintf("%.2f", results[i].Score)),
			idStyle.Render(results[i].Chunk.ID))
		cmd.Printf("      %s\n", snippet(results[i].Chunk.Content, 200))
		cmd.Println()
	}
	return nil
}

// snippet returns the first maxLen characters on a single line.
func snippet(content string, maxLen int) string {
	s := strings.Join(strings.Fields(content), " ")
	if len(s) > maxLen {
		s = s[:maxLen] + "..."
	}
	return s
}
