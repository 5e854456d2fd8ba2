package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var augmentCmd = &cobra.Command{
	Use:   "augment [query]",
	Short: "Build a context-augmented prompt",
	Long: `Searches the selected knowledge bases and prints the query prefixed
with the retrieved context, ready to paste into a language model prompt.
With no relevant context the query is printed unchanged.`,
	Args: cobra.ExactArgs(1),
	RunE: runAugment,
}

func init() {
	augmentCmd.Flags().StringSliceVar(&searchKBs, "kb", nil, "knowledge base IDs to search (default all)")
	augmentCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of context chunks")
	rootCmd.AddCommand(augmentCmd)
}

func runAugment(cmd *cobra.Command, args []string) error {
	if ragService == nil || knowledgeService == nil {
		return errors.New("services not configured")
	}

	ctx := context.Background()
	kbIDs, err := selectedKnowledgeBases(ctx)
	if err != nil {
		return err
	}

	augmented, err := ragService.AugmentQuery(ctx, args[0], kbIDs, resultLimit())
	if err != nil {
		return fmt.Errorf("augmenting query: %w", err)
	}

	cmd.Println(augmented)
	return nil
}
