package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GQAdonis/Shannon/internal/processor"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [kb-id] [file...]",
	Short: "Add documents to a knowledge base",
	Long: `Extracts text from each file, chunks it with the knowledge base's
strategy, embeds the chunks, and stores them for retrieval.
Only plain text formats (txt, md, html) are supported.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}

	ctx := context.Background()
	kbID := args[0]
	proc := processor.NewNative()

	var failed int
	for _, path := range args[1:] {
		processed, err := proc.Process(path)
		if err != nil {
			cmd.PrintErrf("  %s: %v\n", path, err)
			failed++
			continue
		}

		doc := processed.ToDocument(userID(), kbID)
		chunks, err := knowledgeService.AddDocument(ctx, kbID, doc)
		if err != nil {
			cmd.PrintErrf("  %s: %v\n", path, err)
			failed++
			continue
		}

		cmd.Printf("  %s %s (%d chunks)\n", headerStyle.Render(doc.Title), idStyle.Render(doc.ID), len(chunks))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args)-1)
	}
	return nil
}
