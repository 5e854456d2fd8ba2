package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var chunksFull bool

var chunksCmd = &cobra.Command{
	Use:   "chunks [kb-id]",
	Short: "List chunks in a knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE:  runChunks,
}

func init() {
	chunksCmd.Flags().BoolVar(&chunksFull, "full", false, "print full chunk content")
	rootCmd.AddCommand(chunksCmd)
}

func runChunks(cmd *cobra.Command, args []string) error {
	if ragService == nil {
		return errors.New("rag service not configured")
	}

	chunks, err := ragService.GetChunks(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("listing chunks: %w", err)
	}

	if len(chunks) == 0 {
		cmd.Println("No chunks.")
		return nil
	}

	for i := range chunks {
		cmd.Printf("%s %s %s\n",
			headerStyle.Render(fmt.Sprintf("[%d]", chunks[i].Position)),
			idStyle.Render(chunks[i].ID),
			labelStyle.Render(fmt.Sprintf("%d tokens", chunks[i].Tokens)))
		if chunksFull {
			cmd.Println(chunks[i].Content)
		} else {
			cmd.Printf("  %s\n", snippet(chunks[i].Content, 120))
		}
	}
	return nil
}
