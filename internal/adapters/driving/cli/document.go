package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage ingested documents",
	Long:  `List or delete documents stored in a knowledge base.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list [kb-id]",
	Short: "List documents in a knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentList,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

func init() {
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, args []string) error {
	if store == nil {
		return errors.New("store not configured")
	}

	docs, err := store.DocumentStore().ListDocuments(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents.")
		return nil
	}

	cmd.Println(headerStyle.Render("Documents:"))
	cmd.Println()
	for i := range docs {
		cmd.Printf("  %s %s\n", headerStyle.Render(docs[i].Title), idStyle.Render(docs[i].ID))
		cmd.Printf("      %s %s  %s %d bytes\n",
			labelStyle.Render("type:"), docs[i].FileType,
			labelStyle.Render("size:"), docs[i].FileSize)
	}
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}

	if err := knowledgeService.DeleteDocument(context.Background(), args[0]); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	cmd.Printf("Deleted document %s\n", args[0])
	return nil
}
