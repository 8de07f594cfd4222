package main

import (
	"os"

	"github.com/sagarc03/depot/clientcli"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <file-id> [file-id...]",
	Short: "Delete files from the server",
	Long: `Delete one or more files. Both the blob and its metadata record are
removed. Remaining ids are still attempted when one fails.

Examples:
  depot-cli delete a.jpg
  depot-cli delete old/a.txt old/b.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	results, err := client.Delete(cmd.Context(), clientcli.DeleteOptions{FileIDs: args})
	if err != nil {
		return err
	}

	if err := getFormatter().FormatDelete(os.Stdout, results); err != nil {
		return err
	}

	if clientcli.HasDeleteErrors(results) {
		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
			}
		}
		return &exitError{failed: failed}
	}

	return nil
}
