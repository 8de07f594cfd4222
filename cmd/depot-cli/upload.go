package main

import (
	"os"

	"github.com/sagarc03/depot/clientcli"
	"github.com/spf13/cobra"
)

var (
	uploadRecursive bool
	uploadMetadata  string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path> [file-id]",
	Short: "Upload files to the server",
	Long: `Upload a file under a file id. The id defaults to the local path with
leading "./", "/" and ".." segments removed. Recursive uploads treat the id
as a prefix.

Examples:
  depot-cli upload ./a.jpg
  depot-cli upload ./a.jpg images/a.jpg --metadata '{"w":100}'
  depot-cli upload -r ./photos/ backup/photos`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVarP(&uploadRecursive, "recursive", "r", false, "upload directory recursively")
	uploadCmd.Flags().StringVarP(&uploadMetadata, "metadata", "m", "", "JSON metadata stored with the file")
}

func runUpload(cmd *cobra.Command, args []string) error {
	localPath := args[0]

	fileID := ""
	if len(args) > 1 {
		fileID = args[1]
	} else if !uploadRecursive {
		fileID = clientcli.NormalizeLocalToRemotePath(localPath)
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	results, err := client.Upload(cmd.Context(), clientcli.UploadOptions{
		LocalPath: localPath,
		FileID:    fileID,
		Metadata:  uploadMetadata,
		Recursive: uploadRecursive,
	})
	if err != nil {
		return err
	}

	if err := getFormatter().FormatUpload(os.Stdout, results); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return &exitError{failed: failed}
	}

	return nil
}
