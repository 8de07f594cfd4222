package main

import (
	"io"
	"os"

	"github.com/sagarc03/depot/clientcli"
	"github.com/spf13/cobra"
)

var (
	downloadOutput string
	downloadStdout bool
)

var downloadCmd = &cobra.Command{
	Use:   "download <file-id> [local-path]",
	Short: "Get a download link for a file",
	Long: `Request a time-limited download link and the file's metadata.

Without a local path only the link is printed. With a local path, -o or
--stdout the link is fetched as well.

Examples:
  depot-cli download a.jpg
  depot-cli download a.jpg ./a.jpg
  depot-cli download --stdout report.json | jq .
  curl -o a.jpg "$(depot-cli download -q a.jpg)"`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output file path")
	downloadCmd.Flags().BoolVar(&downloadStdout, "stdout", false, "write content to stdout")
}

func runDownload(cmd *cobra.Command, args []string) error {
	localPath := ""
	if len(args) > 1 {
		localPath = args[1]
	}
	if downloadOutput != "" {
		localPath = downloadOutput
	}
	if downloadStdout {
		localPath = "-"
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	result, content, err := client.Download(cmd.Context(), clientcli.DownloadOptions{
		FileID:    args[0],
		LocalPath: localPath,
	})
	if err != nil {
		return err
	}

	if content != nil {
		defer func() { _ = content.Close() }()
		if _, err := io.Copy(os.Stdout, content); err != nil {
			return err
		}
		if jsonOutput {
			return getFormatter().FormatDownload(os.Stderr, result)
		}
		return nil
	}

	return getFormatter().FormatDownload(os.Stdout, result)
}
