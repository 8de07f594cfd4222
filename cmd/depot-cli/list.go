package main

import (
	"os"

	"github.com/sagarc03/depot/clientcli"
	"github.com/spf13/cobra"
)

var (
	listPrefix  string
	listMinSize int64
	listMaxSize int64
)

var listCmd = &cobra.Command{
	Use:   "list [prefix]",
	Short: "Search files by prefix or size",
	Long: `Search stored files. A prefix search takes precedence over a size
range. Results are capped by the server's search limit.

Examples:
  depot-cli list images/
  depot-cli list --min-size 1024
  depot-cli list --min-size 1024 --max-size 1048576`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listPrefix, "prefix", "", "filter by file id prefix")
	listCmd.Flags().Int64Var(&listMinSize, "min-size", 0, "minimum size in bytes")
	listCmd.Flags().Int64Var(&listMaxSize, "max-size", 0, "maximum size in bytes (0 = no limit)")
}

func runList(cmd *cobra.Command, args []string) error {
	prefix := listPrefix
	if len(args) > 0 {
		prefix = args[0]
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	result, err := client.List(cmd.Context(), clientcli.ListOptions{
		Prefix:  prefix,
		MinSize: listMinSize,
		MaxSize: listMaxSize,
	})
	if err != nil {
		return err
	}

	return getFormatter().FormatList(os.Stdout, result)
}
