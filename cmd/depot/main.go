package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/depot/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "depot",
	Short:   "File upload, download and search service",
	Long: `depot stores file contents in an object store (local filesystem or S3)
and file metadata in a key-value store (SQLite, PostgreSQL, DynamoDB, Redis
or Bolt). It serves requests over HTTP or as an AWS Lambda function.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFiles, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		setupLogging(cfg.Log)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file paths, merged left to right (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "metadata backend: sqlite, postgres, dynamodb, redis, bolt (env: DEPOT_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "metadata connection string or file path (env: DEPOT_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("db-table", "", "metadata table, bucket or key prefix (env: DEPOT_DATABASE_TABLE)")
	rootCmd.PersistentFlags().String("storage-type", "", "object store: filesystem, s3 (env: DEPOT_STORAGE_TYPE)")
	rootCmd.PersistentFlags().String("storage-path", "", "filesystem storage directory (env: DEPOT_STORAGE_PATH)")
	rootCmd.PersistentFlags().String("bucket", "", "S3 bucket (env: DEPOT_STORAGE_BUCKET)")
	rootCmd.PersistentFlags().String("region", "", "AWS region (env: DEPOT_AWS_REGION)")
	rootCmd.PersistentFlags().String("endpoint", "", "AWS endpoint override, e.g. LocalStack (env: DEPOT_AWS_ENDPOINT)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: DEPOT_LOG_LEVEL)")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text, json (env: DEPOT_LOG_FORMAT)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
