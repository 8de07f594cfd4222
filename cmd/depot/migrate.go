package main

import (
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/spf13/cobra"

	"github.com/sagarc03/depot/config"
	"github.com/sagarc03/depot/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create and validate the metadata schema",
	Long: `Create the metadata table (SQL backends) or bucket (Bolt) if it does
not exist, then validate the schema against what depot expects.

DynamoDB tables and Redis are provisioned outside depot. For those backends
migrate only checks connectivity and the table key schema.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().Bool("validate-only", false, "only validate the existing schema")

	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	validateOnly, _ := cmd.Flags().GetBool("validate-only")

	var awsCfg aws.Config
	if cfg.Database.Type == database.TypeDynamoDB {
		awsCfg, err = loadAWSConfig(ctx, cfg.AWS)
		if err != nil {
			return fmt.Errorf("load aws config: %w", err)
		}
	}

	dbCfg := cfg.Database
	dbCfg.AutoMigrate = !validateOnly

	db, err := openDatabase(ctx, dbCfg, awsCfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	slog.Info("schema is valid",
		"type", dbCfg.Type,
		"table", dbCfg.Table,
		"migrated", migrated(dbCfg),
	)
	return nil
}

// migrated reports whether opening the database created its schema.
func migrated(cfg config.DatabaseConfig) bool {
	return cfg.AutoMigrate && database.HasSchema(cfg.Type)
}
