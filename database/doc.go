// Package database connects depot to a metadata backend.
//
// # Supported Backends
//
//   - sqlite: modernc.org/sqlite, suitable for development and single-node deployments
//   - postgres: pgx connection pool, metadata in a JSONB column
//   - dynamodb: an existing DynamoDB table keyed by a string partition key
//   - redis: JSON documents under a key prefix
//   - bolt: an embedded BoltDB file, one bucket
//
// # Usage
//
//	db, err := database.Connect(ctx, database.Config{
//	    Type:  "sqlite",
//	    DSN:   "depot.db",
//	    Table: "depot_files",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	store := db.GetStore()
//
// Connect does not create tables. SQL backends need Migrate (or the
// "depot migrate" command) before first use; the other backends either have
// no schema or are provisioned with the deployment.
package database
