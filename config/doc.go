// Package config loads and validates depot settings.
//
// Settings come from four layers, each overriding the one before it:
// built-in defaults, YAML files (merged in the order given), DEPOT_
// environment variables and finally command-line flags. The merged result
// is checked with go-playground/validator before Load returns.
//
//	cfg, err := config.Load([]string{"depot.yaml"}, cmd.Flags())
//	if err != nil {
//	    return err
//	}
//	ctx = config.WithContext(ctx, cfg)
//
// Environment names are the dotted key upper-cased with dots replaced by
// underscores, so service.link_ttl is read from DEPOT_SERVICE_LINK_TTL and
// storage.bucket from DEPOT_STORAGE_BUCKET.
//
// Sections:
//   - server: listen port, upload limit and HTTP timeouts
//   - service: signed link lifetime and search result cap
//   - database: metadata backend, DSN, table and DynamoDB key attribute
//   - storage: object store, filesystem root or S3 bucket, signing key
//   - aws: region, endpoint override and static credentials
//   - cors: cross-origin settings for the HTTP server
//   - log: level and output format
package config
