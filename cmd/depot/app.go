package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/sagarc03/depot"
	"github.com/sagarc03/depot/config"
	"github.com/sagarc03/depot/database"
	"github.com/sagarc03/depot/objectstore/filesystem"
	s3store "github.com/sagarc03/depot/objectstore/s3"
)

// linkAccessKey names the credential in filesystem download links.
const linkAccessKey = "depot"

// app holds the long-lived handles built once at start up.
type app struct {
	db      database.Database
	service *depot.FileService

	// Set only for filesystem storage.
	blobs  *filesystem.Store
	signer *depot.LinkSigner

	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	var awsCfg aws.Config
	if cfg.Storage.Type == "s3" || cfg.Database.Type == database.TypeDynamoDB {
		var err error
		awsCfg, err = loadAWSConfig(ctx, cfg.AWS)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
	}

	db, err := openDatabase(ctx, cfg.Database, awsCfg)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, db.Close)
	slog.Info("connected to database", "type", cfg.Database.Type, "table", cfg.Database.Table)

	objects, err := a.openObjectStore(cfg, awsCfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	slog.Info("opened object store", "type", cfg.Storage.Type)

	a.service, err = depot.NewFileService(objects, db.GetStore(), depot.ServiceConfig{
		LinkTTL:     cfg.Service.LinkTTLDuration(),
		SearchLimit: cfg.Service.SearchLimit,
	})
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("create service: %w", err)
	}

	return a, nil
}

// Close releases handles in reverse order of creation.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig, awsCfg aws.Config) (database.Database, error) {
	db, err := database.Connect(ctx, database.Config{
		Type:         cfg.Type,
		DSN:          cfg.DSN,
		Table:        cfg.Table,
		KeyAttribute: cfg.KeyAttribute,
		AWS:          awsCfg,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err = db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if cfg.AutoMigrate {
		if err = db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		slog.Info("database migration complete")
	}

	if err = db.Validate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("validate database schema: %w", err)
	}

	return db, nil
}

func (a *app) openObjectStore(cfg *config.Config, awsCfg aws.Config) (depot.ObjectStore, error) {
	switch cfg.Storage.Type {
	case "s3":
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.UsePathStyle = cfg.AWS.UsePathStyle
		})
		return s3store.New(client, cfg.Storage.Bucket), nil

	case "filesystem":
		if err := os.MkdirAll(cfg.Storage.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}

		root, err := os.OpenRoot(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("open storage root: %w", err)
		}
		a.closers = append(a.closers, root.Close)

		secret := cfg.Storage.SigningKey
		if secret == "" {
			secret = rand.Text()
			slog.Warn("storage.signing_key not set, download links will not survive a restart")
		}

		a.signer = depot.NewLinkSigner(linkAccessKey, secret, cfg.AWS.Region)
		a.blobs = filesystem.New(root, a.signer, cfg.Storage.PublicURL)
		return a.blobs, nil

	default:
		return nil, fmt.Errorf("unsupported storage type: %q", cfg.Storage.Type)
	}
}

// loadAWSConfig builds the SDK config from the default chain, overridden by
// explicit region, endpoint and static credentials when configured.
func loadAWSConfig(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	if cfg.Endpoint != "" {
		opts = append(opts, awsconfig.WithBaseEndpoint(cfg.Endpoint))
	}

	return awsconfig.LoadDefaultConfig(ctx, opts...)
}
