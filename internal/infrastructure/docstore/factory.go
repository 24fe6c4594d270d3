// Package docstore picks the document store backend from configuration.
package docstore

import (
	"context"
	"fmt"

	"github.com/go-verify-bot/internal/application/verification"
	"github.com/go-verify-bot/internal/config"
	"github.com/go-verify-bot/internal/infrastructure/dynamo"
	"github.com/go-verify-bot/internal/infrastructure/jsondb"
	"go.uber.org/zap"
)

// Backend types accepted in DATABASE_TYPE.
const (
	TypeJSON   = "json"
	TypeDynamo = "dynamo"
)

type factory func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (verification.DocumentStore, error)

var registry = map[string]factory{
	TypeJSON: func(_ context.Context, cfg *config.Config, logger *zap.Logger) (verification.DocumentStore, error) {
		s, err := jsondb.New(cfg.Database.JSONPath)
		if err != nil {
			return nil, err
		}
		logger.Info("json database initialized", zap.String("path", cfg.Database.JSONPath))
		return s, nil
	},
	TypeDynamo: func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (verification.DocumentStore, error) {
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		tables := Tables(cfg.DynamoTables)
		dynamo.Bootstrap(ctx, client, tables, logger)
		return dynamo.NewDocumentStore(client, tables), nil
	},
}

// Tables maps collections to the configured DynamoDB tables.
func Tables(t config.DynamoTables) map[string]string {
	return map[string]string{
		verification.CollectionGuildConfigs: t.GuildConfigs,
		verification.CollectionPending:      t.PendingVerifications,
	}
}

// New returns the configured backend, or nil when persistence is disabled.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (verification.DocumentStore, error) {
	if !cfg.Database.Enabled {
		return nil, nil
	}
	create, ok := registry[cfg.Database.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported database type: %q", cfg.Database.Type)
	}
	return create(ctx, cfg, logger)
}
