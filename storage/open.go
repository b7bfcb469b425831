package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"healthstore/config"
)

// Open builds the Storage selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*Storage, error) {
	var (
		b   Backend
		err error
	)
	switch cfg.Driver {
	case config.DriverFile, "":
		b, err = OpenFile(cfg.Path)
	case config.DriverSQLite:
		b, err = OpenSQL(ctx, DialectSQLite, cfg.Path)
	case config.DriverPostgres:
		b, err = OpenSQL(ctx, DialectPostgres, cfg.DSN)
	case config.DriverMemory:
		b = NewMemory()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Driver, err)
	}
	return New(b, logger), nil
}
