// Package store persists analysis records.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nilesh-r/jobsense/internal/analysis"
)

const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

// ErrNotFound is returned when no analysis has the requested ID.
var ErrNotFound = errors.New("analysis not found")

// Store saves and loads analyses. List returns the newest first.
type Store interface {
	analysis.Repository
	Close() error
}

// Config selects and configures a driver.
type Config struct {
	Driver      string `mapstructure:"driver"`
	Path        string `mapstructure:"path"`
	DatabaseURL string `mapstructure:"database-url"`
}

// Open returns the store for cfg.Driver. The "none" driver returns a nil Store.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch driver := strings.ToLower(strings.TrimSpace(cfg.Driver)); driver {
	case "", DriverFile:
		fs := NewFileStore(cfg.Path)
		logger.Debug("using file store", zap.String("path", fs.Path()))
		return fs, nil
	case DriverPostgres:
		pg, err := Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		logger.Debug("using postgres store")
		return pg, nil
	case DriverNone:
		logger.Debug("persistence disabled")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q (supported: %s, %s, %s)", driver, DriverFile, DriverPostgres, DriverNone)
	}
}
