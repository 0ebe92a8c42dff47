// Package factory builds the journal backend named in the configuration.
package factory

import (
	"fmt"

	"github.com/SmartTank/extension/internal/config"
	"github.com/SmartTank/extension/internal/influx"
	"github.com/SmartTank/extension/internal/storage"
	gormstorage "github.com/SmartTank/extension/internal/storage/gorm"
	influxstorage "github.com/SmartTank/extension/internal/storage/influx"
	"github.com/SmartTank/extension/internal/storage/memory"
	sqlitestorage "github.com/SmartTank/extension/internal/storage/sqlite"
	"github.com/rs/zerolog"
)

// NewBackend creates a storage backend based on configuration. The backend is not initialized.
func NewBackend(cfg config.JournalConfig, log zerolog.Logger) (storage.Backend, error) {
	switch cfg.Type {
	case "memory", "":
		return memory.New(cfg.Memory), nil
	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{
			FlushInterval: cfg.FlushInterval,
			DumpInterval:  cfg.SQLite.DumpInterval,
			DumpPath:      cfg.SQLite.Path,
		}, log)
	case "postgres":
		return gormstorage.New(gormstorage.Dependencies{
			Logger:        log,
			FlushInterval: cfg.FlushInterval,
		}), nil
	case "influx":
		mgr := influx.NewManager(log, cfg.Influx.Bucket, cfg.Influx.BackupPath)
		return influxstorage.New(mgr, mgr.Bucket()), nil
	case "none":
		return storage.Discard{}, nil
	default:
		return nil, fmt.Errorf("unknown journal type: %s", cfg.Type)
	}
}
