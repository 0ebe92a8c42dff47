package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/SmartTank/extension/internal/model"
	"github.com/glebarez/sqlite"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// An empty SQLite path opens this shared in-memory database.
const inMemory = "file::memory:?cache=shared"

// The journal is append-only and recoverable from the host, so SQLite runs
// with durability off.
var pragmas = []string{
	"PRAGMA user_version = 1",
	"PRAGMA journal_mode = MEMORY",
	"PRAGMA synchronous = OFF",
	"PRAGMA cache_size = -32000",
	"PRAGMA temp_store = MEMORY",
	"PRAGMA foreign_keys = ON",
}

var (
	errNotConnected = errors.New("db not connected")
	errNoDumpPath   = errors.New("sqlite file path not set")
)

func quiet() logger.Interface { return logger.Default.LogMode(logger.Silent) }

// Migrate creates or updates the journal tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// PostgresDSN is assembled from the db.* config keys.
func PostgresDSN() string {
	kv := []string{
		"host=" + viper.GetString("db.host"),
		"port=" + viper.GetString("db.port"),
		"user=" + viper.GetString("db.username"),
		"password=" + viper.GetString("db.password"),
		"dbname=" + viper.GetString("db.database"),
		"sslmode=disable",
	}
	return strings.Join(kv, " ")
}

func OpenPostgres() (*gorm.DB, error) {
	dialector := postgres.New(postgres.Config{DSN: PostgresDSN(), PreferSimpleProtocol: true})
	return gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        10000,
		Logger:                 quiet(),
	})
}

// OpenSqlite opens the database file at path, or the shared in-memory
// database when path is empty.
func OpenSqlite(path string) (*gorm.DB, error) {
	if path == "" {
		path = inMemory
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 quiet(),
	})
	if err != nil {
		return nil, err
	}
	for _, p := range pragmas {
		if err := db.Exec(p).Error; err != nil {
			return nil, fmt.Errorf("error setting %q: %w", p, err)
		}
	}
	return db, nil
}

// DumpToDisk writes a copy of db to path with VACUUM INTO, replacing any
// file already there.
func DumpToDisk(db *gorm.DB, path string) error {
	switch {
	case path == "":
		return errNoDumpPath
	case db == nil:
		return errNotConnected
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error removing existing DB file: %w", err)
	}
	if err := db.Exec("VACUUM INTO ?", "file:"+path).Error; err != nil {
		return fmt.Errorf("error dumping memory DB to disk: %w", err)
	}
	return nil
}

// BackupPaths lists the SQLite dumps (*.db) directly inside dir.
func BackupPaths(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && filepath.Ext(e.Name()) == ".db" {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}
