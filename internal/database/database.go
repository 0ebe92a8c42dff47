// Package database opens the journal databases and moves data between them.
package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

// Manager holds the operator's journal connection: Postgres when reachable,
// otherwise SQLite (Local) with BackupPath as the dump target.
type Manager struct {
	DB         *gorm.DB
	Ready      bool
	Local      bool
	BackupPath string

	conn *sql.DB
	log  zerolog.Logger
}

func NewManager(log zerolog.Logger) *Manager {
	return &Manager{log: log}
}

// Connect tries Postgres and falls back to SQLite at BackupPath.
func (m *Manager) Connect() error {
	m.log.Debug().
		Str("host", viper.GetString("db.host")).
		Str("database", viper.GetString("db.database")).
		Msg("Connecting to Postgres DB")

	if err := m.connectPostgres(); err != nil {
		m.log.Error().Err(err).Msg("Failed to connect to Postgres DB, trying SQLite")
		return m.ConnectSqlite(m.BackupPath)
	}

	m.conn.SetMaxOpenConns(10)
	m.Ready = true
	m.log.Info().Msg("Connected to database")
	return nil
}

func (m *Manager) connectPostgres() error {
	db, err := OpenPostgres()
	if err != nil {
		return err
	}
	if err := m.attach(db); err != nil {
		return err
	}
	return m.conn.Ping()
}

// ConnectSqlite opens SQLite at path, in memory when path is empty.
func (m *Manager) ConnectSqlite(path string) error {
	m.Local = true
	m.Ready = false

	db, err := OpenSqlite(path)
	if err != nil {
		return fmt.Errorf("failed to get local SQLite DB: %w", err)
	}
	if err := m.attach(db); err != nil {
		return err
	}

	where := path
	if where == "" {
		where = "memory"
	}
	m.log.Info().Str("path", where).Msg("Using local SQLite DB")
	m.Ready = true
	return nil
}

func (m *Manager) attach(db *gorm.DB) error {
	conn, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	m.DB, m.conn = db, conn
	return nil
}

func (m *Manager) Setup() error {
	if m.DB == nil {
		return errNotConnected
	}
	m.log.Info().Msg("Migrating schema")
	if err := Migrate(m.DB); err != nil {
		m.Ready = false
		return err
	}
	m.log.Info().Msg("Database setup complete")
	return nil
}

// DumpToDisk copies the connected database to BackupPath.
func (m *Manager) DumpToDisk() error {
	start := time.Now()
	if err := DumpToDisk(m.DB, m.BackupPath); err != nil {
		return err
	}
	m.log.Debug().Dur("duration", time.Since(start)).Str("path", m.BackupPath).Msg("Dumped DB to disk")
	return nil
}

func (m *Manager) Close() error {
	m.Ready = false
	if m.conn == nil {
		return nil
	}
	return m.conn.Close()
}
