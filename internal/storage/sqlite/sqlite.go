// Package sqlitestorage keeps the journal in an in-memory SQLite database
// and snapshots it to a file on an interval, at session end and on Close.
// Writes go through the gorm backend.
package sqlitestorage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SmartTank/extension/internal/database"
	gormstorage "github.com/SmartTank/extension/internal/storage/gorm"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Config struct {
	FlushInterval time.Duration
	DumpInterval  time.Duration
	DumpPath      string // VACUUM INTO target; empty disables snapshots
}

type Backend struct {
	*gormstorage.Backend

	db  *gorm.DB
	cfg Config
	log zerolog.Logger

	snapMu sync.Mutex
	cancel context.CancelFunc
	ticker sync.WaitGroup
}

func New(cfg Config, log zerolog.Logger) (*Backend, error) {
	db, err := database.OpenSqlite("")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite DB: %w", err)
	}
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:            db,
			Logger:        log,
			FlushInterval: cfg.FlushInterval,
		}),
		db:     db,
		cfg:    cfg,
		log:    log,
		cancel: func() {},
	}, nil
}

func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}
	if b.cfg.DumpPath == "" || b.cfg.DumpInterval <= 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.ticker.Add(1)
	go func() {
		defer b.ticker.Done()
		b.snapshotEvery(ctx, b.cfg.DumpInterval)
	}()
	return nil
}

// EndSession writes a snapshot so the file holds the finished session.
func (b *Backend) EndSession() error {
	if err := b.Backend.EndSession(); err != nil {
		return err
	}
	return b.snapshot()
}

func (b *Backend) Close() error {
	b.cancel()
	b.ticker.Wait()

	if err := b.Backend.Close(); err != nil {
		b.log.Error().Err(err).Msg("Final flush failed")
	}
	snapErr := b.snapshot()

	conn, err := b.db.DB()
	if err == nil {
		err = conn.Close()
	}
	return errors.Join(snapErr, err)
}

func (b *Backend) snapshot() error {
	if b.cfg.DumpPath == "" {
		return nil
	}
	b.snapMu.Lock()
	defer b.snapMu.Unlock()

	start := time.Now()
	if err := database.DumpToDisk(b.db, b.cfg.DumpPath); err != nil {
		return err
	}
	b.log.Debug().Str("path", b.cfg.DumpPath).Dur("duration", time.Since(start)).Msg("Dumped journal to disk")
	return nil
}

// VACUUM INTO reads a consistent snapshot, so writers keep going meanwhile.
func (b *Backend) snapshotEvery(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := b.snapshot(); err != nil {
				b.log.Error().Err(err).Msg("Error dumping to disk")
			}
		}
	}
}
