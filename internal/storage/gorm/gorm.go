// Package gormstorage implements the storage.Backend interface using GORM
// with internal queues and a background DB writer goroutine.
package gormstorage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SmartTank/extension/internal/database"
	"github.com/SmartTank/extension/internal/model"
	"github.com/SmartTank/extension/internal/model/convert"
	"github.com/SmartTank/extension/internal/queue"
	"github.com/SmartTank/extension/pkg/core"
	"github.com/rs/zerolog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultQueueLimit caps each write queue while the database is unreachable.
const DefaultQueueLimit = 50000

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	// DB is used as-is when set; otherwise Init connects to Postgres from the db.* config.
	DB     *gorm.DB
	Logger zerolog.Logger
	// FlushInterval is how often the writer drains the queues. Zero disables the
	// writer and leaves flushing to Flush, EndSession and Close.
	FlushInterval time.Duration
	QueueLimit    int
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	ShapeChanges  *queue.Queue[model.ShapeChange]
	FuelChanges   *queue.Queue[model.FuelChange]
	LengthChanges *queue.Queue[model.LengthChange]
}

func newQueues(limit int) *queues {
	return &queues{
		ShapeChanges:  queue.NewBounded[model.ShapeChange](limit),
		FuelChanges:   queue.NewBounded[model.FuelChange](limit),
		LengthChanges: queue.NewBounded[model.LengthChange](limit),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps   Dependencies
	queues *queues

	mu        sync.RWMutex
	sessionID string

	flushMu  sync.Mutex
	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.QueueLimit == 0 {
		deps.QueueLimit = DefaultQueueLimit
	}
	return &Backend{
		deps:   deps,
		queues: newQueues(deps.QueueLimit),
	}
}

// DB returns the connection the backend writes to.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init runs schema migration and starts the DB writer goroutine. If no DB was
// injected via Dependencies, it creates its own postgres connection. Entries
// recorded before Init wait in the queues.
func (b *Backend) Init() error {
	b.stopChan = make(chan struct{})
	b.doneChan = make(chan struct{})

	if b.deps.DB == nil {
		db, err := database.OpenPostgres()
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to access sql interface: %w", err)
		}
		if err = sqlDB.Ping(); err != nil {
			return fmt.Errorf("failed to validate connection: %w", err)
		}
		sqlDB.SetMaxOpenConns(10)
		b.deps.DB = db
	}

	b.deps.Logger.Info().Str("dialect", b.deps.DB.Name()).Msg("Migrating schema")
	if err := database.Migrate(b.deps.DB); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	if b.deps.FlushInterval > 0 {
		go b.writeLoop()
	} else {
		close(b.doneChan)
	}
	return nil
}

// Close stops the DB writer goroutine and writes whatever is still queued.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	b.stopOnce.Do(func() { close(b.stopChan) })
	<-b.doneChan
	return b.Flush()
}

// StartSession inserts the session row synchronously so queued entries can reference it.
func (b *Backend) StartSession(s *core.Session) error {
	if b.deps.DB == nil {
		return errors.New("db not connected")
	}
	row := convert.CoreToSession(*s)
	if err := b.deps.DB.Omit(clause.Associations).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	b.mu.Lock()
	b.sessionID = s.ID
	b.mu.Unlock()
	return nil
}

// SessionID is the session new entries are stamped with.
func (b *Backend) SessionID() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sessionID
}

// EndSession flushes the queues and stamps the session's end time.
func (b *Backend) EndSession() error {
	id := b.SessionID()
	if id == "" {
		return nil
	}
	if err := b.Flush(); err != nil {
		return err
	}
	s := model.Session{ID: id}
	if err := s.End(b.deps.DB, time.Now()); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}

	b.mu.Lock()
	b.sessionID = ""
	b.mu.Unlock()
	return nil
}

// RecordShapeChange converts to GORM and pushes to the write queue.
func (b *Backend) RecordShapeChange(c *core.ShapeChange) error {
	b.queues.ShapeChanges.Push(convert.CoreToShapeChange(*c))
	return nil
}

// RecordFuelChange converts to GORM and pushes to the write queue.
func (b *Backend) RecordFuelChange(c *core.FuelChange) error {
	b.queues.FuelChanges.Push(convert.CoreToFuelChange(*c))
	return nil
}

// RecordLengthChange converts to GORM and pushes to the write queue.
func (b *Backend) RecordLengthChange(c *core.LengthChange) error {
	b.queues.LengthChanges.Push(convert.CoreToLengthChange(*c))
	return nil
}

// QueueLengths reports how many entries wait in each queue.
func (b *Backend) QueueLengths() model.WriteQueueLengths {
	return model.WriteQueueLengths{
		ShapeChanges:  clampUint16(b.queues.ShapeChanges.Len()),
		FuelChanges:   clampUint16(b.queues.FuelChanges.Len()),
		LengthChanges: clampUint16(b.queues.LengthChanges.Len()),
	}
}

// Flush drains every queue into the database. Entries wait while no session is open.
func (b *Backend) Flush() error {
	if b.deps.DB == nil {
		return nil
	}
	sessionID := b.SessionID()
	if sessionID == "" {
		return nil
	}

	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	db := b.deps.DB
	log := b.deps.Logger
	start := time.Now()

	stampShapes := func(items []model.ShapeChange) {
		for i := range items {
			if items[i].SessionID == "" {
				items[i].SessionID = sessionID
			}
		}
	}
	stampFuels := func(items []model.FuelChange) {
		for i := range items {
			if items[i].SessionID == "" {
				items[i].SessionID = sessionID
			}
		}
	}
	stampLengths := func(items []model.LengthChange) {
		for i := range items {
			if items[i].SessionID == "" {
				items[i].SessionID = sessionID
			}
		}
	}

	n1, err1 := writeQueue(db, b.queues.ShapeChanges, "shape changes", log, stampShapes)
	n2, err2 := writeQueue(db, b.queues.FuelChanges, "fuel changes", log, stampFuels)
	n3, err3 := writeQueue(db, b.queues.LengthChanges, "length changes", log, stampLengths)
	written := n1 + n2 + n3
	if err := errors.Join(err1, err2, err3); err != nil {
		return err
	}
	if written == 0 {
		return nil
	}

	perf := model.JournalPerformance{
		Time:                time.Now(),
		SessionID:           sessionID,
		WriteQueueLengths:   b.QueueLengths(),
		LastWriteDurationMs: float32(time.Since(start).Seconds() * 1000),
	}
	if err := db.Omit(clause.Associations).Create(&perf).Error; err != nil {
		log.Warn().Err(err).Msg("Failed to record journal performance")
	}
	log.Debug().Int("written", written).Dur("duration", time.Since(start)).Msg("Flushed journal")
	return nil
}

// writeQueue writes all items from a queue to the database in a transaction.
// On failure the items go back to the front of the queue.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log zerolog.Logger, prepare func([]T)) (int, error) {
	if n := q.TakeDropped(); n > 0 {
		log.Warn().Str("table", name).Uint64("dropped", n).Msg("Write queue full, oldest journal entries dropped")
	}
	if q.Empty() {
		return 0, nil
	}

	items := q.Take(0)
	if prepare != nil {
		prepare(items)
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(&items).Error
	})
	if err != nil {
		log.Error().Err(err).Str("table", name).Int("count", len(items)).Msg("Error writing journal entries")
		q.Requeue(items...)
		return 0, fmt.Errorf("writing %s: %w", name, err)
	}
	return len(items), nil
}

// writeLoop periodically drains the queues until Close.
func (b *Backend) writeLoop() {
	defer close(b.doneChan)
	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			// errors are logged by writeQueue and retried next tick
			_ = b.Flush()
		}
	}
}

func clampUint16(n int) uint16 {
	if n > 0xFFFF {
		return 0xFFFF
	}
	return uint16(n)
}
