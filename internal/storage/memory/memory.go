// internal/storage/memory/memory.go
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/SmartTank/extension/internal/config"
	"github.com/SmartTank/extension/internal/storage"
	"github.com/SmartTank/extension/pkg/core"
)

// TankRecord groups everything the journal saw for one tank
type TankRecord struct {
	TankID        core.PartID
	ShapeChanges  []core.ShapeChange
	FuelChanges   []core.FuelChange
	LengthChanges []core.LengthChange
}

// Backend keeps the session journal in memory and exports it to JSON when the session ends
type Backend struct {
	cfg     config.MemoryConfig
	session *core.Session

	tanks map[core.PartID]*TankRecord

	now            func() time.Time
	lastExportPath string
	lastExportMeta storage.ExportMetadata
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:   cfg,
		tanks: make(map[core.PartID]*TankRecord),
		now:   time.Now,
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close exports a session that is still open
func (b *Backend) Close() error {
	b.mu.RLock()
	open := b.session != nil
	b.mu.RUnlock()
	if open {
		return b.EndSession()
	}
	return nil
}

// StartSession begins a new journal and drops whatever the previous one held
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.session = s
	b.tanks = make(map[core.PartID]*TankRecord)
	return nil
}

// EndSession exports the journal. Without a session it does nothing.
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return nil
	}
	if err := b.exportJSON(); err != nil {
		return err
	}
	b.session = nil
	return nil
}

// GetTank returns a copy of the record for id.
func (b *Backend) GetTank(id core.PartID) (TankRecord, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rec, ok := b.tanks[id]
	if !ok {
		return TankRecord{}, false
	}
	return *rec, true
}

// TankIDs lists the tanks with at least one entry, in ascending order.
func (b *Backend) TankIDs() []core.PartID {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]core.PartID, 0, len(b.tanks))
	for id := range b.tanks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// record returns the tank record for id, creating it if needed. Caller holds the lock.
func (b *Backend) record(id core.PartID) *TankRecord {
	rec, ok := b.tanks[id]
	if !ok {
		rec = &TankRecord{TankID: id}
		b.tanks[id] = rec
	}
	return rec
}

// RecordShapeChange appends a diameter-matching decision
func (b *Backend) RecordShapeChange(c *core.ShapeChange) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec := b.record(c.TankID)
	rec.ShapeChanges = append(rec.ShapeChanges, *c)
	return nil
}

// RecordFuelChange appends a tank type switch
func (b *Backend) RecordFuelChange(c *core.FuelChange) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec := b.record(c.TankID)
	rec.FuelChanges = append(rec.FuelChanges, *c)
	return nil
}

// RecordLengthChange appends an applied length proposal
func (b *Backend) RecordLengthChange(c *core.LengthChange) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec := b.record(c.TankID)
	rec.LengthChanges = append(rec.LengthChanges, *c)
	return nil
}

// GetExportedFilePath returns the path of the last exported journal
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// GetExportMetadata describes the last exported journal
func (b *Backend) GetExportMetadata() storage.ExportMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportMeta
}
