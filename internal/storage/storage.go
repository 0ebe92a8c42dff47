// internal/storage/storage.go
package storage

import (
	"time"

	"github.com/SmartTank/extension/pkg/core"
)

// Backend is the interface all journal storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management
	StartSession(s *core.Session) error
	EndSession() error

	// Change recording
	RecordShapeChange(c *core.ShapeChange) error
	RecordFuelChange(c *core.FuelChange) error
	RecordLengthChange(c *core.LengthChange) error
}

// ExportMetadata summarizes a written journal file.
type ExportMetadata struct {
	SessionID     string
	StartedAt     time.Time
	Duration      time.Duration
	Tanks         int
	ShapeChanges  int
	FuelChanges   int
	LengthChanges int
}

// Exportable is an optional interface for storage backends that produce
// a journal file when the session ends.
type Exportable interface {
	GetExportedFilePath() string
	GetExportMetadata() ExportMetadata
}

// Discard accepts and drops everything. It backs the "none" journal type.
type Discard struct{}

func (Discard) Init() error { return nil }
func (Discard) Close() error { return nil }
func (Discard) StartSession(*core.Session) error { return nil }
func (Discard) EndSession() error { return nil }
func (Discard) RecordShapeChange(*core.ShapeChange) error { return nil }
func (Discard) RecordFuelChange(*core.FuelChange) error { return nil }
func (Discard) RecordLengthChange(*core.LengthChange) error { return nil }
