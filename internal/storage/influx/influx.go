// Package influxstorage records journal entries as InfluxDB points.
package influxstorage

import (
	"context"
	"sync"
	"time"

	"github.com/SmartTank/extension/internal/influx"
	"github.com/SmartTank/extension/pkg/core"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
)

// connectTimeout bounds the initial ping and bucket setup.
const connectTimeout = 10 * time.Second

// Writer is the part of influx.Manager the backend uses.
type Writer interface {
	Connect(ctx context.Context) error
	WritePoint(bucket string, point *influxdb2_write.Point) error
	Flush()
	Close() error
}

var _ Writer = (*influx.Manager)(nil)

// Backend implements storage.Backend on top of an InfluxDB writer.
type Backend struct {
	w      Writer
	bucket string

	mu      sync.RWMutex
	session string
}

// New creates a backend writing to bucket.
func New(w Writer, bucket string) *Backend {
	return &Backend{w: w, bucket: bucket}
}

// Init connects the writer.
func (b *Backend) Init() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return b.w.Connect(ctx)
}

// Close flushes and closes the writer.
func (b *Backend) Close() error {
	return b.w.Close()
}

// StartSession sets the session entries without one are stamped with.
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	b.session = s.ID
	b.mu.Unlock()
	return nil
}

// EndSession flushes buffered points.
func (b *Backend) EndSession() error {
	b.w.Flush()
	b.mu.Lock()
	b.session = ""
	b.mu.Unlock()
	return nil
}

func (b *Backend) stamp(id string) string {
	if id != "" {
		return id
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.session
}

func (b *Backend) RecordShapeChange(c *core.ShapeChange) error {
	e := *c
	e.SessionID = b.stamp(e.SessionID)
	return b.w.WritePoint(b.bucket, influx.ShapePoint(e))
}

func (b *Backend) RecordFuelChange(c *core.FuelChange) error {
	e := *c
	e.SessionID = b.stamp(e.SessionID)
	return b.w.WritePoint(b.bucket, influx.FuelPoint(e))
}

func (b *Backend) RecordLengthChange(c *core.LengthChange) error {
	e := *c
	e.SessionID = b.stamp(e.SessionID)
	return b.w.WritePoint(b.bucket, influx.LengthPoint(e))
}
