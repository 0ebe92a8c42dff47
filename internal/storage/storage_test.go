// internal/storage/storage_test.go
package storage_test

import (
	"testing"
	"time"

	"github.com/SmartTank/extension/internal/storage"
	"github.com/SmartTank/extension/pkg/core"
	"github.com/stretchr/testify/assert"
)

var _ storage.Backend = storage.Discard{}

func TestExportMetadataFields(t *testing.T) {
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	meta := storage.ExportMetadata{
		SessionID:     "abc",
		StartedAt:     started,
		Duration:      90 * time.Second,
		Tanks:         2,
		LengthChanges: 5,
	}

	assert.Equal(t, "abc", meta.SessionID)
	assert.Equal(t, started, meta.StartedAt)
	assert.Equal(t, 90*time.Second, meta.Duration)
	assert.Equal(t, 2, meta.Tanks)
	assert.Equal(t, 5, meta.LengthChanges)
}

func TestDiscard(t *testing.T) {
	var b storage.Backend = storage.Discard{}

	assert.NoError(t, b.Init())
	assert.NoError(t, b.StartSession(&core.Session{ID: "s"}))
	assert.NoError(t, b.RecordShapeChange(&core.ShapeChange{}))
	assert.NoError(t, b.RecordFuelChange(&core.FuelChange{}))
	assert.NoError(t, b.RecordLengthChange(&core.LengthChange{}))
	assert.NoError(t, b.EndSession())
	assert.NoError(t, b.Close())
}
