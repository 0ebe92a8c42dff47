package database

import (
	"path/filepath"
	"testing"

	"github.com/SmartTank/extension/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	writeBackup(t, path, "s-1", 3)
	writeBackup(t, path, "s-2", 1)

	db, err := OpenSqlite(path)
	require.NoError(t, err)

	j, err := LoadSession(db, "s-1")
	require.NoError(t, err)

	assert.Equal(t, "s-1", j.Session.ID)
	require.Len(t, j.Shapes, 1)
	assert.Equal(t, core.Cone(2.5, 1.25), j.Shapes[0].Selection)
	assert.Equal(t, core.PartID(1), j.Shapes[0].TankID)
	assert.Empty(t, j.Fuels)

	require.Len(t, j.Lengths, 3)
	for i, c := range j.Lengths {
		assert.Equal(t, "s-1", c.SessionID)
		assert.Equal(t, core.ShapeCylinder, c.Family)
		assert.Equal(t, float64(i+1), c.To)
	}
}

func TestLoadSession_Unknown(t *testing.T) {
	db, err := OpenSqlite(filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	_, err = LoadSession(db, "nope")
	assert.ErrorContains(t, err, "error getting session nope")
}
