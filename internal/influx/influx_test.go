package influx

import (
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/SmartTank/extension/pkg/core"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pointTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func lineOf(p *influxdb2_write.Point) string {
	return influxdb2_write.PointToLineProtocol(p, time.Nanosecond)
}

func TestShapePoint(t *testing.T) {
	line := lineOf(ShapePoint(core.ShapeChange{
		SessionID: "s1",
		TankID:    7,
		Time:      pointTime,
		Selection: core.Cone(2.5, 1.25),
	}))

	assert.True(t, strings.HasPrefix(line, MeasurementShape+","))
	assert.Contains(t, line, "family=Cone")
	assert.Contains(t, line, "tank=7")
	assert.Contains(t, line, "session=s1")
	assert.Contains(t, line, "top_diameter=2.5")
	assert.Contains(t, line, "bottom_diameter=1.25")
}

func TestFuelPoint(t *testing.T) {
	line := lineOf(FuelPoint(core.FuelChange{
		SessionID:  "s1",
		TankID:     2,
		Time:       pointTime,
		From:       core.MixedFuel,
		To:         "LiquidFuel",
		WetDensity: 0.18,
	}))

	assert.Contains(t, line, "to=LiquidFuel")
	assert.Contains(t, line, `from="Mixed"`)
	assert.Contains(t, line, "wet_density=0.18")
}

func TestLengthPoint(t *testing.T) {
	line := lineOf(LengthPoint(core.LengthChange{
		SessionID:  "s1",
		TankID:     2,
		Time:       pointTime,
		Family:     core.ShapeCapsule,
		From:       1,
		To:         2.5,
		Recomputed: true,
	}))

	assert.Contains(t, line, "family=Pill")
	assert.Contains(t, line, "to=2.5")
	assert.Contains(t, line, "recomputed=true")
}

func TestWritePoint_NotConnected(t *testing.T) {
	t.Cleanup(viper.Reset)
	m := NewManager(zerolog.Nop(), "sizing", "")

	err := m.WritePoint("sizing", LengthPoint(core.LengthChange{Time: pointTime}))
	assert.ErrorIs(t, err, errNoSink)

	err = m.WritePoint("other", LengthPoint(core.LengthChange{Time: pointTime}))
	assert.ErrorContains(t, err, `"other" not registered`)
}

func TestNewManager_BucketFromConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("influx.bucket", "history")

	assert.Equal(t, "history", NewManager(zerolog.Nop(), "", "").Bucket())
	assert.Equal(t, "explicit", NewManager(zerolog.Nop(), "explicit", "").Bucket())
}

func TestConnect_UnreachableFallsBackToBackup(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("influx.protocol", "http")
	viper.Set("influx.host", "127.0.0.1")
	viper.Set("influx.port", "1")

	backup := filepath.Join(t.TempDir(), "influx_backup.lp.gz")
	m := NewManager(zerolog.Nop(), "sizing", backup)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Connect(ctx))
	assert.False(t, m.Online())

	require.NoError(t, m.WritePoint("sizing", LengthPoint(core.LengthChange{
		SessionID: "s1", TankID: 1, Time: pointTime, Family: core.ShapeCylinder, To: 1.5,
	})))
	require.NoError(t, m.Close())

	f, err := os.Open(backup)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)

	assert.Contains(t, string(data), MeasurementLength)
	assert.Contains(t, string(data), "to=1.5")
}

func TestConnect_UnreachableWithoutBackupPath(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("influx.protocol", "http")
	viper.Set("influx.host", "127.0.0.1")
	viper.Set("influx.port", "1")

	m := NewManager(zerolog.Nop(), "sizing", "")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.Error(t, m.Connect(ctx))
	assert.NoError(t, m.Close())
}

func TestServerURL(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("influx.protocol", "https")
	viper.Set("influx.host", "metrics.local")
	viper.Set("influx.port", "8086")

	assert.Equal(t, "https://metrics.local:8086", ServerURL())
}
