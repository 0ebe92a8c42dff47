package influx

import (
	"strconv"

	"github.com/SmartTank/extension/pkg/core"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the journal.
const (
	MeasurementShape  = "tank_shape"
	MeasurementFuel   = "tank_fuel"
	MeasurementLength = "tank_length"
)

func tags(session string, tank core.PartID) map[string]string {
	return map[string]string{
		"session": session,
		"tank":    strconv.FormatUint(uint64(tank), 10),
	}
}

// ShapePoint converts an applied shape selection into a point.
func ShapePoint(c core.ShapeChange) *influxdb2_write.Point {
	t := tags(c.SessionID, c.TankID)
	t["family"] = c.Selection.Family.String()
	return influxdb2.NewPoint(MeasurementShape, t, map[string]interface{}{
		"top_diameter":    c.Selection.TopDiameter,
		"bottom_diameter": c.Selection.BottomDiameter,
	}, c.Time)
}

// FuelPoint converts a tank type switch into a point.
func FuelPoint(c core.FuelChange) *influxdb2_write.Point {
	t := tags(c.SessionID, c.TankID)
	t["to"] = string(c.To)
	return influxdb2.NewPoint(MeasurementFuel, t, map[string]interface{}{
		"from":        string(c.From),
		"wet_density": c.WetDensity,
	}, c.Time)
}

// LengthPoint converts an applied length into a point.
func LengthPoint(c core.LengthChange) *influxdb2_write.Point {
	t := tags(c.SessionID, c.TankID)
	t["family"] = c.Family.String()
	return influxdb2.NewPoint(MeasurementLength, t, map[string]interface{}{
		"from":            c.From,
		"to":              c.To,
		"target_wet_mass": c.TargetWetMass,
		"wet_density":     c.WetDensity,
		"recomputed":      c.Recomputed,
	}, c.Time)
}
