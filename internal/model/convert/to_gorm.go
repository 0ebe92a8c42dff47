// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"github.com/SmartTank/extension/internal/model"
	"github.com/SmartTank/extension/pkg/core"
	"gorm.io/datatypes"
)

// metaToJSON converts session metadata to datatypes.JSONMap for DB storage.
func metaToJSON(meta map[string]any) datatypes.JSONMap {
	if len(meta) == 0 {
		return datatypes.JSONMap{}
	}
	out := make(datatypes.JSONMap, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}

// CoreToSession converts a core.Session to a GORM model.Session.
func CoreToSession(s core.Session) model.Session {
	return model.Session{
		ID:               s.ID,
		StartedAt:        s.StartedAt,
		ExtensionVersion: s.ExtensionVersion,
		Meta:             metaToJSON(s.Meta),
	}
}

// CoreToShapeChange converts a core.ShapeChange to a GORM model.ShapeChange.
func CoreToShapeChange(c core.ShapeChange) model.ShapeChange {
	return model.ShapeChange{
		SessionID:      c.SessionID,
		TankID:         uint32(c.TankID),
		Time:           c.Time,
		Family:         c.Selection.Family.String(),
		TopDiameter:    c.Selection.TopDiameter,
		BottomDiameter: c.Selection.BottomDiameter,
	}
}

// CoreToFuelChange converts a core.FuelChange to a GORM model.FuelChange.
func CoreToFuelChange(c core.FuelChange) model.FuelChange {
	return model.FuelChange{
		SessionID:  c.SessionID,
		TankID:     uint32(c.TankID),
		Time:       c.Time,
		FromType:   string(c.From),
		ToType:     string(c.To),
		WetDensity: c.WetDensity,
	}
}

// CoreToLengthChange converts a core.LengthChange to a GORM model.LengthChange.
func CoreToLengthChange(c core.LengthChange) model.LengthChange {
	return model.LengthChange{
		SessionID:     c.SessionID,
		TankID:        uint32(c.TankID),
		Time:          c.Time,
		Family:        c.Family.String(),
		FromLength:    c.From,
		ToLength:      c.To,
		TargetWetMass: c.TargetWetMass,
		WetDensity:    c.WetDensity,
		Recomputed:    c.Recomputed,
	}
}
