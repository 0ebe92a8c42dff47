package convert

import (
	"github.com/SmartTank/extension/internal/model"
	"github.com/SmartTank/extension/pkg/core"
)

// SessionToCore converts a GORM Session to a core.Session.
func SessionToCore(s model.Session) core.Session {
	var meta map[string]any
	if len(s.Meta) > 0 {
		meta = make(map[string]any, len(s.Meta))
		for k, v := range s.Meta {
			meta[k] = v
		}
	}
	return core.Session{
		ID:               s.ID,
		StartedAt:        s.StartedAt,
		ExtensionVersion: s.ExtensionVersion,
		Meta:             meta,
	}
}

// ShapeChangeToCore converts a GORM ShapeChange to a core.ShapeChange.
func ShapeChangeToCore(c model.ShapeChange) core.ShapeChange {
	return core.ShapeChange{
		SessionID: c.SessionID,
		TankID:    core.PartID(c.TankID),
		Time:      c.Time,
		Selection: core.ShapeSelection{
			Family:         core.ParseShapeFamily(c.Family),
			TopDiameter:    c.TopDiameter,
			BottomDiameter: c.BottomDiameter,
		},
	}
}

// FuelChangeToCore converts a GORM FuelChange to a core.FuelChange.
func FuelChangeToCore(c model.FuelChange) core.FuelChange {
	return core.FuelChange{
		SessionID:  c.SessionID,
		TankID:     core.PartID(c.TankID),
		Time:       c.Time,
		From:       core.FuelTypeKey(c.FromType),
		To:         core.FuelTypeKey(c.ToType),
		WetDensity: c.WetDensity,
	}
}

// LengthChangeToCore converts a GORM LengthChange to a core.LengthChange.
func LengthChangeToCore(c model.LengthChange) core.LengthChange {
	return core.LengthChange{
		SessionID:     c.SessionID,
		TankID:        core.PartID(c.TankID),
		Time:          c.Time,
		Family:        core.ParseShapeFamily(c.Family),
		From:          c.FromLength,
		To:            c.ToLength,
		TargetWetMass: c.TargetWetMass,
		WetDensity:    c.WetDensity,
		Recomputed:    c.Recomputed,
	}
}
