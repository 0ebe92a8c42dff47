// pkg/core/events.go
package core

import (
	"time"
)

// ShapeChange records a diameter-matching decision that was applied to a tank.
type ShapeChange struct {
	SessionID string
	TankID    PartID
	Time      time.Time
	Selection ShapeSelection
}

// FuelChange records a switch of tank type option.
type FuelChange struct {
	SessionID  string
	TankID     PartID
	Time       time.Time
	From       FuelTypeKey
	To         FuelTypeKey
	WetDensity float64
}

// LengthChange records a length proposal that passed the hysteresis check.
type LengthChange struct {
	SessionID     string
	TankID        PartID
	Time          time.Time
	Family        ShapeFamily
	From          float64
	To            float64
	TargetWetMass float64
	WetDensity    float64
	Recomputed    bool // the shape was the active one and was asked to recompute
}

// Session is one run of the extension. Journal entries carry its ID.
type Session struct {
	ID               string
	StartedAt        time.Time
	ExtensionVersion string
	// Meta holds free-form context, such as the tank defaults in effect.
	Meta map[string]any
}
