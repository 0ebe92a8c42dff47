package tank

import (
	"github.com/SmartTank/extension/internal/twr"
)

// Settings are the per-tank toggles. New tanks start from the configured defaults.
type Settings struct {
	DiameterMatching bool    `json:"diameterMatching" mapstructure:"diameterMatching"`
	FuelMatching     bool    `json:"fuelMatching" mapstructure:"fuelMatching"`
	AutoScale        bool    `json:"autoScale" mapstructure:"autoScale"`
	Atmospheric      bool    `json:"atmospheric" mapstructure:"atmospheric"`
	TargetTWR        float64 `json:"targetTWR" mapstructure:"targetTWR"`
	BodyForTWR       string  `json:"bodyForTWR" mapstructure:"bodyForTWR"`
}

// DefaultSettings match a fresh install.
func DefaultSettings() Settings {
	return Settings{
		DiameterMatching: true,
		FuelMatching:     true,
		AutoScale:        true,
		Atmospheric:      false,
		TargetTWR:        1.5,
		BodyForTWR:       "Kerbin",
	}
}

// Normalized returns s with TargetTWR kept inside the allowed range.
func (s Settings) Normalized() Settings {
	s.TargetTWR = twr.ClampTWR(s.TargetTWR)
	return s
}

// Visibility tells the host which of its fields the user may edit.
type Visibility struct {
	DiameterEditable    bool `json:"diameterEditable"`
	ShapeNameSelectable bool `json:"shapeNameSelectable"`
	LengthEditable      bool `json:"lengthEditable"`
	ScaleNowVisible     bool `json:"scaleNowVisible"`
	TankTypeEditable    bool `json:"tankTypeEditable"`
}

// visibility derives field visibility from the toggles. The shape name is never
// offered when the host had it hidden at setup time.
func visibility(s Settings, shapeNameDefault bool) Visibility {
	return Visibility{
		DiameterEditable:    !s.DiameterMatching,
		ShapeNameSelectable: shapeNameDefault && !s.DiameterMatching,
		LengthEditable:      !s.AutoScale,
		ScaleNowVisible:     !s.AutoScale,
		TankTypeEditable:    !s.FuelMatching,
	}
}
