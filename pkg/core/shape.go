// pkg/core/shape.go
package core

import "fmt"

// ShapeFamily is one of the procedural solids whose volume can be inverted for length.
type ShapeFamily uint8

const (
	ShapeNone ShapeFamily = iota
	ShapeCylinder
	ShapeCone
	ShapeCapsule
)

// Families lists every solvable family in the order the fitter visits them.
var Families = []ShapeFamily{ShapeCylinder, ShapeCapsule, ShapeCone}

// String returns the shape name the host uses for the family.
func (f ShapeFamily) String() string {
	switch f {
	case ShapeCylinder:
		return "Cylinder"
	case ShapeCone:
		return "Cone"
	case ShapeCapsule:
		return "Pill"
	default:
		return "None"
	}
}

// ParseShapeFamily maps a host shape name back to a family.
// Unknown names (e.g. "Bezier Cone") map to ShapeNone.
func ParseShapeFamily(name string) ShapeFamily {
	switch name {
	case "Cylinder":
		return ShapeCylinder
	case "Cone":
		return ShapeCone
	case "Pill", "Capsule":
		return ShapeCapsule
	default:
		return ShapeNone
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f ShapeFamily) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *ShapeFamily) UnmarshalText(b []byte) error {
	*f = ParseShapeFamily(string(b))
	if *f == ShapeNone && string(b) != "None" && len(b) > 0 {
		return fmt.Errorf("unknown shape family: %q", string(b))
	}
	return nil
}

// ShapeSelection is the outcome of diameter matching.
// Only Cylinder and Cone are ever selected; a Cylinder uses TopDiameter for its diameter.
type ShapeSelection struct {
	Family         ShapeFamily `json:"family"`
	TopDiameter    float64     `json:"topDiameter"`
	BottomDiameter float64     `json:"bottomDiameter"`
}

// Cylinder selects a cylinder of diameter d.
func Cylinder(d float64) ShapeSelection {
	return ShapeSelection{Family: ShapeCylinder, TopDiameter: d, BottomDiameter: d}
}

// Cone selects a truncated cone with the given end diameters.
func Cone(top, bottom float64) ShapeSelection {
	return ShapeSelection{Family: ShapeCone, TopDiameter: top, BottomDiameter: bottom}
}

// Diameter returns the cylinder diameter of the selection.
func (s ShapeSelection) Diameter() float64 {
	return s.TopDiameter
}

// ShapeDimensions holds the geometry of one shape component on the tank.
// Fields that do not apply to the family are ignored.
type ShapeDimensions struct {
	Family         ShapeFamily `json:"family"`
	Diameter       float64     `json:"diameter,omitempty"`
	TopDiameter    float64     `json:"topDiameter,omitempty"`
	BottomDiameter float64     `json:"bottomDiameter,omitempty"`
	Length         float64     `json:"length"`
	Fillet         float64     `json:"fillet,omitempty"`
}

// TargetState is what the fitter aims for in one tick.
type TargetState struct {
	TargetWetMass float64
	WetDensity    float64
}
