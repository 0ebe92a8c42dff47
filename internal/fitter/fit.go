package fitter

import (
	"math"

	"github.com/SmartTank/extension/pkg/core"
)

// Sink receives accepted length proposals.
type Sink interface {
	// ActiveFamily is the shape currently shown on the tank.
	ActiveFamily() core.ShapeFamily
	ApplyLength(family core.ShapeFamily, length float64)
	// NotifyShapeRecompute asks the shape to rebuild mass, mesh and node positions.
	NotifyShapeRecompute(family core.ShapeFamily)
}

// Shapes is a Sink that also exposes the dimensions of each shape component on the tank.
// A tank may carry components for several families; only one of them is active.
type Shapes interface {
	Sink
	Dimensions(family core.ShapeFamily) (core.ShapeDimensions, bool)
}

// Proposal is a length change that passed the hysteresis check.
type Proposal struct {
	Family     core.ShapeFamily `json:"family"`
	From       float64          `json:"from"`
	To         float64          `json:"to"`
	Recomputed bool             `json:"recomputed"`
}

// Exceeds reports whether moving from current to proposed is worth applying.
// A change of exactly Hysteresis is suppressed.
func Exceeds(current, proposed float64) bool {
	return math.Abs(current-proposed) > Hysteresis
}

// Fit solves the length for dims and applies it to sink when it moved by more than
// Hysteresis. The shape is asked to recompute only when dims is the active family.
func Fit(sink Sink, dims core.ShapeDimensions, target core.TargetState) (Proposal, bool) {
	l, ok := SolveLength(dims, target.TargetWetMass, target.WetDensity)
	if !ok || !Exceeds(dims.Length, l) {
		return Proposal{}, false
	}

	p := Proposal{Family: dims.Family, From: dims.Length, To: l}
	sink.ApplyLength(dims.Family, l)
	if sink.ActiveFamily() == dims.Family {
		sink.NotifyShapeRecompute(dims.Family)
		p.Recomputed = true
	}
	return p, true
}

// FitAll fits every shape component the tank carries, in core.Families order.
// Inactive components are resized too so that switching shape keeps the target mass.
func FitAll(s Shapes, target core.TargetState) []Proposal {
	if !(target.WetDensity > 0) {
		return nil
	}
	var out []Proposal
	for _, f := range core.Families {
		dims, ok := s.Dimensions(f)
		if !ok {
			continue
		}
		dims.Family = f
		if p, ok := Fit(s, dims, target); ok {
			out = append(out, p)
		}
	}
	return out
}
