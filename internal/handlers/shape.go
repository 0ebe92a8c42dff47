package handlers

import (
	"github.com/SmartTank/extension/pkg/core"
)

// ShapeState is the host's report of the shape components on one tank.
type ShapeState struct {
	Active     core.ShapeFamily       `json:"active"`
	Components []core.ShapeDimensions `json:"components"`
}

// shapeSink applies controller decisions to a copy of the reported shape state so the
// host can mirror them from the response.
type shapeSink struct {
	state     ShapeState
	recompute []core.ShapeFamily
}

func newShapeSink(s ShapeState) *shapeSink {
	comps := make([]core.ShapeDimensions, len(s.Components))
	copy(comps, s.Components)
	return &shapeSink{state: ShapeState{Active: s.Active, Components: comps}}
}

func (s *shapeSink) component(f core.ShapeFamily) *core.ShapeDimensions {
	for i := range s.state.Components {
		if s.state.Components[i].Family == f {
			return &s.state.Components[i]
		}
	}
	return nil
}

func (s *shapeSink) ActiveFamily() core.ShapeFamily {
	return s.state.Active
}

func (s *shapeSink) Dimensions(f core.ShapeFamily) (core.ShapeDimensions, bool) {
	c := s.component(f)
	if c == nil {
		return core.ShapeDimensions{}, false
	}
	return *c, true
}

// ApplyShape switches the active family, adding the component if the tank did not report it.
func (s *shapeSink) ApplyShape(sel core.ShapeSelection) {
	s.state.Active = sel.Family
	c := s.component(sel.Family)
	if c == nil {
		s.state.Components = append(s.state.Components, core.ShapeDimensions{Family: sel.Family})
		c = &s.state.Components[len(s.state.Components)-1]
	}
	switch sel.Family {
	case core.ShapeCone:
		c.TopDiameter = sel.TopDiameter
		c.BottomDiameter = sel.BottomDiameter
	default:
		c.Diameter = sel.Diameter()
	}
}

func (s *shapeSink) ApplyLength(f core.ShapeFamily, length float64) {
	if c := s.component(f); c != nil {
		c.Length = length
	}
}

func (s *shapeSink) NotifyShapeRecompute(f core.ShapeFamily) {
	s.recompute = append(s.recompute, f)
}
