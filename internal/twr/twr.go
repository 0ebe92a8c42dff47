// Package twr derives the wet mass a tank should have from the engine it feeds, a target
// thrust-to-weight ratio and the gravity of the body the ratio is measured at.
package twr

import (
	"math"
)

// Body is a celestial body the TWR can be measured against.
type Body struct {
	Name            string  `json:"name" mapstructure:"name"`
	GravParameter   float64 `json:"gravParameter" mapstructure:"gravParameter"` // m³/s²
	Radius          float64 `json:"radius" mapstructure:"radius"`               // m
	HasSolidSurface bool    `json:"hasSolidSurface" mapstructure:"hasSolidSurface"`
}

// DefaultBodies is the stock planetary system.
var DefaultBodies = []Body{
	{Name: "Kerbol", GravParameter: 1.1723328e18, Radius: 261600000},
	{Name: "Moho", GravParameter: 1.6860938e11, Radius: 250000, HasSolidSurface: true},
	{Name: "Eve", GravParameter: 8.1717302e12, Radius: 700000, HasSolidSurface: true},
	{Name: "Gilly", GravParameter: 8289449.8, Radius: 13000, HasSolidSurface: true},
	{Name: "Kerbin", GravParameter: 3.5316e12, Radius: 600000, HasSolidSurface: true},
	{Name: "Mun", GravParameter: 6.5138398e10, Radius: 200000, HasSolidSurface: true},
	{Name: "Minmus", GravParameter: 1.7658e9, Radius: 60000, HasSolidSurface: true},
	{Name: "Duna", GravParameter: 3.0136321e11, Radius: 320000, HasSolidSurface: true},
	{Name: "Ike", GravParameter: 1.8568369e10, Radius: 130000, HasSolidSurface: true},
	{Name: "Dres", GravParameter: 2.1484489e10, Radius: 138000, HasSolidSurface: true},
	{Name: "Jool", GravParameter: 2.82528e14, Radius: 6000000},
	{Name: "Laythe", GravParameter: 1.962e12, Radius: 500000, HasSolidSurface: true},
	{Name: "Vall", GravParameter: 2.074815e11, Radius: 300000, HasSolidSurface: true},
	{Name: "Tylo", GravParameter: 2.82528e12, Radius: 600000, HasSolidSurface: true},
	{Name: "Bop", GravParameter: 2.4868349e9, Radius: 65000, HasSolidSurface: true},
	{Name: "Pol", GravParameter: 7.2170208e8, Radius: 44000, HasSolidSurface: true},
	{Name: "Eeloo", GravParameter: 7.4410815e10, Radius: 210000, HasSolidSurface: true},
}

// Limits of the target TWR setting.
const (
	MinTWR = 0.1
	MaxTWR = 10.0
)

// GravAccel is the surface gravitational acceleration of b in m/s².
func GravAccel(b *Body) float64 {
	if b == nil || !(b.Radius > 0) {
		return 0
	}
	return b.GravParameter / (b.Radius * b.Radius)
}

// SurfaceBodies lists the names of bodies one can stand on, in the given order.
func SurfaceBodies(bodies []Body) []string {
	var names []string
	for _, b := range bodies {
		if b.HasSolidSurface {
			names = append(names, b.Name)
		}
	}
	return names
}

// FindBody looks a body up by name.
func FindBody(bodies []Body, name string) (*Body, bool) {
	for i := range bodies {
		if bodies[i].Name == name {
			return &bodies[i], true
		}
	}
	return nil, false
}

// ClampTWR keeps a TWR setting within [MinTWR, MaxTWR].
func ClampTWR(v float64) float64 {
	return math.Min(MaxTWR, math.Max(MinTWR, v))
}

// IdealWetMass is the tank wet mass, in tons, that gives thrust (kN) a ratio of twr at
// gravity g (m/s²) once otherMass (t) of everything else is accounted for.
// It never goes below zero. ok is false when g or twr are not positive.
func IdealWetMass(thrust, g, twr, otherMass float64) (float64, bool) {
	if !(g > 0) || !(twr > 0) || thrust < 0 {
		return 0, false
	}
	m := thrust/(g*twr) - otherMass
	if m < 0 {
		m = 0
	}
	return m, true
}

// Target computes an ideal wet mass from one engine.
type Target struct {
	Body        *Body
	TWR         float64
	Atmospheric bool
	ThrustASL   float64
	ThrustVac   float64
	OtherMass   float64
}

// Thrust returns the sea-level thrust when Atmospheric is set, vacuum thrust otherwise.
func (t Target) Thrust() float64 {
	if t.Atmospheric {
		return t.ThrustASL
	}
	return t.ThrustVac
}

// TargetWetMass implements the tank's target provider. Zero means no target.
func (t Target) TargetWetMass() float64 {
	m, ok := IdealWetMass(t.Thrust(), GravAccel(t.Body), t.TWR, t.OtherMass)
	if !ok {
		return 0
	}
	return m
}
