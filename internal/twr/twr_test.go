package twr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGravAccel_Kerbin(t *testing.T) {
	kerbin, ok := FindBody(DefaultBodies, "Kerbin")
	require.True(t, ok)
	assert.InDelta(t, 9.81, GravAccel(kerbin), 1e-3)
}

func TestGravAccel_Invalid(t *testing.T) {
	assert.Zero(t, GravAccel(nil))
	assert.Zero(t, GravAccel(&Body{Name: "Point", GravParameter: 1}))
}

func TestSurfaceBodies(t *testing.T) {
	names := SurfaceBodies(DefaultBodies)
	assert.Contains(t, names, "Kerbin")
	assert.Contains(t, names, "Mun")
	assert.NotContains(t, names, "Jool")
	assert.NotContains(t, names, "Kerbol")
	assert.Equal(t, "Moho", names[0], "order follows the body list")
}

func TestFindBody_Missing(t *testing.T) {
	_, ok := FindBody(DefaultBodies, "Earth")
	assert.False(t, ok)
}

func TestClampTWR(t *testing.T) {
	assert.Equal(t, MinTWR, ClampTWR(0))
	assert.Equal(t, MaxTWR, ClampTWR(50))
	assert.Equal(t, 1.5, ClampTWR(1.5))
}

func TestIdealWetMass(t *testing.T) {
	tests := []struct {
		name   string
		thrust float64
		g      float64
		twr    float64
		other  float64
		want   float64
		ok     bool
	}{
		{"simple", 200, 10, 2, 0, 10, true},
		{"minus other mass", 200, 10, 2, 4, 6, true},
		{"never negative", 200, 10, 2, 40, 0, true},
		{"no gravity", 200, 0, 2, 0, 0, false},
		{"no twr", 200, 10, 0, 0, 0, false},
		{"negative thrust", -1, 10, 1, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := IdealWetMass(tt.thrust, tt.g, tt.twr, tt.other)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestTarget(t *testing.T) {
	body := &Body{Name: "Flat", GravParameter: 10, Radius: 1}
	tgt := Target{Body: body, TWR: 2, ThrustASL: 100, ThrustVac: 200, OtherMass: 1}

	assert.Equal(t, 200.0, tgt.Thrust())
	assert.InDelta(t, 9, tgt.TargetWetMass(), 1e-12)

	tgt.Atmospheric = true
	assert.Equal(t, 100.0, tgt.Thrust())
	assert.InDelta(t, 4, tgt.TargetWetMass(), 1e-12)

	tgt.Body = nil
	assert.Zero(t, tgt.TargetWetMass())
}
