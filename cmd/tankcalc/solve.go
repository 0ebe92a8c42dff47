package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/SmartTank/extension/internal/diameter"
	"github.com/SmartTank/extension/internal/fitter"
	"github.com/SmartTank/extension/internal/fuel"
	"github.com/SmartTank/extension/internal/twr"
	"github.com/SmartTank/extension/pkg/core"
)

var (
	errNoShape  = errors.New("no diameter given: set --diameter, --top/--bottom or --size-top/--size-bottom")
	errNoTarget = errors.New("no target: set --wet-mass or an engine thrust")
)

// request is one tank to size.
type request struct {
	Family   string
	Diameter float64
	Top      float64
	Bottom   float64
	// Node size codes; negative means unset.
	SizeTop    int
	SizeBottom int
	Fillet     float64

	Fuel    string
	WetMass float64

	ThrustVac   float64
	ThrustASL   float64
	Atmospheric bool
	TWR         float64
	Body        string
	OtherMass   float64
}

// result is printed as JSON.
type result struct {
	Shape         core.ShapeDimensions `json:"shape"`
	Mixture       core.FuelMixtureInfo `json:"mixture"`
	Gravity       float64              `json:"gravity,omitempty"`
	TargetWetMass float64              `json:"targetWetMass"`
	Volume        float64              `json:"volume"`
	WetMass       float64              `json:"wetMass"`
	DryMass       float64              `json:"dryMass"`
}

func solve(req request, catalog fuel.Catalog, bodies []twr.Body) (result, error) {
	var res result

	dims, err := shapeOf(req)
	if err != nil {
		return res, err
	}

	res.Mixture = fuel.Load(core.FuelTypeKey(req.Fuel), catalog)
	if !(res.Mixture.WetDensity > 0) {
		return res, fmt.Errorf("unknown tank type %q", req.Fuel)
	}

	switch {
	case req.WetMass > 0:
		res.TargetWetMass = req.WetMass
	case req.ThrustVac > 0 || req.ThrustASL > 0:
		body, ok := twr.FindBody(bodies, req.Body)
		if !ok {
			return res, fmt.Errorf("unknown body %q", req.Body)
		}
		t := twr.Target{
			Body:        body,
			TWR:         twr.ClampTWR(req.TWR),
			Atmospheric: req.Atmospheric,
			ThrustASL:   req.ThrustASL,
			ThrustVac:   req.ThrustVac,
			OtherMass:   req.OtherMass,
		}
		res.Gravity = twr.GravAccel(body)
		res.TargetWetMass = t.TargetWetMass()
	default:
		return res, errNoTarget
	}

	length, ok := fitter.SolveLength(dims, res.TargetWetMass, res.Mixture.WetDensity)
	if !ok {
		return res, fmt.Errorf("cannot fit %.3ft into a %s", res.TargetWetMass, dims.Family)
	}
	dims.Length = length
	res.Shape = dims

	res.Volume = volumeOf(dims)
	res.WetMass = res.Volume * res.Mixture.WetDensity
	res.DryMass = res.Volume * res.Mixture.DryDensity
	return res, nil
}

// shapeOf builds the shape from explicit diameters, or from node sizes the way an
// attached tank would pick it.
func shapeOf(req request) (core.ShapeDimensions, error) {
	top, bottom := endDiameter(req.Top, req.SizeTop), endDiameter(req.Bottom, req.SizeBottom)

	if req.Family == "" {
		if req.Diameter > 0 {
			return core.ShapeDimensions{Family: core.ShapeCylinder, Diameter: req.Diameter}, nil
		}
		sel, ok := diameter.Resolve(top, bottom)
		if !ok {
			return core.ShapeDimensions{}, errNoShape
		}
		if sel.Family == core.ShapeCone {
			return core.ShapeDimensions{Family: core.ShapeCone, TopDiameter: sel.TopDiameter, BottomDiameter: sel.BottomDiameter}, nil
		}
		return core.ShapeDimensions{Family: core.ShapeCylinder, Diameter: sel.Diameter()}, nil
	}

	fam := parseFamily(req.Family)
	switch fam {
	case core.ShapeCylinder, core.ShapeCapsule:
		d := req.Diameter
		if !(d > 0) && top != nil {
			d = *top
		}
		if !(d > 0) {
			return core.ShapeDimensions{}, errNoShape
		}
		return core.ShapeDimensions{Family: fam, Diameter: d, Fillet: req.Fillet}, nil
	case core.ShapeCone:
		if top == nil || bottom == nil {
			return core.ShapeDimensions{}, errNoShape
		}
		return core.ShapeDimensions{Family: fam, TopDiameter: *top, BottomDiameter: *bottom}, nil
	default:
		return core.ShapeDimensions{}, fmt.Errorf("unknown shape family %q", req.Family)
	}
}

// parseFamily accepts host shape names in any case.
func parseFamily(name string) core.ShapeFamily {
	if strings.EqualFold(name, "capsule") {
		return core.ShapeCapsule
	}
	for _, f := range core.Families {
		if strings.EqualFold(name, f.String()) {
			return f
		}
	}
	return core.ShapeNone
}

func endDiameter(d float64, size int) *float64 {
	if d > 0 {
		return &d
	}
	if size >= 0 && size <= 255 {
		v := diameter.SizeToDiameter(uint8(size))
		return &v
	}
	return nil
}

func volumeOf(d core.ShapeDimensions) float64 {
	switch d.Family {
	case core.ShapeCylinder:
		return fitter.CylinderVolume(d.Diameter, d.Length)
	case core.ShapeCone:
		return fitter.ConeVolume(d.TopDiameter, d.BottomDiameter, d.Length)
	case core.ShapeCapsule:
		return fitter.CapsuleVolume(d.Diameter, d.Fillet, d.Length)
	}
	return 0
}
