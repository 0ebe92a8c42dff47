// Package fitter solves for the tank length that makes a shape hold a target wet mass.
//
// Every supported family has a closed-form volume, so the free length parameter is
// found by direct inversion:
//
//	cylinder  V = π r² L
//	cone      V = π L (t² + t b + b²) / 12
//	capsule   V = π (6 d² L + (10 − 3π) f³ + 3 (π − 4) d f²) / 24
package fitter

import (
	"math"

	"github.com/SmartTank/extension/pkg/core"
)

const (
	// Hysteresis is the smallest length change worth applying.
	Hysteresis = 0.05
	// MinLength is the floor for cone and capsule lengths.
	MinLength = 1.0
)

// Volume returns the fuel volume needed to reach targetWetMass at wetDensity.
func Volume(targetWetMass, wetDensity float64) (float64, bool) {
	if !(wetDensity > 0) {
		return 0, false
	}
	v := targetWetMass / wetDensity
	if !(v > 0) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// CylinderLength inverts the cylinder volume. The result never drops below the radius.
func CylinderLength(diameter, volume float64) (float64, bool) {
	if !(diameter > 0) || !(volume > 0) {
		return 0, false
	}
	r := 0.5 * diameter
	l := volume / (math.Pi * r * r)
	if l < r {
		l = r
	}
	return finite(l)
}

// ConeLength inverts the frustum volume. The result never drops below MinLength.
func ConeLength(top, bottom, volume float64) (float64, bool) {
	if top < 0 || bottom < 0 || !(volume > 0) {
		return 0, false
	}
	denom := math.Pi * (top*top + top*bottom + bottom*bottom)
	if !(denom > 0) {
		return 0, false
	}
	l := volume * 12 / denom
	if l < MinLength {
		l = MinLength
	}
	return finite(l)
}

// CapsuleLength inverts the pill volume for a fixed fillet. The result never drops
// below MinLength.
func CapsuleLength(diameter, fillet, volume float64) (float64, bool) {
	if !(volume > 0) || fillet < 0 {
		return 0, false
	}
	denom := 6 * diameter * diameter
	if !(denom > 0) {
		return 0, false
	}
	l := (volume*24/math.Pi -
		(10-3*math.Pi)*fillet*fillet*fillet -
		3*(math.Pi-4)*diameter*fillet*fillet) / denom
	if l < MinLength {
		l = MinLength
	}
	return finite(l)
}

// SolveLength returns the length at which dims holds targetWetMass worth of
// fully-loaded tank. ok is false when there is no fuel info yet (wetDensity <= 0),
// the inputs are degenerate, or the family has no closed-form inversion.
func SolveLength(dims core.ShapeDimensions, targetWetMass, wetDensity float64) (float64, bool) {
	v, ok := Volume(targetWetMass, wetDensity)
	if !ok {
		return 0, false
	}
	switch dims.Family {
	case core.ShapeCylinder:
		return CylinderLength(dims.Diameter, v)
	case core.ShapeCone:
		return ConeLength(dims.TopDiameter, dims.BottomDiameter, v)
	case core.ShapeCapsule:
		return CapsuleLength(dims.Diameter, dims.Fillet, v)
	default:
		return 0, false
	}
}

// CylinderVolume is the volume of a cylinder.
func CylinderVolume(diameter, length float64) float64 {
	r := 0.5 * diameter
	return math.Pi * r * r * length
}

// ConeVolume is the volume of a frustum.
func ConeVolume(top, bottom, length float64) float64 {
	return math.Pi * length * (top*top + top*bottom + bottom*bottom) / 12
}

// CapsuleVolume is the volume of a pill with the given fillet.
func CapsuleVolume(diameter, fillet, length float64) float64 {
	return math.Pi * (6*diameter*diameter*length +
		(10-3*math.Pi)*fillet*fillet*fillet +
		3*(math.Pi-4)*diameter*fillet*fillet) / 24
}

func finite(l float64) (float64, bool) {
	if math.IsNaN(l) || math.IsInf(l, 0) {
		return 0, false
	}
	return l, true
}
