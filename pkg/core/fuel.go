// pkg/core/fuel.go
package core

// FuelTypeKey names a tank type option (resource mixture).
type FuelTypeKey string

// MixedFuel is the generic dual-resource mixture used when no single-resource engine is attached.
const MixedFuel FuelTypeKey = "Mixed"

// ResourceRate is the number of resource units carried per ton of dry tank mass.
type ResourceRate struct {
	Name      string  `json:"name" yaml:"name"`
	UnitsPerT float64 `json:"unitsPerT" yaml:"unitsPerT"`
}

// MixtureRecord is a raw tank type option as listed in the fuel catalog.
type MixtureRecord struct {
	Name       string         `json:"name" yaml:"name"`
	DryDensity float64        `json:"dryDensity" yaml:"dryDensity"`
	Resources  []ResourceRate `json:"resources" yaml:"resources"`
}

// FuelMixtureInfo is a mixture with its derived densities.
type FuelMixtureInfo struct {
	Key        FuelTypeKey    `json:"key"`
	Resources  []ResourceRate `json:"resources"`
	DryDensity float64        `json:"dryDensity"`
	WetDensity float64        `json:"wetDensity"`
}
