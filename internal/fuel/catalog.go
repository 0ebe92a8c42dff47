package fuel

import (
	"errors"
	"fmt"
	"os"

	"github.com/SmartTank/extension/pkg/core"
	"gopkg.in/yaml.v3"
)

// ErrEmptyCatalog is returned when a catalog file lists no tank types.
var ErrEmptyCatalog = errors.New("fuel catalog has no tank types")

// MemoryCatalog is a Catalog held in a map.
type MemoryCatalog map[core.FuelTypeKey]core.MixtureRecord

// LookupMixture implements Catalog.
func (c MemoryCatalog) LookupMixture(key core.FuelTypeKey) (core.MixtureRecord, bool) {
	rec, ok := c[key]
	return rec, ok
}

// Keys returns the tank type keys in the catalog.
func (c MemoryCatalog) Keys() []core.FuelTypeKey {
	keys := make([]core.FuelTypeKey, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// DefaultCatalog returns the stock tank type options.
func DefaultCatalog() MemoryCatalog {
	return MemoryCatalog{
		core.MixedFuel: {
			Name:       string(core.MixedFuel),
			DryDensity: 0.1089,
			Resources: []core.ResourceRate{
				{Name: "LiquidFuel", UnitsPerT: 86.939},
				{Name: "Oxidizer", UnitsPerT: 106.259},
			},
		},
		"LiquidFuel": {
			Name:       "LiquidFuel",
			DryDensity: 0.1089,
			Resources:  []core.ResourceRate{{Name: "LiquidFuel", UnitsPerT: 193.198}},
		},
		"Oxidizer": {
			Name:       "Oxidizer",
			DryDensity: 0.1089,
			Resources:  []core.ResourceRate{{Name: "Oxidizer", UnitsPerT: 193.198}},
		},
		"MonoPropellant": {
			Name:       "MonoPropellant",
			DryDensity: 0.1089,
			Resources:  []core.ResourceRate{{Name: "MonoPropellant", UnitsPerT: 166.667}},
		},
		"SolidFuel": {
			Name:       "SolidFuel",
			DryDensity: 0.0975,
			Resources:  []core.ResourceRate{{Name: "SolidFuel", UnitsPerT: 192.0}},
		},
	}
}

type catalogFile struct {
	TankTypes []core.MixtureRecord `yaml:"tankTypes"`
}

// ParseCatalog decodes a YAML list of tank type options.
func ParseCatalog(data []byte) (MemoryCatalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding fuel catalog: %w", err)
	}
	if len(f.TankTypes) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := make(MemoryCatalog, len(f.TankTypes))
	for i, rec := range f.TankTypes {
		if rec.Name == "" {
			return nil, fmt.Errorf("tank type %d has no name", i)
		}
		if rec.DryDensity < 0 {
			return nil, fmt.Errorf("tank type %q has negative dry density %g", rec.Name, rec.DryDensity)
		}
		c[core.FuelTypeKey(rec.Name)] = rec
	}
	return c, nil
}

// LoadCatalog reads a catalog file. An empty path returns the default catalog.
func LoadCatalog(path string) (MemoryCatalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fuel catalog: %w", err)
	}
	return ParseCatalog(data)
}
