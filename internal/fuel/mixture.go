package fuel

import (
	"github.com/SmartTank/extension/pkg/core"
)

// MassPerUnit is the mass in tons of one unit of any tank resource.
const MassPerUnit = 0.005

// Catalog looks up tank type options by key.
type Catalog interface {
	LookupMixture(key core.FuelTypeKey) (core.MixtureRecord, bool)
}

// Load derives the densities of the mixture named key.
// A key missing from the catalog yields a zero-density mixture, which the fitter treats
// as "no fuel info yet".
func Load(key core.FuelTypeKey, catalog Catalog) core.FuelMixtureInfo {
	info := core.FuelMixtureInfo{Key: key}
	if catalog == nil {
		return info
	}
	rec, ok := catalog.LookupMixture(key)
	if !ok {
		return info
	}

	var unitsPerT float64
	for _, r := range rec.Resources {
		unitsPerT += r.UnitsPerT
	}

	info.Resources = append([]core.ResourceRate(nil), rec.Resources...)
	info.DryDensity = rec.DryDensity
	info.WetDensity = rec.DryDensity + MassPerUnit*unitsPerT*rec.DryDensity
	return info
}

// Loader memoizes the last mixture it loaded.
type Loader struct {
	catalog Catalog
	loaded  bool
	last    core.FuelMixtureInfo
}

// NewLoader creates a Loader reading from catalog.
func NewLoader(catalog Catalog) *Loader {
	return &Loader{catalog: catalog}
}

// Load returns the mixture for key, reusing the previous result when key is unchanged.
func (l *Loader) Load(key core.FuelTypeKey) core.FuelMixtureInfo {
	if l.loaded && l.last.Key == key {
		return l.last
	}
	l.last = Load(key, l.catalog)
	l.loaded = true
	return l.last
}

// Reset drops the memoized mixture, e.g. after the catalog was reloaded.
func (l *Loader) Reset() {
	l.loaded = false
	l.last = core.FuelMixtureInfo{}
}
