// Package fuel picks a tank's fuel mixture from the engine it feeds and derives the
// mixture's densities from the fuel catalog.
package fuel

import (
	"github.com/SmartTank/extension/pkg/core"
)

// TankType maps an engine's consumed resources to a tank type key.
// Engines burning a single resource get a tank of that resource; anything else
// (no engine, bipropellant, multi-resource) gets the mixed fallback.
func TankType(engine *core.Engine) core.FuelTypeKey {
	if engine == nil || len(engine.ConsumedResources) != 1 {
		return core.MixedFuel
	}
	return core.FuelTypeKey(engine.ConsumedResources[0])
}

// FindEngine returns the first part with engine capability attached to one of the
// tank's nodes, in node order.
func FindEngine(g core.Graph, tank *core.Part) *core.Part {
	if g == nil || tank == nil {
		return nil
	}
	for i := range tank.Nodes {
		p, ok := g.Part(tank.Nodes[i].AttachedPart)
		if ok && p.Engine != nil {
			return p
		}
	}
	return nil
}

// Resolve returns the tank type the tank should carry.
func Resolve(g core.Graph, tank *core.Part) core.FuelTypeKey {
	if engine := FindEngine(g, tank); engine != nil {
		return TankType(engine.Engine)
	}
	return core.MixedFuel
}

// Match resolves the tank type and reports whether it differs from current.
func Match(current core.FuelTypeKey, g core.Graph, tank *core.Part) (key core.FuelTypeKey, changed bool) {
	key = Resolve(g, tank)
	return key, key != current
}
