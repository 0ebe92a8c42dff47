// Package tank runs the per-tick auto-configuration of one procedural fuel tank:
// diameter matching, then fuel matching, then length fitting.
package tank

import (
	"context"
	"time"

	"github.com/SmartTank/extension/internal/diameter"
	"github.com/SmartTank/extension/internal/fitter"
	"github.com/SmartTank/extension/internal/fuel"
	"github.com/SmartTank/extension/pkg/core"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Shape is the host's shape-mutation surface for one tank.
type Shape interface {
	fitter.Shapes
	// ApplyShape switches the active shape and sets its diameters.
	ApplyShape(sel core.ShapeSelection)
}

// TargetProvider supplies the wet mass the tank should reach.
type TargetProvider interface {
	TargetWetMass() float64
}

// Journal receives every change the controller makes.
type Journal interface {
	ShapeChanged(core.ShapeChange)
	FuelChanged(core.FuelChange)
	LengthChanged(core.LengthChange)
}

// Option configures a Controller.
type Option func(*Controller)

// WithJournal records changes to j.
func WithJournal(j Journal) Option {
	return func(c *Controller) {
		c.journal = j
	}
}

// WithSession tags journal entries with a session ID.
func WithSession(id string) Option {
	return func(c *Controller) {
		c.session = id
	}
}

// WithClock replaces time.Now for journal timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithMeter records counters on m instead of the global meter.
func WithMeter(m metric.Meter) Option {
	return func(c *Controller) {
		c.meter = m
	}
}

// Result is the outcome of one tick or manual scale.
type Result struct {
	Active          bool                 `json:"active"`
	Shape           *core.ShapeSelection `json:"shape,omitempty"`
	FuelKey         core.FuelTypeKey     `json:"fuelKey"`
	FuelChanged     bool                 `json:"fuelChanged"`
	WetDensity      float64              `json:"wetDensity"`
	TargetWetMass   float64              `json:"targetWetMass"`
	Proposals       []fitter.Proposal    `json:"proposals,omitempty"`
	Visibility      Visibility           `json:"visibility"`
	ResourcesLocked bool                 `json:"resourcesLocked"`
}

// Controller holds the small per-tank state kept between ticks.
// It is not safe for concurrent use; the host calls it from one thread.
type Controller struct {
	ID       core.PartID
	Settings Settings

	loader  *fuel.Loader
	fuelKey core.FuelTypeKey
	mixture core.FuelMixtureInfo

	// Whether the host showed the shape name selector when the tank was set up.
	shapeNameDefault bool

	initialized bool
	active      bool

	journal Journal
	session string
	now     func() time.Time
	meter   metric.Meter
	metrics *instruments
	attrs   metric.MeasurementOption
}

// New creates a controller for the tank with the given part ID.
func New(id core.PartID, settings Settings, catalog fuel.Catalog, opts ...Option) (*Controller, error) {
	c := &Controller{
		ID:       id,
		Settings: settings.Normalized(),
		loader:   fuel.NewLoader(catalog),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.meter == nil {
		c.meter = meter()
	}
	in, err := newInstruments(c.meter)
	if err != nil {
		return nil, err
	}
	c.metrics = in
	c.attrs = metric.WithAttributes(attribute.Int64("tank", int64(id)))
	return c, nil
}

// Initialize performs immediate setup: it loads fuel info for the tank type the host
// currently has and remembers whether the shape selector was visible.
func (c *Controller) Initialize(tankType core.FuelTypeKey, shapeNameVisible bool) Visibility {
	c.shapeNameDefault = shapeNameVisible
	c.fuelKey = tankType
	c.mixture = c.loader.Load(tankType)
	c.initialized = true
	return c.Visibility()
}

// Activate enables per-tick updates. It reports false if Initialize has not run.
func (c *Controller) Activate() bool {
	if !c.initialized {
		return false
	}
	c.active = true
	return true
}

// Active reports whether Update does anything.
func (c *Controller) Active() bool { return c.active }

// FuelKey is the tank type the controller believes the tank has.
func (c *Controller) FuelKey() core.FuelTypeKey { return c.fuelKey }

// Mixture is the currently loaded fuel info.
func (c *Controller) Mixture() core.FuelMixtureInfo { return c.mixture }

// Visibility derives the host's field visibility from the current settings.
func (c *Controller) Visibility() Visibility {
	return visibility(c.Settings, c.shapeNameDefault)
}

// ApplySettings replaces the toggles and returns the resulting visibility.
func (c *Controller) ApplySettings(s Settings) Visibility {
	c.Settings = s.Normalized()
	return c.Visibility()
}

// SetTankType follows a tank type the user picked on the host and reloads the mixture.
func (c *Controller) SetTankType(key core.FuelTypeKey) {
	if key == "" || key == c.fuelKey {
		return
	}
	c.fuelKey = key
	c.mixture = c.loader.Load(key)
}

// ReloadCatalog swaps the catalog and reloads the mixture of the current tank type.
func (c *Controller) ReloadCatalog(catalog fuel.Catalog) {
	c.loader = fuel.NewLoader(catalog)
	c.mixture = c.loader.Load(c.fuelKey)
}

// Update runs one tick over the read-only snapshot g. It does nothing until Activate.
func (c *Controller) Update(g core.Graph, shape Shape, target TargetProvider) Result {
	if !c.active {
		return Result{FuelKey: c.fuelKey, Visibility: c.Visibility()}
	}
	res := Result{Active: true}

	var self *core.Part
	if g != nil {
		self, _ = g.Part(c.ID)
	}
	if self != nil {
		if c.Settings.DiameterMatching {
			res.Shape = c.matchDiameters(g, self, shape)
		}
		if c.Settings.FuelMatching {
			res.FuelChanged = c.matchFuel(g, self)
		}
	}
	if c.Settings.AutoScale {
		res.Proposals, res.TargetWetMass = c.scale(shape, target)
	}

	res.FuelKey = c.fuelKey
	res.WetDensity = c.mixture.WetDensity
	res.Visibility = c.Visibility()
	res.ResourcesLocked = c.Settings.AutoScale
	return res
}

// ScaleNow fits every shape component to the target once, whatever AutoScale says.
func (c *Controller) ScaleNow(shape Shape, target TargetProvider) Result {
	res := Result{Active: c.active, FuelKey: c.fuelKey}
	if c.initialized {
		res.Proposals, res.TargetWetMass = c.scale(shape, target)
	}
	res.WetDensity = c.mixture.WetDensity
	res.Visibility = c.Visibility()
	res.ResourcesLocked = c.Settings.AutoScale
	return res
}

func (c *Controller) matchDiameters(g core.Graph, self *core.Part, shape Shape) *core.ShapeSelection {
	if shape == nil {
		return nil
	}
	sel, ok := diameter.Match(g, self)
	if !ok || !differs(shape, sel) {
		return nil
	}
	shape.ApplyShape(sel)
	c.metrics.shapes.Add(context.Background(), 1, c.attrs)
	if c.journal != nil {
		c.journal.ShapeChanged(core.ShapeChange{
			SessionID: c.session,
			TankID:    c.ID,
			Time:      c.now(),
			Selection: sel,
		})
	}
	return &sel
}

func (c *Controller) matchFuel(g core.Graph, self *core.Part) bool {
	key, changed := fuel.Match(c.fuelKey, g, self)
	if !changed {
		return false
	}
	from := c.fuelKey
	c.fuelKey = key
	c.mixture = c.loader.Load(key)
	c.metrics.fuels.Add(context.Background(), 1, c.attrs)
	if c.journal != nil {
		c.journal.FuelChanged(core.FuelChange{
			SessionID:  c.session,
			TankID:     c.ID,
			Time:       c.now(),
			From:       from,
			To:         key,
			WetDensity: c.mixture.WetDensity,
		})
	}
	return true
}

func (c *Controller) scale(shape Shape, target TargetProvider) ([]fitter.Proposal, float64) {
	if shape == nil || target == nil {
		return nil, 0
	}
	state := core.TargetState{
		TargetWetMass: target.TargetWetMass(),
		WetDensity:    c.mixture.WetDensity,
	}
	props := fitter.FitAll(shape, state)
	if len(props) > 0 {
		c.metrics.lengths.Add(context.Background(), int64(len(props)), c.attrs)
	}
	if c.journal != nil {
		ts := c.now()
		for _, p := range props {
			c.journal.LengthChanged(core.LengthChange{
				SessionID:     c.session,
				TankID:        c.ID,
				Time:          ts,
				Family:        p.Family,
				From:          p.From,
				To:            p.To,
				TargetWetMass: state.TargetWetMass,
				WetDensity:    state.WetDensity,
				Recomputed:    p.Recomputed,
			})
		}
	}
	return props, state.TargetWetMass
}

// differs reports whether sel would change what the shape currently shows.
func differs(shape Shape, sel core.ShapeSelection) bool {
	if shape.ActiveFamily() != sel.Family {
		return true
	}
	dims, ok := shape.Dimensions(sel.Family)
	if !ok {
		return true
	}
	switch sel.Family {
	case core.ShapeCone:
		return dims.TopDiameter != sel.TopDiameter || dims.BottomDiameter != sel.BottomDiameter
	default:
		return dims.Diameter != sel.Diameter()
	}
}
