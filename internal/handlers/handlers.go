package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/SmartTank/extension/internal/cache"
	"github.com/SmartTank/extension/internal/fuel"
	"github.com/SmartTank/extension/internal/logging"
	"github.com/SmartTank/extension/internal/tank"
	"github.com/SmartTank/extension/internal/twr"
	"github.com/SmartTank/extension/internal/util"
	"github.com/SmartTank/extension/pkg/core"
	"go.opentelemetry.io/otel/metric"
)

var (
	// ErrUnknownTank is returned for a tank ID that was never initialized or was removed.
	ErrUnknownTank = errors.New("unknown tank")
	// ErrInvalidRequest wraps every malformed payload.
	ErrInvalidRequest = errors.New("invalid request")
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Tanks          *cache.TankCache
	Catalog        fuel.Catalog
	Bodies         []twr.Body
	Defaults       tank.Settings
	DefaultTexture string
	// Journal receives every change made by a controller. May be nil.
	Journal    tank.Journal
	LogManager *logging.SlogManager
	// Meter is handed to new controllers; nil uses the global meter provider.
	Meter metric.Meter
}

// Service provides handler methods for the tank commands
type Service struct {
	deps         Dependencies
	writeLogFunc func(functionName, data, level string)

	mu      sync.RWMutex
	catalog fuel.Catalog
	bodies  []twr.Body
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	if deps.Tanks == nil {
		deps.Tanks = cache.NewTankCache()
	}
	if deps.Catalog == nil {
		deps.Catalog = fuel.DefaultCatalog()
	}
	if deps.Bodies == nil {
		deps.Bodies = twr.DefaultBodies
	}
	s := &Service{
		deps:    deps,
		catalog: deps.Catalog,
		bodies:  deps.Bodies,
	}
	// Default writeLog function uses the logging manager
	s.writeLogFunc = func(functionName, data, level string) {
		if deps.LogManager != nil {
			deps.LogManager.WriteLog(functionName, data, level)
		}
	}
	return s
}

// Tanks returns the controller registry.
func (s *Service) Tanks() *cache.TankCache {
	return s.deps.Tanks
}

func (s *Service) writeLog(functionName, data, level string) {
	s.writeLogFunc(functionName, data, level)
}

// decode reads the JSON payload the host sends as the first argument.
func decode(args []string, v any) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing payload", ErrInvalidRequest)
	}
	raw := util.UnquoteArg(args[0])
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

func (s *Service) lookup(id core.PartID) (*tank.Controller, error) {
	if id == 0 {
		return nil, fmt.Errorf("%w: missing tank id", ErrInvalidRequest)
	}
	ctrl, ok := s.deps.Tanks.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTank, id)
	}
	return ctrl, nil
}

////////////////////////
// INIT / ACTIVATE
////////////////////////

// InitRequest sets a tank up. Settings falls back to the configured defaults.
type InitRequest struct {
	ID               core.PartID      `json:"id"`
	TankType         core.FuelTypeKey `json:"tankType"`
	ShapeNameVisible bool             `json:"shapeNameVisible"`
	Settings         *tank.Settings   `json:"settings,omitempty"`
}

// InitResponse is what the host applies right after setting a tank up.
type InitResponse struct {
	ID             core.PartID          `json:"id"`
	Settings       tank.Settings        `json:"settings"`
	Visibility     tank.Visibility      `json:"visibility"`
	Mixture        core.FuelMixtureInfo `json:"mixture"`
	DefaultTexture string               `json:"defaultTexture"`
}

// InitTank creates a controller for a tank, replacing any previous one with the same ID.
func (s *Service) InitTank(args []string) (InitResponse, error) {
	functionName := ":TANK:INIT:"

	var req InitRequest
	if err := decode(args, &req); err != nil {
		return InitResponse{}, err
	}
	if req.ID == 0 {
		return InitResponse{}, fmt.Errorf("%w: missing tank id", ErrInvalidRequest)
	}

	settings := s.deps.Defaults
	if req.Settings != nil {
		settings = *req.Settings
	}

	var opts []tank.Option
	if s.deps.Journal != nil {
		opts = append(opts, tank.WithJournal(s.deps.Journal))
	}
	if s.deps.Meter != nil {
		opts = append(opts, tank.WithMeter(s.deps.Meter))
	}

	s.mu.RLock()
	catalog := s.catalog
	s.mu.RUnlock()

	ctrl, err := tank.New(req.ID, settings, catalog, opts...)
	if err != nil {
		return InitResponse{}, fmt.Errorf("creating controller: %w", err)
	}
	vis := ctrl.Initialize(req.TankType, req.ShapeNameVisible)
	s.deps.Tanks.Add(ctrl)

	s.writeLog(functionName, fmt.Sprintf("Initialized tank %d with type %s", req.ID, ctrl.FuelKey()), "DEBUG")

	return InitResponse{
		ID:             req.ID,
		Settings:       ctrl.Settings,
		Visibility:     vis,
		Mixture:        ctrl.Mixture(),
		DefaultTexture: s.deps.DefaultTexture,
	}, nil
}

// TankRequest addresses one tank.
type TankRequest struct {
	ID core.PartID `json:"id"`
}

// ActivateResponse reports whether per-tick updates are now running.
type ActivateResponse struct {
	ID     core.PartID `json:"id"`
	Active bool        `json:"active"`
}

// ActivateTank enables per-tick updates for a tank.
func (s *Service) ActivateTank(args []string) (ActivateResponse, error) {
	var req TankRequest
	if err := decode(args, &req); err != nil {
		return ActivateResponse{}, err
	}
	ctrl, err := s.lookup(req.ID)
	if err != nil {
		return ActivateResponse{}, err
	}
	return ActivateResponse{ID: req.ID, Active: ctrl.Activate()}, nil
}

// RemoveTank forgets a tank.
func (s *Service) RemoveTank(args []string) error {
	var req TankRequest
	if err := decode(args, &req); err != nil {
		return err
	}
	if req.ID == 0 {
		return fmt.Errorf("%w: missing tank id", ErrInvalidRequest)
	}
	if !s.deps.Tanks.Delete(req.ID) {
		return fmt.Errorf("%w: %d", ErrUnknownTank, req.ID)
	}
	s.writeLog(":TANK:REMOVE:", fmt.Sprintf("Removed tank %d", req.ID), "DEBUG")
	return nil
}

////////////////////////
// TICK / SCALE
////////////////////////

// UpdateRequest is one tick of one tank.
type UpdateRequest struct {
	ID       core.PartID    `json:"id"`
	Assembly *core.Assembly `json:"assembly"`
	Shape    ShapeState     `json:"shape"`
	// TankType is what the host currently shows. It is followed when fuel matching is off.
	TankType core.FuelTypeKey `json:"tankType,omitempty"`
	// PayloadMass is carried by the engine on top of its own mass and the tank.
	PayloadMass float64 `json:"payloadMass,omitempty"`
	// IdealWetMass overrides the TWR-derived target when set.
	IdealWetMass *float64 `json:"idealWetMass,omitempty"`
}

// UpdateResponse carries the controller result and the shape as the host should now show it.
type UpdateResponse struct {
	ID core.PartID `json:"id"`
	tank.Result
	State     ShapeState         `json:"state"`
	Recompute []core.ShapeFamily `json:"recompute,omitempty"`
}

// UpdateTank runs one tick.
func (s *Service) UpdateTank(args []string) (UpdateResponse, error) {
	var req UpdateRequest
	if err := decode(args, &req); err != nil {
		return UpdateResponse{}, err
	}
	ctrl, err := s.lookup(req.ID)
	if err != nil {
		return UpdateResponse{}, err
	}
	if !ctrl.Settings.FuelMatching {
		ctrl.SetTankType(req.TankType)
	}

	sink := newShapeSink(req.Shape)
	res := ctrl.Update(graph(req.Assembly), sink, s.target(ctrl, req))
	return UpdateResponse{ID: req.ID, Result: res, State: sink.state, Recompute: sink.recompute}, nil
}

// ScaleTank fits the tank to its target once, whatever the auto-scale toggle says.
func (s *Service) ScaleTank(args []string) (UpdateResponse, error) {
	var req UpdateRequest
	if err := decode(args, &req); err != nil {
		return UpdateResponse{}, err
	}
	ctrl, err := s.lookup(req.ID)
	if err != nil {
		return UpdateResponse{}, err
	}

	sink := newShapeSink(req.Shape)
	res := ctrl.ScaleNow(sink, s.target(ctrl, req))
	return UpdateResponse{ID: req.ID, Result: res, State: sink.state, Recompute: sink.recompute}, nil
}

// graph avoids handing the controller a typed nil.
func graph(a *core.Assembly) core.Graph {
	if a == nil {
		return nil
	}
	return a
}

type fixedTarget float64

func (t fixedTarget) TargetWetMass() float64 { return float64(t) }

// target builds the wet mass target for one tick. It is nil when nothing can drive the
// fit: no override, no engine attached or an unknown body.
func (s *Service) target(ctrl *tank.Controller, req UpdateRequest) tank.TargetProvider {
	if req.IdealWetMass != nil {
		return fixedTarget(*req.IdealWetMass)
	}
	if req.Assembly == nil {
		return nil
	}
	self, ok := req.Assembly.Part(ctrl.ID)
	if !ok {
		return nil
	}
	engine := fuel.FindEngine(req.Assembly, self)
	if engine == nil {
		return nil
	}

	s.mu.RLock()
	body, ok := twr.FindBody(s.bodies, ctrl.Settings.BodyForTWR)
	s.mu.RUnlock()
	if !ok {
		s.writeLog(":TANK:UPDATE:", fmt.Sprintf("Unknown body %q for tank %d", ctrl.Settings.BodyForTWR, ctrl.ID), "WARN")
		return nil
	}

	return twr.Target{
		Body:        body,
		TWR:         ctrl.Settings.TargetTWR,
		Atmospheric: ctrl.Settings.Atmospheric,
		ThrustASL:   engine.Engine.ThrustASL,
		ThrustVac:   engine.Engine.ThrustVacuum,
		OtherMass:   engine.Mass + req.PayloadMass,
	}
}

////////////////////////
// SETTINGS
////////////////////////

// SettingsRequest replaces a tank's toggles.
type SettingsRequest struct {
	ID       core.PartID   `json:"id"`
	Settings tank.Settings `json:"settings"`
}

// SettingsResponse echoes the normalized toggles and the visibility they imply.
type SettingsResponse struct {
	ID         core.PartID     `json:"id"`
	Settings   tank.Settings   `json:"settings"`
	Visibility tank.Visibility `json:"visibility"`
}

// ApplySettings replaces a tank's toggles.
func (s *Service) ApplySettings(args []string) (SettingsResponse, error) {
	var req SettingsRequest
	if err := decode(args, &req); err != nil {
		return SettingsResponse{}, err
	}
	ctrl, err := s.lookup(req.ID)
	if err != nil {
		return SettingsResponse{}, err
	}
	vis := ctrl.ApplySettings(req.Settings)
	return SettingsResponse{ID: req.ID, Settings: ctrl.Settings, Visibility: vis}, nil
}

////////////////////////
// BODIES / CATALOG
////////////////////////

// BodiesResponse lists what the TWR body selector may offer.
type BodiesResponse struct {
	Bodies []string `json:"bodies"`
}

// Bodies lists the bodies with a solid surface.
func (s *Service) Bodies() BodiesResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return BodiesResponse{Bodies: twr.SurfaceBodies(s.bodies)}
}

// CatalogRequest names a fuel catalog file. An empty path restores the stock catalog.
type CatalogRequest struct {
	Path string `json:"path"`
}

// CatalogResponse reports how many tanks picked the new catalog up.
type CatalogResponse struct {
	Tanks int `json:"tanks"`
}

// ReloadCatalog loads a catalog file and hands it to every known tank.
func (s *Service) ReloadCatalog(args []string) (CatalogResponse, error) {
	var req CatalogRequest
	if len(args) > 0 {
		if err := decode(args, &req); err != nil {
			return CatalogResponse{}, err
		}
	}
	catalog, err := fuel.LoadCatalog(req.Path)
	if err != nil {
		return CatalogResponse{}, err
	}
	n := s.SetCatalog(catalog)
	s.writeLog(":CATALOG:RELOAD:", fmt.Sprintf("Loaded fuel catalog %q into %d tanks", req.Path, n), "INFO")
	return CatalogResponse{Tanks: n}, nil
}

// SetCatalog swaps the catalog for new and existing tanks and returns how many tanks were updated.
func (s *Service) SetCatalog(catalog fuel.Catalog) int {
	s.mu.Lock()
	s.catalog = catalog
	s.mu.Unlock()

	n := 0
	s.deps.Tanks.Each(func(c *tank.Controller) {
		c.ReloadCatalog(catalog)
		n++
	})
	return n
}
