package handlers

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SmartTank/extension/internal/cache"
	"github.com/SmartTank/extension/internal/dispatcher"
	"github.com/SmartTank/extension/internal/fuel"
	"github.com/SmartTank/extension/internal/tank"
	"github.com/SmartTank/extension/internal/twr"
	"github.com/SmartTank/extension/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

var testCatalog = fuel.MemoryCatalog{
	"Mixed": {Name: "Mixed", DryDensity: 0.1},
	"LiquidFuel": {Name: "LiquidFuel", DryDensity: 0.1, Resources: []core.ResourceRate{
		{Name: "LiquidFuel", UnitsPerT: 160},
	}},
}

type recordingJournal struct {
	shapes  []core.ShapeChange
	fuels   []core.FuelChange
	lengths []core.LengthChange
}

func (j *recordingJournal) ShapeChanged(c core.ShapeChange)   { j.shapes = append(j.shapes, c) }
func (j *recordingJournal) FuelChanged(c core.FuelChange)     { j.fuels = append(j.fuels, c) }
func (j *recordingJournal) LengthChanged(c core.LengthChange) { j.lengths = append(j.lengths, c) }

type mockLogger struct{}

func (mockLogger) Debug(string, ...any) {}
func (mockLogger) Info(string, ...any)  {}
func (mockLogger) Error(string, ...any) {}

func newTestService(j tank.Journal) *Service {
	return NewService(Dependencies{
		Tanks:          cache.NewTankCache(),
		Catalog:        testCatalog,
		Defaults:       tank.DefaultSettings(),
		DefaultTexture: "Original",
		Journal:        j,
		Meter:          noop.NewMeterProvider().Meter("test"),
	})
}

// payload encodes v the way the host passes strings: quoted, with inner quotes doubled.
func payload(t *testing.T, v any) []string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return []string{`"` + strings.ReplaceAll(string(b), `"`, `""`) + `"`}
}

// rocket is a tank (1) under a size-2 capsule (2) and over a LiquidFuel engine of size 1 (3).
func rocket() *core.Assembly {
	return core.NewAssembly(
		&core.Part{ID: 1, Name: "tank", Nodes: []core.AttachNode{
			{ID: core.NodeTop, Owner: 1, AttachedPart: 2, Type: core.NodeStack},
			{ID: core.NodeBottom, Owner: 1, AttachedPart: 3, Type: core.NodeStack},
		}},
		&core.Part{ID: 2, Name: "capsule", Nodes: []core.AttachNode{
			{ID: core.NodeBottom, Owner: 2, AttachedPart: 1, Size: 2, Type: core.NodeStack},
		}},
		&core.Part{ID: 3, Name: "engine", Mass: 1.5, Nodes: []core.AttachNode{
			{ID: core.NodeTop, Owner: 3, AttachedPart: 1, Size: 1, Type: core.NodeStack},
		}, Engine: &core.Engine{ConsumedResources: []string{"LiquidFuel"}, ThrustVacuum: 60, ThrustASL: 14}},
	)
}

func cylinderShape() ShapeState {
	return ShapeState{
		Active: core.ShapeCylinder,
		Components: []core.ShapeDimensions{
			{Family: core.ShapeCylinder, Diameter: 1.25, Length: 1},
			{Family: core.ShapeCone, TopDiameter: 1.25, BottomDiameter: 1.25, Length: 1},
		},
	}
}

func initTank(t *testing.T, s *Service, id core.PartID) {
	t.Helper()
	_, err := s.InitTank(payload(t, InitRequest{ID: id, TankType: "Mixed", ShapeNameVisible: true}))
	require.NoError(t, err)
	_, err = s.ActivateTank(payload(t, TankRequest{ID: id}))
	require.NoError(t, err)
}

func TestDecode(t *testing.T) {
	var req TankRequest
	require.NoError(t, decode([]string{`"{""id"":7}"`}, &req))
	assert.Equal(t, core.PartID(7), req.ID)

	require.NoError(t, decode([]string{`{"id":8}`}, &req))
	assert.Equal(t, core.PartID(8), req.ID)

	assert.ErrorIs(t, decode(nil, &req), ErrInvalidRequest)
	assert.ErrorIs(t, decode([]string{"not json"}, &req), ErrInvalidRequest)
}

func TestInitTank(t *testing.T) {
	s := newTestService(nil)

	resp, err := s.InitTank(payload(t, InitRequest{ID: 1, TankType: "LiquidFuel", ShapeNameVisible: true}))
	require.NoError(t, err)

	assert.Equal(t, core.PartID(1), resp.ID)
	assert.Equal(t, "Original", resp.DefaultTexture)
	assert.Equal(t, tank.DefaultSettings(), resp.Settings)
	assert.Equal(t, tank.Visibility{}, resp.Visibility)
	assert.Equal(t, core.FuelTypeKey("LiquidFuel"), resp.Mixture.Key)
	assert.InDelta(t, 0.18, resp.Mixture.WetDensity, 1e-12)
	assert.Equal(t, 1, s.Tanks().Len())
}

func TestInitTank_CustomSettings(t *testing.T) {
	s := newTestService(nil)
	settings := tank.DefaultSettings()
	settings.DiameterMatching = false
	settings.AutoScale = false
	settings.TargetTWR = 50

	resp, err := s.InitTank(payload(t, InitRequest{ID: 4, TankType: "Mixed", ShapeNameVisible: true, Settings: &settings}))
	require.NoError(t, err)

	assert.Equal(t, twr.MaxTWR, resp.Settings.TargetTWR)
	assert.Equal(t, tank.Visibility{
		DiameterEditable:    true,
		ShapeNameSelectable: true,
		LengthEditable:      true,
		ScaleNowVisible:     true,
	}, resp.Visibility)
}

func TestInitTank_Invalid(t *testing.T) {
	s := newTestService(nil)

	_, err := s.InitTank(payload(t, InitRequest{TankType: "Mixed"}))
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = s.InitTank(nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, 0, s.Tanks().Len())
}

func TestActivateTank_Unknown(t *testing.T) {
	s := newTestService(nil)

	_, err := s.ActivateTank(payload(t, TankRequest{ID: 9}))
	assert.ErrorIs(t, err, ErrUnknownTank)

	_, err = s.ActivateTank(payload(t, TankRequest{}))
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestUpdateTank_FullTick(t *testing.T) {
	j := &recordingJournal{}
	s := newTestService(j)
	initTank(t, s, 1)

	resp, err := s.UpdateTank(payload(t, UpdateRequest{
		ID:          1,
		Assembly:    rocket(),
		Shape:       cylinderShape(),
		PayloadMass: 0.5,
	}))
	require.NoError(t, err)

	require.True(t, resp.Active)
	require.NotNil(t, resp.Result.Shape)
	assert.Equal(t, core.Cone(2.5, 1.25), *resp.Result.Shape)
	assert.True(t, resp.FuelChanged)
	assert.Equal(t, core.FuelTypeKey("LiquidFuel"), resp.FuelKey)

	kerbin, ok := twr.FindBody(twr.DefaultBodies, "Kerbin")
	require.True(t, ok)
	want, ok := twr.IdealWetMass(60, twr.GravAccel(kerbin), 1.5, 2.0)
	require.True(t, ok)
	assert.InDelta(t, want, resp.TargetWetMass, 1e-9)

	// The cone became active and carries the new diameters and length.
	assert.Equal(t, core.ShapeCone, resp.State.Active)
	require.Len(t, resp.State.Components, 2)
	cone := resp.State.Components[1]
	assert.Equal(t, 2.5, cone.TopDiameter)
	assert.Equal(t, 1.25, cone.BottomDiameter)

	require.Len(t, resp.Proposals, 2)
	assert.Equal(t, core.ShapeCone, resp.Proposals[1].Family)
	assert.Equal(t, resp.Proposals[1].To, cone.Length)
	assert.Equal(t, resp.Proposals[0].To, resp.State.Components[0].Length)
	assert.Equal(t, []core.ShapeFamily{core.ShapeCone}, resp.Recompute)

	assert.Len(t, j.shapes, 1)
	assert.Len(t, j.fuels, 1)
	assert.Len(t, j.lengths, 2)
}

func TestUpdateTank_Atmospheric(t *testing.T) {
	s := newTestService(nil)
	settings := tank.DefaultSettings()
	settings.Atmospheric = true
	settings.TargetTWR = 0.5
	_, err := s.InitTank(payload(t, InitRequest{ID: 1, TankType: "Mixed", Settings: &settings}))
	require.NoError(t, err)
	_, err = s.ActivateTank(payload(t, TankRequest{ID: 1}))
	require.NoError(t, err)

	resp, err := s.UpdateTank(payload(t, UpdateRequest{ID: 1, Assembly: rocket(), Shape: cylinderShape()}))
	require.NoError(t, err)

	kerbin, _ := twr.FindBody(twr.DefaultBodies, "Kerbin")
	want, _ := twr.IdealWetMass(14, twr.GravAccel(kerbin), 0.5, 1.5)
	assert.InDelta(t, want, resp.TargetWetMass, 1e-9)
}

func TestUpdateTank_IdealWetMassOverride(t *testing.T) {
	s := newTestService(nil)
	initTank(t, s, 1)
	wet := 10.0

	resp, err := s.UpdateTank(payload(t, UpdateRequest{ID: 1, Assembly: rocket(), Shape: cylinderShape(), IdealWetMass: &wet}))
	require.NoError(t, err)
	assert.Equal(t, 10.0, resp.TargetWetMass)
}

func TestUpdateTank_NoEngineNoScaling(t *testing.T) {
	s := newTestService(nil)
	initTank(t, s, 1)

	asm := core.NewAssembly(&core.Part{ID: 1, Nodes: []core.AttachNode{
		{ID: core.NodeTop, Owner: 1},
	}})
	resp, err := s.UpdateTank(payload(t, UpdateRequest{ID: 1, Assembly: asm, Shape: cylinderShape()}))
	require.NoError(t, err)

	assert.True(t, resp.Active)
	assert.Nil(t, resp.Result.Shape)
	assert.Empty(t, resp.Proposals)
	assert.Equal(t, core.MixedFuel, resp.FuelKey)
	assert.Equal(t, cylinderShape(), resp.State)
}

func TestUpdateTank_UnknownBody(t *testing.T) {
	s := newTestService(nil)
	settings := tank.DefaultSettings()
	settings.BodyForTWR = "Tatooine"
	_, err := s.InitTank(payload(t, InitRequest{ID: 1, TankType: "Mixed", Settings: &settings}))
	require.NoError(t, err)
	_, err = s.ActivateTank(payload(t, TankRequest{ID: 1}))
	require.NoError(t, err)

	var logged []string
	s.writeLogFunc = func(functionName, data, level string) {
		logged = append(logged, level+" "+data)
	}

	resp, err := s.UpdateTank(payload(t, UpdateRequest{ID: 1, Assembly: rocket(), Shape: cylinderShape()}))
	require.NoError(t, err)
	assert.Empty(t, resp.Proposals)
	require.Len(t, logged, 1)
	assert.Contains(t, logged[0], "Tatooine")
}

func TestUpdateTank_FollowsManualTankType(t *testing.T) {
	s := newTestService(nil)
	settings := tank.DefaultSettings()
	settings.FuelMatching = false
	_, err := s.InitTank(payload(t, InitRequest{ID: 1, TankType: "Mixed", Settings: &settings}))
	require.NoError(t, err)
	_, err = s.ActivateTank(payload(t, TankRequest{ID: 1}))
	require.NoError(t, err)

	resp, err := s.UpdateTank(payload(t, UpdateRequest{ID: 1, Assembly: rocket(), Shape: cylinderShape(), TankType: "LiquidFuel"}))
	require.NoError(t, err)
	assert.False(t, resp.FuelChanged)
	assert.Equal(t, core.FuelTypeKey("LiquidFuel"), resp.FuelKey)
	assert.InDelta(t, 0.18, resp.WetDensity, 1e-12)
}

func TestUpdateTank_Errors(t *testing.T) {
	s := newTestService(nil)

	_, err := s.UpdateTank(payload(t, UpdateRequest{ID: 3}))
	assert.ErrorIs(t, err, ErrUnknownTank)

	_, err = s.UpdateTank([]string{"{"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestScaleTank_IgnoresAutoScale(t *testing.T) {
	s := newTestService(nil)
	settings := tank.DefaultSettings()
	settings.AutoScale = false
	_, err := s.InitTank(payload(t, InitRequest{ID: 1, TankType: "LiquidFuel", Settings: &settings}))
	require.NoError(t, err)
	wet := 10.0

	tick, err := s.UpdateTank(payload(t, UpdateRequest{ID: 1, Assembly: rocket(), Shape: cylinderShape(), IdealWetMass: &wet}))
	require.NoError(t, err)
	assert.Empty(t, tick.Proposals, "not active yet")

	resp, err := s.ScaleTank(payload(t, UpdateRequest{ID: 1, Shape: cylinderShape(), IdealWetMass: &wet}))
	require.NoError(t, err)
	require.Len(t, resp.Proposals, 2)
	assert.False(t, resp.ResourcesLocked)
	assert.True(t, resp.Visibility.ScaleNowVisible)
	assert.Equal(t, []core.ShapeFamily{core.ShapeCylinder}, resp.Recompute)
}

func TestApplySettings(t *testing.T) {
	s := newTestService(nil)
	initTank(t, s, 1)

	settings := tank.DefaultSettings()
	settings.FuelMatching = false
	settings.TargetTWR = 0
	resp, err := s.ApplySettings(payload(t, SettingsRequest{ID: 1, Settings: settings}))
	require.NoError(t, err)

	assert.Equal(t, twr.MinTWR, resp.Settings.TargetTWR)
	assert.True(t, resp.Visibility.TankTypeEditable)

	_, err = s.ApplySettings(payload(t, SettingsRequest{ID: 2, Settings: settings}))
	assert.ErrorIs(t, err, ErrUnknownTank)
}

func TestRemoveTank(t *testing.T) {
	s := newTestService(nil)
	initTank(t, s, 1)

	require.NoError(t, s.RemoveTank(payload(t, TankRequest{ID: 1})))
	assert.Equal(t, 0, s.Tanks().Len())
	assert.ErrorIs(t, s.RemoveTank(payload(t, TankRequest{ID: 1})), ErrUnknownTank)
	assert.ErrorIs(t, s.RemoveTank(payload(t, TankRequest{})), ErrInvalidRequest)
}

func TestBodies(t *testing.T) {
	s := NewService(Dependencies{Bodies: []twr.Body{
		{Name: "Sun", GravParameter: 1, Radius: 1},
		{Name: "Rock", GravParameter: 1, Radius: 1, HasSolidSurface: true},
	}})
	assert.Equal(t, []string{"Rock"}, s.Bodies().Bodies)

	def := NewService(Dependencies{})
	assert.Equal(t, twr.SurfaceBodies(twr.DefaultBodies), def.Bodies().Bodies)
}

func TestReloadCatalog(t *testing.T) {
	s := newTestService(nil)
	initTank(t, s, 1)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tankTypes:
  - name: Mixed
    dryDensity: 0.2
    resources:
      - name: LiquidFuel
        unitsPerT: 100
`), 0644))

	resp, err := s.ReloadCatalog(payload(t, CatalogRequest{Path: path}))
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Tanks)

	ctrl, ok := s.Tanks().Get(1)
	require.True(t, ok)
	assert.InDelta(t, 0.2+0.005*100*0.2, ctrl.Mixture().WetDensity, 1e-12)

	_, err = s.ReloadCatalog(payload(t, CatalogRequest{Path: filepath.Join(t.TempDir(), "missing.yaml")}))
	assert.Error(t, err)
}

func TestRegisterHandlers(t *testing.T) {
	d, err := dispatcher.NewWithMeter(mockLogger{}, noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	defer d.Close()

	s := newTestService(nil)
	s.RegisterHandlers(d)

	for _, cmd := range []string{CmdInit, CmdActivate, CmdUpdate, CmdScale, CmdSettings, CmdRemove, CmdBodies, CmdCatalogReload} {
		assert.True(t, d.HasHandler(cmd), cmd)
	}

	res, err := d.Dispatch(dispatcher.Event{Command: CmdInit, Args: []string{`"{""id"":5,""tankType"":""Mixed""}"`}})
	require.NoError(t, err)
	initResp, ok := res.(InitResponse)
	require.True(t, ok)
	assert.Equal(t, core.PartID(5), initResp.ID)

	res, err = d.Dispatch(dispatcher.Event{Command: CmdRemove, Args: []string{`{"id":5}`}})
	require.NoError(t, err)
	assert.Equal(t, "ok", res)

	_, err = d.Dispatch(dispatcher.Event{Command: CmdActivate, Args: []string{`{"id":5}`}})
	assert.ErrorIs(t, err, ErrUnknownTank)
}
