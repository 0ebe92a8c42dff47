package fuel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/SmartTank/extension/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingCatalog wraps a MemoryCatalog and counts lookups.
type countingCatalog struct {
	MemoryCatalog
	lookups int
}

func (c *countingCatalog) LookupMixture(key core.FuelTypeKey) (core.MixtureRecord, bool) {
	c.lookups++
	return c.MemoryCatalog.LookupMixture(key)
}

func tankWithEngine(engine *core.Engine) (*core.Assembly, *core.Part) {
	tank := &core.Part{ID: 1, Nodes: []core.AttachNode{
		{ID: core.NodeTop, Owner: 1, Type: core.NodeStack},
		{ID: core.NodeBottom, Owner: 1, Type: core.NodeStack},
	}}
	if engine == nil {
		return core.NewAssembly(tank), tank
	}
	tank.Nodes[1].AttachedPart = 7
	e := &core.Part{ID: 7, Name: "engine", Engine: engine, Nodes: []core.AttachNode{
		{ID: core.NodeTop, Owner: 7, AttachedPart: 1, Size: 1, Type: core.NodeStack},
	}}
	return core.NewAssembly(tank, e), tank
}

func TestTankType(t *testing.T) {
	tests := []struct {
		name   string
		engine *core.Engine
		want   core.FuelTypeKey
	}{
		{"no engine", nil, core.MixedFuel},
		{"single resource", &core.Engine{ConsumedResources: []string{"LiquidFuel"}}, "LiquidFuel"},
		{"bipropellant", &core.Engine{ConsumedResources: []string{"LiquidFuel", "Oxidizer"}}, core.MixedFuel},
		{"consumes nothing", &core.Engine{}, core.MixedFuel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TankType(tt.engine))
		})
	}
}

func TestResolve(t *testing.T) {
	asm, tank := tankWithEngine(&core.Engine{ConsumedResources: []string{"LiquidFuel"}})
	assert.Equal(t, core.FuelTypeKey("LiquidFuel"), Resolve(asm, tank))

	asm, tank = tankWithEngine(&core.Engine{ConsumedResources: []string{"LiquidFuel", "Oxidizer"}})
	assert.Equal(t, core.MixedFuel, Resolve(asm, tank))

	asm, tank = tankWithEngine(nil)
	assert.Equal(t, core.MixedFuel, Resolve(asm, tank))
}

func TestFindEngine_FirstInNodeOrder(t *testing.T) {
	tank := &core.Part{ID: 1, Nodes: []core.AttachNode{
		{ID: core.NodeTop, Owner: 1, AttachedPart: 3, Type: core.NodeStack},
		{ID: core.NodeBottom, Owner: 1, AttachedPart: 2, Type: core.NodeStack},
	}}
	lower := &core.Part{ID: 2, Engine: &core.Engine{ConsumedResources: []string{"LiquidFuel", "Oxidizer"}}}
	upper := &core.Part{ID: 3, Engine: &core.Engine{ConsumedResources: []string{"MonoPropellant"}}}
	asm := core.NewAssembly(tank, lower, upper)

	got := FindEngine(asm, tank)
	require.NotNil(t, got)
	assert.Equal(t, core.PartID(3), got.ID)
	assert.Equal(t, core.FuelTypeKey("MonoPropellant"), Resolve(asm, tank))
}

func TestFindEngine_IgnoresNonEngines(t *testing.T) {
	tank := &core.Part{ID: 1, Nodes: []core.AttachNode{
		{ID: core.NodeTop, Owner: 1, AttachedPart: 2, Type: core.NodeStack},
	}}
	asm := core.NewAssembly(tank, &core.Part{ID: 2, Name: "decoupler"})
	assert.Nil(t, FindEngine(asm, tank))
}

func TestMatch(t *testing.T) {
	asm, tank := tankWithEngine(&core.Engine{ConsumedResources: []string{"LiquidFuel"}})

	key, changed := Match(core.MixedFuel, asm, tank)
	assert.True(t, changed)
	assert.Equal(t, core.FuelTypeKey("LiquidFuel"), key)

	key, changed = Match("LiquidFuel", asm, tank)
	assert.False(t, changed)
	assert.Equal(t, core.FuelTypeKey("LiquidFuel"), key)
}

func TestLoad_WetDensity(t *testing.T) {
	catalog := MemoryCatalog{
		"Test": {
			Name:       "Test",
			DryDensity: 0.1,
			Resources: []core.ResourceRate{
				{Name: "A", UnitsPerT: 100},
				{Name: "B", UnitsPerT: 60},
			},
		},
	}

	info := Load("Test", catalog)
	assert.Equal(t, core.FuelTypeKey("Test"), info.Key)
	assert.Equal(t, 0.1, info.DryDensity)
	// 0.1 + 0.005 * 160 * 0.1
	assert.InDelta(t, 0.18, info.WetDensity, 1e-12)
	assert.Len(t, info.Resources, 2)
}

func TestLoad_MissingKey(t *testing.T) {
	info := Load("Nope", DefaultCatalog())
	assert.Equal(t, core.FuelTypeKey("Nope"), info.Key)
	assert.Zero(t, info.WetDensity)
	assert.Zero(t, info.DryDensity)

	info = Load(core.MixedFuel, nil)
	assert.Zero(t, info.WetDensity)
}

func TestLoader_Memoizes(t *testing.T) {
	c := &countingCatalog{MemoryCatalog: DefaultCatalog()}
	l := NewLoader(c)

	first := l.Load(core.MixedFuel)
	second := l.Load(core.MixedFuel)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, c.lookups)

	l.Load("LiquidFuel")
	assert.Equal(t, 2, c.lookups)

	l.Reset()
	l.Load("LiquidFuel")
	assert.Equal(t, 3, c.lookups)
}

func TestDefaultCatalog_MixedIsPositive(t *testing.T) {
	info := Load(core.MixedFuel, DefaultCatalog())
	assert.Greater(t, info.WetDensity, info.DryDensity)
}

func TestParseCatalog(t *testing.T) {
	data := []byte(`
tankTypes:
  - name: Mixed
    dryDensity: 0.2
    resources:
      - name: LiquidFuel
        unitsPerT: 50
      - name: Oxidizer
        unitsPerT: 50
  - name: Xenon
    dryDensity: 0.5
    resources:
      - name: XenonGas
        unitsPerT: 1000
`)
	c, err := ParseCatalog(data)
	require.NoError(t, err)
	assert.Len(t, c, 2)

	info := Load("Xenon", c)
	assert.InDelta(t, 0.5+0.005*1000*0.5, info.WetDensity, 1e-12)
}

func TestParseCatalog_Errors(t *testing.T) {
	_, err := ParseCatalog([]byte(`tankTypes: []`))
	assert.ErrorIs(t, err, ErrEmptyCatalog)

	_, err = ParseCatalog([]byte("tankTypes:\n  - dryDensity: 0.1\n"))
	assert.Error(t, err)

	_, err = ParseCatalog([]byte("tankTypes:\n  - name: Bad\n    dryDensity: -1\n"))
	assert.Error(t, err)

	_, err = ParseCatalog([]byte("{not yaml"))
	assert.Error(t, err)
}

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Contains(t, c.Keys(), core.MixedFuel)

	path := filepath.Join(t.TempDir(), "fuels.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tankTypes:\n  - name: Only\n    dryDensity: 0.1\n"), 0644))
	c, err = LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, []core.FuelTypeKey{"Only"}, c.Keys())

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
