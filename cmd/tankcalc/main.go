// Command tankcalc sizes a single tank offline, with the same rules the extension
// applies in the editor, and prints the result as JSON.
//
//	tankcalc --size-top 2 --size-bottom 1 --fuel LiquidFuel --thrust-vac 60 --twr 1.5
//	tankcalc --family cylinder --diameter 2.5 --fuel Mixed --wet-mass 12
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/SmartTank/extension/internal/config"
	"github.com/SmartTank/extension/internal/fuel"
	"github.com/SmartTank/extension/internal/logging"
	"github.com/SmartTank/extension/pkg/core"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("tankcalc", pflag.ContinueOnError)

	fs.String("config", "", "directory holding smart_tank.cfg.json")
	fs.String("log-level", "warn", "log level (trace, debug, info, warn, error)")

	fs.String("family", "", "shape family: cylinder, cone or pill; derived from the diameters when empty")
	fs.Float64("diameter", 0, "cylinder or pill diameter (m)")
	fs.Float64("top", 0, "top diameter (m)")
	fs.Float64("bottom", 0, "bottom diameter (m)")
	fs.Int("size-top", -1, "node size attached on top")
	fs.Int("size-bottom", -1, "node size attached at the bottom")
	fs.Float64("fillet", 0, "pill fillet (m)")

	fs.String("fuel", string(core.MixedFuel), "tank type")
	fs.String("catalog", "", "fuel catalog file (YAML); stock tank types when empty")
	fs.Float64("wet-mass", 0, "target wet mass (t); overrides the TWR target")

	fs.Float64("thrust-vac", 0, "engine vacuum thrust (kN)")
	fs.Float64("thrust-asl", 0, "engine sea-level thrust (kN)")
	fs.Bool("atmospheric", false, "size for sea-level thrust")
	fs.Float64("twr", 1.5, "target thrust-to-weight ratio")
	fs.String("body", "Kerbin", "body the TWR is measured at")
	fs.Float64("other-mass", 0, "engine and payload mass (t)")
	return fs
}

func requestFromViper(v *viper.Viper) request {
	return request{
		Family:      v.GetString("family"),
		Diameter:    v.GetFloat64("diameter"),
		Top:         v.GetFloat64("top"),
		Bottom:      v.GetFloat64("bottom"),
		SizeTop:     v.GetInt("size-top"),
		SizeBottom:  v.GetInt("size-bottom"),
		Fillet:      v.GetFloat64("fillet"),
		Fuel:        v.GetString("fuel"),
		WetMass:     v.GetFloat64("wet-mass"),
		ThrustVac:   v.GetFloat64("thrust-vac"),
		ThrustASL:   v.GetFloat64("thrust-asl"),
		Atmospheric: v.GetBool("atmospheric"),
		TWR:         v.GetFloat64("twr"),
		Body:        v.GetString("body"),
		OtherMass:   v.GetFloat64("other-mass"),
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet()
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	v := viper.New()
	v.SetEnvPrefix("TANKCALC")
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	log := logging.NewZerolog(v.GetString("log-level"), stderr)

	// bodies and the catalog path come from the extension config when one is given
	if dir := v.GetString("config"); dir != "" {
		if err := config.Load(dir); err != nil {
			return err
		}
	} else {
		config.SetDefaults()
	}
	bodies, err := config.GetBodies()
	if err != nil {
		return err
	}

	catalogPath := v.GetString("catalog")
	if catalogPath == "" {
		catalogPath = config.GetString("fuel.catalogPath")
	}
	catalog, err := fuel.LoadCatalog(catalogPath)
	if err != nil {
		return err
	}
	log.Debug().Str("catalog", catalogPath).Int("tankTypes", len(catalog)).Int("bodies", len(bodies)).Msg("Loaded tables")

	req := requestFromViper(v)
	res, err := solve(req, catalog, bodies)
	if err != nil {
		return err
	}
	log.Info().
		Str("family", res.Shape.Family.String()).
		Float64("length", res.Shape.Length).
		Float64("targetWetMass", res.TargetWetMass).
		Msg("Solved")

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}).Error().Err(err).Msg("tankcalc failed")
		os.Exit(1)
	}
}
