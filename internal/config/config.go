package config

import (
	"fmt"
	"time"

	"github.com/SmartTank/extension/internal/tank"
	"github.com/SmartTank/extension/internal/twr"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "smart_tank.cfg.json"

// MemoryConfig holds in-memory/JSON journal backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds the SQLite journal backend settings
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// InfluxConfig holds the InfluxDB journal backend settings. Connection details
// live under the influx.* keys.
type InfluxConfig struct {
	Bucket     string `json:"bucket" mapstructure:"bucket"`
	BackupPath string `json:"backupPath" mapstructure:"backupPath"`
}

// JournalConfig selects where sizing decisions are recorded.
type JournalConfig struct {
	Type          string        `json:"type" mapstructure:"type"` // memory, sqlite, postgres, influx or none
	FlushInterval time.Duration `json:"flushInterval" mapstructure:"flushInterval"`
	Memory        MemoryConfig  `json:"memory" mapstructure:"memory"`
	SQLite        SQLiteConfig  `json:"sqlite" mapstructure:"sqlite"`
	Influx        InfluxConfig  `json:"influx" mapstructure:"influx"`
}

// Load registers the defaults, then reads FileName from configDir.
func Load(configDir string) error {
	SetDefaults()
	viper.SetConfigName(FileName)
	viper.SetConfigType("json")
	viper.AddConfigPath(configDir)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

func defaults() map[string]any {
	tk := tank.DefaultSettings()
	return map[string]any{
		"logLevel": "info",
		"logsDir":  "./smarttank_logs",

		"tank.diameterMatching": tk.DiameterMatching,
		"tank.fuelMatching":     tk.FuelMatching,
		"tank.autoScale":        tk.AutoScale,
		"tank.atmospheric":      tk.Atmospheric,
		"tank.targetTWR":        tk.TargetTWR,
		"tank.bodyForTWR":       tk.BodyForTWR,
		"tank.defaultTexture":   "Original",
		"fuel.catalogPath":      "",

		"journal.type":                  "memory",
		"journal.flushInterval":         "2s",
		"journal.memory.outputDir":      "./journals",
		"journal.memory.compressOutput": true,
		"journal.sqlite.path":           "./smarttank.db",
		"journal.sqlite.dumpInterval":   "30s",
		"journal.influx.backupPath":     "./smarttank_influx_backup.lp.gz",

		"db.host":     "localhost",
		"db.port":     "5432",
		"db.username": "postgres",
		"db.password": "postgres",
		"db.database": "smarttank",

		"influx.protocol": "http",
		"influx.host":     "localhost",
		"influx.port":     "8086",
		"influx.token":    "supersecrettoken",
		"influx.org":      "smarttank",
		"influx.bucket":   "sizing",

		"graylog.enabled": false,
		"graylog.address": "localhost:12201",
	}
}

// SetDefaults is called by Load, and directly by the CLI when it runs
// without a config file.
func SetDefaults() {
	for k, v := range defaults() {
		viper.SetDefault(k, v)
	}
}

func GetString(key string) string {
	return viper.GetString(key)
}

// GetTankDefaults returns the settings new tanks start with.
func GetTankDefaults() tank.Settings {
	return tank.Settings{
		DiameterMatching: viper.GetBool("tank.diameterMatching"),
		FuelMatching:     viper.GetBool("tank.fuelMatching"),
		AutoScale:        viper.GetBool("tank.autoScale"),
		Atmospheric:      viper.GetBool("tank.atmospheric"),
		TargetTWR:        viper.GetFloat64("tank.targetTWR"),
		BodyForTWR:       viper.GetString("tank.bodyForTWR"),
	}.Normalized()
}

// GetJournalConfig returns the journal backend settings.
func GetJournalConfig() JournalConfig {
	return JournalConfig{
		Type:          viper.GetString("journal.type"),
		FlushInterval: viper.GetDuration("journal.flushInterval"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("journal.memory.outputDir"),
			CompressOutput: viper.GetBool("journal.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("journal.sqlite.path"),
			DumpInterval: viper.GetDuration("journal.sqlite.dumpInterval"),
		},
		Influx: InfluxConfig{
			Bucket:     viper.GetString("influx.bucket"),
			BackupPath: viper.GetString("journal.influx.backupPath"),
		},
	}
}

// GetBodies returns the configured body list, or the stock system when none is set.
func GetBodies() ([]twr.Body, error) {
	if !viper.IsSet("bodies") {
		return twr.DefaultBodies, nil
	}
	var bodies []twr.Body
	if err := viper.UnmarshalKey("bodies", &bodies); err != nil {
		return nil, fmt.Errorf("decoding bodies: %w", err)
	}
	return bodies, nil
}
