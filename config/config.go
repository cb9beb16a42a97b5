package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/ferntree/core/metrics"
	"github.com/kilianp07/ferntree/core/regression"
	"github.com/kilianp07/ferntree/core/storage"
	"github.com/kilianp07/ferntree/infra/weather"
)

// EnvPrefix marks environment variables that override file values.
// FT_HOUSE__PV__PEAK_POWER=8 sets house.pv.peak_power.
const EnvPrefix = "FT_"

// Config is the complete description of one simulation run.
type Config struct {
	Simulation SimulationConfig  `json:"simulation"`
	Weather    weather.Config    `json:"weather"`
	House      HouseConfig       `json:"house"`
	Storage    storage.Config    `json:"storage"`
	Metrics    metrics.Config    `json:"metrics"`
	Logging    LoggingConfig     `json:"logging"`
	Regression regression.Config `json:"regression"`
}

// Load reads the YAML or JSON file at path, applies environment overrides,
// fills defaults and validates every section.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// SetDefaults fills zero values in every section.
func (c *Config) SetDefaults() {
	c.Simulation.SetDefaults()
	c.Weather.SetDefaults()
	c.House.SetDefaults()
	c.Logging.SetDefaults()
	c.Regression.SetDefaults()
}

// Validate checks every section and returns the first error.
func (c Config) Validate() error {
	if err := c.Simulation.Validate(); err != nil {
		return err
	}
	if err := c.Weather.Validate(); err != nil {
		return err
	}
	if err := c.House.Validate(); err != nil {
		return err
	}
	return c.Logging.Validate()
}
