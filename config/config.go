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

	apifleet "github.com/greenmove/evcharge/api/fleet"
	"github.com/greenmove/evcharge/core/cost"
	"github.com/greenmove/evcharge/core/metrics"
	"github.com/greenmove/evcharge/core/optimizer"
	"github.com/greenmove/evcharge/infra/mqtt"
	"github.com/greenmove/evcharge/simulator"
)

// FleetConfig points at the initial fleet seed.
type FleetConfig struct {
	// SeedFile is an optional YAML or JSON file with the starting vehicle
	// and station sets.
	SeedFile string `json:"seed_file"`
}

type Config struct {
	Cost      cost.Config      `json:"cost"`
	Optimizer optimizer.Config `json:"optimizer"`
	API       apifleet.Config  `json:"api"`
	Metrics   metrics.Config   `json:"metrics"`
	MQTT      mqtt.Config      `json:"mqtt"`
	Fleet     FleetConfig      `json:"fleet"`
	Simulator simulator.Config `json:"simulator"`
}

// Load reads the configuration file (JSON or YAML, by extension) and applies
// EV_-prefixed environment overrides (EV_section__key).
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
	if err := k.Load(env.Provider("EV_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "ev_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Cost.SetDefaults()
	cfg.Optimizer.SetDefaults()
	cfg.API.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.MQTT.SetDefaults()
	cfg.Simulator.SetDefaults()
	if err := cfg.Cost.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Optimizer.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.MQTT.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
