// Package config loads a simulation scenario from YAML.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FactorSpec names one raw driver layer on disk.
type FactorSpec struct {
	ID     int     `yaml:"id"`
	Path   string  `yaml:"path"`
	NoData float32 `yaml:"nodata"`
	Log    bool    `yaml:"log"`
}

// Config is a full scenario description.
type Config struct {
	InitialPath string `yaml:"initial"`
	FuturePath  string `yaml:"future"`

	Factors            []FactorSpec `yaml:"factors"`
	RestrictedFactorID int          `yaml:"restricted_factor_id"`

	Iterations         int     `yaml:"iterations"`
	TileSize           int     `yaml:"tile_size"`
	Workers            int     `yaml:"workers"`
	NeighborhoodWeight float64 `yaml:"neighborhood_weight"`
	PressureDecay      float64 `yaml:"pressure_decay"`

	OracleEndpoint   string `yaml:"oracle_endpoint"`
	OracleTimeoutSec int    `yaml:"oracle_timeout_sec"`

	OutputPath  string `yaml:"output"`
	TelemetryDB string `yaml:"telemetry_db"`
	Seed        int64  `yaml:"seed"`
}

func defaults() Config {
	return Config{
		Iterations:         10,
		TileSize:           64,
		Workers:            4,
		NeighborhoodWeight: 0.9,
		PressureDecay:      0.5,
		OracleTimeoutSec:   60,
		OutputPath:         "out/simulated.asc",
	}
}

// Load reads a scenario file, applies defaults, and validates.
func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		return cfg, fmt.Errorf("scenario path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("scenario: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("scenario: %w", err)
	}
	return cfg, nil
}

// Validate checks the scenario for internal consistency.
func (c Config) Validate() error {
	if c.InitialPath == "" {
		return fmt.Errorf("initial land-cover path required")
	}
	if c.FuturePath == "" {
		return fmt.Errorf("future land-cover path required")
	}
	if len(c.Factors) == 0 {
		return fmt.Errorf("at least one factor required")
	}
	seen := make(map[int]bool, len(c.Factors))
	restrictedOK := false
	for _, f := range c.Factors {
		if f.Path == "" {
			return fmt.Errorf("factor %d: path required", f.ID)
		}
		if seen[f.ID] {
			return fmt.Errorf("factor %d: duplicate id", f.ID)
		}
		seen[f.ID] = true
		if f.ID == c.RestrictedFactorID {
			restrictedOK = true
		}
	}
	if !restrictedOK {
		return fmt.Errorf("restricted_factor_id %d not among factors", c.RestrictedFactorID)
	}
	if c.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive")
	}
	if c.TileSize <= 0 {
		return fmt.Errorf("tile_size must be positive")
	}
	if c.NeighborhoodWeight < 0 {
		return fmt.Errorf("neighborhood_weight must be non-negative")
	}
	if c.PressureDecay <= 0 || c.PressureDecay >= 1 {
		return fmt.Errorf("pressure_decay must be in (0,1)")
	}
	return nil
}
