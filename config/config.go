package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config groups the dump configuration of every cache the service owns.
type Config struct {
	// Caches maps a cache name to its dump settings.
	Caches map[string]*Dump `yaml:"caches"`

	// FSWorkers is the size of the dedicated executor that runs blocking
	// filesystem calls. Zero picks a small default.
	FSWorkers int `yaml:"fs_workers"`

	// TelemetryInterval enables periodic operation-counter logs when > 0.
	TelemetryInterval time.Duration `yaml:"telemetry_interval"`
}

const defaultFSWorkers = 2

func (cfg *Config) Normalize() {
	if cfg.FSWorkers <= 0 {
		cfg.FSWorkers = defaultFSWorkers
	}
	for _, d := range cfg.Caches {
		d.Normalize()
	}
}

func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config yaml file %s: %w", path, err)
	}

	var cfg *Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml from %s: %w", path, err)
	}
	cfg.Normalize()

	return cfg, nil
}
