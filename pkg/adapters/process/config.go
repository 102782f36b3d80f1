package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultBinary is the command used when no bridge config names one.
const DefaultBinary = "nodechain"

// BridgeConfig describes how to reach the process that owns the host scene.
type BridgeConfig struct {
	// Binary is looked up on PATH unless it contains a path separator.
	Binary string `yaml:"binary" json:"binary"`
	// Args are placed before the exec subcommand, e.g. ["--host", "redis"].
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Dir         string            `yaml:"dir" json:"dir"`
	// Timeout bounds a single call. Zero means no limit beyond the caller's context.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// Grace is how long an interrupted process may take to exit before it is killed.
	Grace time.Duration `yaml:"grace" json:"grace"`
}

// DefaultConfig returns the config used when no bridge.yaml exists.
func DefaultConfig() BridgeConfig {
	return BridgeConfig{
		Binary: DefaultBinary,
		Grace:  5 * time.Second,
	}
}

// LoadConfig reads a bridge config file (YAML or JSON). A missing file yields DefaultConfig.
func LoadConfig(path string) (BridgeConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read bridge config: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.Timeout < 0 || cfg.Grace < 0 {
		return cfg, fmt.Errorf("%s: negative durations are not allowed", path)
	}
	return cfg, nil
}
