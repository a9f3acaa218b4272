package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadSim loads the configuration of a model.
// Search order: customPath -> ~/.dyngrid/configs/<model>.yaml ->
// ./configs/<model>.yaml -> embedded default -> hardcoded default.
// Missing fields are filled from the hardcoded default.
func LoadSim(model, customPath string) (SimConfig, error) {
	base := DefaultSimConfig(model)
	if emb := GetDefaultYAML(model); emb != nil {
		var cfg SimConfig
		if err := yaml.Unmarshal(emb, &cfg); err == nil {
			base = cfg.withDefaults(base)
		}
	}
	base.Model = model

	// Try custom path first
	if customPath != "" {
		cfg, err := readFile(customPath)
		if err != nil {
			return SimConfig{}, err
		}
		return finish(cfg, base)
	}

	// Try user config directory
	if userCfgPath := userConfigPath(model + ".yaml"); userCfgPath != "" {
		if cfg, err := readFile(userCfgPath); err == nil {
			return finish(cfg, base)
		}
	}

	// Try local configs directory
	if cfg, err := readFile(filepath.Join("configs", model+".yaml")); err == nil {
		return finish(cfg, base)
	}

	return base, nil
}

func readFile(path string) (SimConfig, error) {
	var cfg SimConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

func finish(cfg, base SimConfig) (SimConfig, error) {
	cfg = cfg.withDefaults(base)
	if err := cfg.Validate(); err != nil {
		return SimConfig{}, err
	}
	return cfg, nil
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".dyngrid", "configs", filename)
}

// Marshal renders a configuration as YAML, for `run --dump-config`.
func Marshal(cfg SimConfig) ([]byte, error) {
	return yaml.Marshal(cfg)
}
