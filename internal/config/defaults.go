package config

import (
	"embed"
)

//go:embed defaults/*.yaml
var defaultsFS embed.FS

// DefaultSimConfig returns the hardcoded configuration used when no file
// and no embedded default exists for a model.
func DefaultSimConfig(model string) SimConfig {
	return SimConfig{
		Model:      model,
		Shape:      []int{48, 96},
		Steps:      500,
		Replicates: 1,
		FPS:        15,
		Overflow:   "wrap",
		Init:       InitConfig{Density: 0.25},
		Display:    DisplayConfig{Mode: "block", Cutoff: 0.5},
	}
}

// GetDefaultYAML returns the embedded default YAML for a model, or nil.
func GetDefaultYAML(model string) []byte {
	data, err := defaultsFS.ReadFile("defaults/" + model + ".yaml")
	if err != nil {
		return nil
	}
	return data
}
