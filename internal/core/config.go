package core

// RuntimeConfig carries the viewer-facing settings of a run.
type RuntimeConfig struct {
	ScreenW int    // Screen width in characters
	ScreenH int    // Screen height in characters
	FPS     int    // Target frames per second (0 = unpaced)
	Seed    uint64 // RNG seed for deterministic runs
}

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		ScreenW: 80,
		ScreenH: 24,
		FPS:     10,
		Seed:    0, // 0 means use current time in platform layer
	}
}
