package core

import (
	"math"
	"math/bits"
	"math/rand/v2"
)

// RNG is a thin convenience wrapper around math/rand/v2 for deterministic seeding.
type RNG struct {
	r *rand.Rand
}

// NewRNG creates a deterministic RNG using the provided seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(uint64(seed), 0))}
}

// Float64 returns a value in [0, 1).
func (r *RNG) Float64() float64 { return r.r.Float64() }

// CellRand is a per-cell random stream. It is derived from the run seed,
// the timestep and the cell's storage offset, so a cell draws the same
// values regardless of scan order or worker count. The zero value is not
// seeded; use Reset.
type CellRand struct {
	pcg rand.PCG
}

// Reset reseeds the stream for one cell at one step.
func (c *CellRand) Reset(seed uint64, step int, cell int) {
	c.pcg.Seed(seed^(uint64(step)*0x9e3779b97f4a7c15), uint64(cell))
}

// Uint64 returns the next raw value.
func (c *CellRand) Uint64() uint64 { return c.pcg.Uint64() }

// Float64 returns a value in [0, 1).
func (c *CellRand) Float64() float64 {
	return float64(c.pcg.Uint64()>>11) * 0x1p-53
}

// IntN returns a value in [0, n). It panics if n <= 0.
func (c *CellRand) IntN(n int) int {
	if n <= 0 {
		panic("core: CellRand.IntN with n <= 0")
	}
	hi, _ := bits.Mul64(c.pcg.Uint64(), uint64(n))
	return int(hi)
}

// Bool returns true with probability p.
func (c *CellRand) Bool(p float64) bool { return c.Float64() < p }

// NormFloat64 returns a standard normal value (Box-Muller).
func (c *CellRand) NormFloat64() float64 {
	u1 := c.Float64()
	for u1 == 0 {
		u1 = c.Float64()
	}
	u2 := c.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}
