package engine

import (
	"context"
	"sync"
	"time"
)

// Control pauses, single-steps and paces a running simulation. It is only
// consulted between timesteps, so a step is never interrupted.
type Control struct {
	mu       sync.Mutex
	paused   bool
	pending  int // single steps granted while paused
	interval time.Duration
	last     time.Time
	changed  chan struct{}
}

// NewControl returns a running control paced at fps frames per second;
// fps <= 0 runs unpaced.
func NewControl(fps int) *Control {
	c := &Control{changed: make(chan struct{})}
	c.SetFPS(fps)
	return c
}

// notify wakes every waiter. Callers hold mu.
func (c *Control) notify() {
	close(c.changed)
	c.changed = make(chan struct{})
}

// Pause stops the simulation before its next step.
func (c *Control) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = true
	c.notify()
}

// Resume continues a paused simulation.
func (c *Control) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = false
	c.pending = 0
	c.notify()
}

// Toggle flips between paused and running and returns the new paused state.
func (c *Control) Toggle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = !c.paused
	c.pending = 0
	c.notify()
	return c.paused
}

// Step lets a paused simulation advance one timestep.
func (c *Control) Step() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused {
		c.pending++
		c.notify()
	}
}

// Paused reports whether the simulation is paused.
func (c *Control) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// SetFPS changes the pacing; fps <= 0 disables it.
func (c *Control) SetFPS(fps int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fps <= 0 {
		c.interval = 0
	} else {
		c.interval = time.Second / time.Duration(fps)
	}
	c.notify()
}

// FPS returns the current pacing, 0 when unpaced.
func (c *Control) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.interval == 0 {
		return 0
	}
	return int(time.Second / c.interval)
}

// Wait blocks until the next step may start: while paused it waits for
// Resume or Step, then it sleeps out the rest of the frame interval.
func (c *Control) Wait(ctx context.Context) error {
	for {
		c.mu.Lock()
		if c.paused && c.pending == 0 {
			ch := c.changed
			c.mu.Unlock()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ch:
			}
			continue
		}
		stepping := c.paused
		if stepping {
			c.pending--
		}
		var delay time.Duration
		if !stepping && c.interval > 0 && !c.last.IsZero() {
			delay = time.Until(c.last.Add(c.interval))
		}
		c.mu.Unlock()

		if delay > 0 {
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
		c.mu.Lock()
		c.last = time.Now()
		c.mu.Unlock()
		return nil
	}
}
