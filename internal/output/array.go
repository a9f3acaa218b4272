package output

import "sync"

// Array keeps snapshots grouped by replicate. With a positive limit only
// the most recent limit snapshots of each replicate are kept.
type Array struct {
	mu     sync.Mutex
	limit  int
	frames map[int][]Snapshot
	latest Snapshot
	any    bool
}

// NewArray returns an empty Array. limit <= 0 keeps every snapshot.
func NewArray(limit int) *Array {
	return &Array{limit: limit, frames: map[int][]Snapshot{}}
}

// Snapshot stores s. Snapshots are owned copies, so s is kept as is.
func (a *Array) Snapshot(s Snapshot) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	fs := append(a.frames[s.Replicate], s)
	if a.limit > 0 && len(fs) > a.limit {
		n := copy(fs, fs[len(fs)-a.limit:])
		fs = fs[:n]
	}
	a.frames[s.Replicate] = fs
	a.latest, a.any = s, true
	return nil
}

// Frames returns the kept snapshots of a replicate in step order.
func (a *Array) Frames(rep int) []Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Snapshot(nil), a.frames[rep]...)
}

// Latest returns the most recent snapshot of any replicate.
func (a *Array) Latest() (Snapshot, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latest, a.any
}
