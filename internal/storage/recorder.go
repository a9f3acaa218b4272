package storage

import (
	"sync"

	"github.com/vovakirdan/dyngrid/internal/output"
)

// DefaultBatch is how many step rows a Recorder buffers before writing.
const DefaultBatch = 256

// Recorder is an output.Sink that writes the population and total of every
// grid to the ledger. Rows are buffered and written in batches; the final
// frame flushes.
type Recorder struct {
	store *Store
	runID int64
	batch int

	mu       sync.Mutex
	pending  []StepStat
	lastStep int
}

// NewRecorder records into run runID. batch <= 0 uses DefaultBatch.
func NewRecorder(s *Store, runID int64, batch int) *Recorder {
	if batch <= 0 {
		batch = DefaultBatch
	}
	return &Recorder{store: s, runID: runID, batch: batch}
}

// Snapshot implements output.Sink.
func (r *Recorder) Snapshot(s output.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, name := range s.Names {
		r.pending = append(r.pending, StepStat{
			RunID:      r.runID,
			Replicate:  s.Replicate,
			Step:       s.Step,
			Grid:       name,
			Population: s.Population(i),
			Total:      s.Total(i),
		})
	}
	r.lastStep = max(r.lastStep, s.Step)
	if len(r.pending) >= r.batch || s.Final {
		return r.flushLocked()
	}
	return nil
}

// Flush writes any buffered rows.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked()
}

func (r *Recorder) flushLocked() error {
	if err := r.store.SaveStepStats(r.pending); err != nil {
		return err
	}
	r.pending = r.pending[:0]
	return nil
}

// LastStep returns the highest step recorded so far.
func (r *Recorder) LastStep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastStep
}

var _ output.Sink = (*Recorder)(nil)
