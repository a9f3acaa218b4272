package output

import (
	"github.com/vovakirdan/dyngrid/internal/core"
	"github.com/vovakirdan/dyngrid/internal/engine"
)

// StopWhen forwards frames to next and ends the run once pred holds for a
// frame. next may be nil.
func StopWhen[T core.Number](next engine.Output[T], pred func(engine.Frame[T]) bool) engine.Output[T] {
	return engine.OutputFunc[T](func(f engine.Frame[T]) error {
		if next != nil {
			if err := next.Frame(f); err != nil {
				return err
			}
		}
		if pred(f) {
			return engine.ErrStop
		}
		return nil
	})
}

// Extinct holds when every grid of the frame is entirely zero.
func Extinct[T core.Number](f engine.Frame[T]) bool {
	for _, v := range f.Views() {
		if v.Count() > 0 {
			return false
		}
	}
	return true
}

// Only forwards the frames of one replicate to next and drops the rest.
func Only[T core.Number](rep int, next engine.Output[T]) engine.Output[T] {
	return engine.OutputFunc[T](func(f engine.Frame[T]) error {
		if f.Replicate != rep || next == nil {
			return nil
		}
		return next.Frame(f)
	})
}
