package nav

import (
	"sync"
)

// wheelGesture is one anchored scale step. Folded gestures multiply their
// scales and keep the most recent anchor.
type wheelGesture struct {
	anchorPx float64
	anchorPy float64
	scale    float64
}

// WheelDebouncer serializes wheel gestures: at most one zoom is in flight
// at a time, and gestures arriving meanwhile collapse into a single
// pending one that is applied as one combined step when the running
// gesture finishes. The net magnification equals the product of every
// submitted scale (up to clamping), regardless of arrival timing.
type WheelDebouncer struct {
	mu       sync.Mutex
	idle     *sync.Cond
	inFlight bool
	pending  *wheelGesture
	execute  func(wheelGesture)
}

// NewWheelDebouncer wraps the given gesture executor. The executor runs on
// the debouncer's own goroutine and must do its own locking.
func NewWheelDebouncer(execute func(anchorPx, anchorPy, scale float64)) *WheelDebouncer {
	d := &WheelDebouncer{
		execute: func(g wheelGesture) { execute(g.anchorPx, g.anchorPy, g.scale) },
	}
	d.idle = sync.NewCond(&d.mu)
	return d
}

// Enqueue submits a gesture. The first gesture of a burst starts a drain
// goroutine; the rest fold into the pending accumulator.
func (d *WheelDebouncer) Enqueue(anchorPx, anchorPy, scale float64) {
	d.mu.Lock()
	if d.inFlight {
		if d.pending == nil {
			d.pending = &wheelGesture{anchorPx: anchorPx, anchorPy: anchorPy, scale: scale}
		} else {
			d.pending.scale *= scale
			d.pending.anchorPx = anchorPx
			d.pending.anchorPy = anchorPy
		}
		d.mu.Unlock()
		return
	}
	d.inFlight = true
	d.mu.Unlock()

	go d.drain(wheelGesture{anchorPx: anchorPx, anchorPy: anchorPy, scale: scale})
}

func (d *WheelDebouncer) drain(g wheelGesture) {
	for {
		d.execute(g)

		d.mu.Lock()
		if d.pending == nil {
			d.inFlight = false
			d.idle.Broadcast()
			d.mu.Unlock()
			return
		}
		g = *d.pending
		d.pending = nil
		d.mu.Unlock()
	}
}

// Wait blocks until every submitted gesture has been applied.
func (d *WheelDebouncer) Wait() {
	d.mu.Lock()
	for d.inFlight {
		d.idle.Wait()
	}
	d.mu.Unlock()
}
