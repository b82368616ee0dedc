package waveform

import (
	"sync"
	"time"
)

// FrameScheduler is a source of animation frames. RequestFrame schedules cb
// for the next frame and returns a func that cancels it.
type FrameScheduler interface {
	RequestFrame(cb func(time.Time)) (cancel func())
}

type PaintFunc func(Frame)

// Animator repaints continuously while playing and exactly once on every
// other change. It holds at most one pending frame request.
type Animator struct {
	mu       sync.Mutex
	sched    FrameScheduler
	paint    PaintFunc
	now      func() time.Time
	barCount int

	cancel     func()
	generation uint64
	started    bool
	closed     bool
	isPlaying  bool
	progress   float64
}

func NewAnimator(sched FrameScheduler, paint PaintFunc, barCount int) *Animator {
	if barCount <= 0 {
		barCount = DefaultBarCount
	}

	return &Animator{
		sched:    sched,
		paint:    paint,
		now:      time.Now,
		barCount: barCount,
	}
}

// Update applies a new playing flag and progress. Any pending frame is
// cancelled, one frame is painted, and while playing the frame loop restarts.
// Calls that change nothing are ignored.
func (a *Animator) Update(isPlaying bool, progress float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}
	if a.started && a.isPlaying == isPlaying && a.progress == progress {
		return
	}

	a.started = true
	a.isPlaying = isPlaying
	a.progress = progress
	a.stopLocked()

	a.paintLocked(a.now())
	if isPlaying {
		a.requestLocked(a.generation)
	}
}

// Close cancels the frame loop. Nothing is painted after Close returns.
func (a *Animator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closed = true
	a.stopLocked()
}

func (a *Animator) Playing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.isPlaying && !a.closed
}

func (a *Animator) stopLocked() {
	a.generation++
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}

func (a *Animator) requestLocked(gen uint64) {
	a.cancel = a.sched.RequestFrame(func(t time.Time) {
		a.onFrame(gen, t)
	})
}

func (a *Animator) onFrame(gen uint64, t time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// stale callback from a loop that was already cancelled
	if a.closed || gen != a.generation {
		return
	}

	a.paintLocked(t)
	a.requestLocked(gen)
}

func (a *Animator) paintLocked(t time.Time) {
	a.paint(NewFrame(t, a.isPlaying, a.progress, a.barCount))
}
