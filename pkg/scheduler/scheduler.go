// Package scheduler provides cancellable timer-driven tasks: a fixed-rate
// repeating task and one-shot animation frames.
package scheduler

import (
	"sync"
	"sync/atomic"
	"time"
)

// Handle controls a task started with Every.
type Handle struct {
	stopped atomic.Bool
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// Every calls fn on each tick of interval until the returned handle is stopped.
// fn runs on a single goroutine, so invocations never overlap.
func Every(interval time.Duration, fn func(time.Time)) *Handle {
	h := &Handle{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go h.run(interval, fn)

	return h
}

func (h *Handle) run(interval time.Duration, fn func(time.Time)) {
	defer close(h.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case now := <-ticker.C:
			if h.stopped.Load() {
				return
			}
			fn(now)
		}
	}
}

// Stop cancels the task. It does not wait for a running fn to return and is
// safe to call from inside fn and more than once.
func (h *Handle) Stop() {
	h.once.Do(func() {
		h.stopped.Store(true)
		close(h.stop)
	})
}

func (h *Handle) Stopped() bool {
	return h.stopped.Load()
}

// Done is closed once the task goroutine has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Frames schedules one-shot frame callbacks at a fixed frame interval, the
// server-side stand-in for a display's animation-frame source.
type Frames struct {
	interval time.Duration
}

func NewFrames(interval time.Duration) *Frames {
	return &Frames{interval: interval}
}

// RequestFrame schedules cb for the next frame and returns its cancel func.
// Once cancel returns, cb is not started.
func (f *Frames) RequestFrame(cb func(time.Time)) func() {
	var cancelled atomic.Bool
	t := time.AfterFunc(f.interval, func() {
		if cancelled.Load() {
			return
		}
		cb(time.Now())
	})

	return func() {
		cancelled.Store(true)
		t.Stop()
	}
}

func (f *Frames) Interval() time.Duration {
	return f.interval
}
