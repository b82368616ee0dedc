package waveform

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualFrames queues frame requests until the test fires them.
type manualFrames struct {
	mu      sync.Mutex
	pending []*manualFrame
}

type manualFrame struct {
	cb        func(time.Time)
	cancelled bool
}

func (m *manualFrames) RequestFrame(cb func(time.Time)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	f := &manualFrame{cb: cb}
	m.pending = append(m.pending, f)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		f.cancelled = true
	}
}

// fire runs every pending, non-cancelled callback and returns how many ran.
func (m *manualFrames) fire() int {
	m.mu.Lock()
	queue := m.pending
	m.pending = nil
	m.mu.Unlock()

	ran := 0
	for _, f := range queue {
		m.mu.Lock()
		cancelled := f.cancelled
		m.mu.Unlock()
		if cancelled {
			continue
		}
		f.cb(time.Now())
		ran++
	}
	return ran
}

func (m *manualFrames) live() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, f := range m.pending {
		if !f.cancelled {
			n++
		}
	}
	return n
}

type paintRecorder struct {
	mu     sync.Mutex
	frames []Frame
}

func (p *paintRecorder) paint(f Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = append(p.frames, f)
}

func (p *paintRecorder) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frames)
}

func TestAnimatorStaticPaintWhenStopped(t *testing.T) {
	sched := &manualFrames{}
	rec := &paintRecorder{}
	a := NewAnimator(sched, rec.paint, 8)

	a.Update(false, 0)
	assert.Equal(t, 1, rec.count())
	assert.Zero(t, sched.live(), "no frame loop while stopped")

	a.Update(false, 10)
	assert.Equal(t, 2, rec.count(), "progress change repaints once")
	assert.Zero(t, sched.live())

	a.Update(false, 10)
	assert.Equal(t, 2, rec.count(), "no change, no paint")
}

func TestAnimatorLoopsWhilePlaying(t *testing.T) {
	sched := &manualFrames{}
	rec := &paintRecorder{}
	a := NewAnimator(sched, rec.paint, 8)

	a.Update(true, 0)
	require.Equal(t, 1, rec.count())

	for i := 0; i < 5; i++ {
		require.Equal(t, 1, sched.live(), "exactly one pending frame")
		assert.Equal(t, 1, sched.fire())
	}
	assert.Equal(t, 6, rec.count())
	assert.True(t, rec.frames[5].IsPlaying)
}

func TestAnimatorStopsFramesWhenPlayingEnds(t *testing.T) {
	sched := &manualFrames{}
	rec := &paintRecorder{}
	a := NewAnimator(sched, rec.paint, 8)

	a.Update(true, 0)
	sched.fire()
	a.Update(false, 0)
	painted := rec.count()

	assert.Zero(t, sched.fire(), "cancelled frame must not run")
	assert.Zero(t, sched.live())
	assert.Equal(t, painted, rec.count())
	assert.False(t, a.Playing())
}

func TestAnimatorIgnoresStaleCallback(t *testing.T) {
	sched := &manualFrames{}
	rec := &paintRecorder{}
	a := NewAnimator(sched, rec.paint, 8)

	a.Update(true, 0)
	stale := sched.pending[0].cb
	a.Update(false, 0)
	painted := rec.count()

	// a callback that slipped past cancellation still paints nothing
	stale(time.Now())
	assert.Equal(t, painted, rec.count())
	assert.Zero(t, sched.live())
}

func TestAnimatorProgressChangeRestartsLoop(t *testing.T) {
	sched := &manualFrames{}
	rec := &paintRecorder{}
	a := NewAnimator(sched, rec.paint, 8)

	a.Update(true, 0)
	a.Update(true, 0.5)

	assert.Equal(t, 2, rec.count())
	assert.Equal(t, 1, sched.live(), "old frame request cancelled")
	assert.Equal(t, 0.5, rec.frames[1].Progress)
}

func TestAnimatorClose(t *testing.T) {
	sched := &manualFrames{}
	rec := &paintRecorder{}
	a := NewAnimator(sched, rec.paint, 8)

	a.Update(true, 0)
	a.Close()
	painted := rec.count()

	assert.Zero(t, sched.fire())
	a.Update(true, 50)
	assert.Equal(t, painted, rec.count())
}
