package studio

import (
	"context"
	"errors"
	"time"

	"github.com/raveai/server/internal/domain"
	"github.com/raveai/server/internal/waveform"
	"github.com/raveai/server/pkg/scheduler"
)

var errUnchanged = errors.New("unchanged")

// runtime is the live, non-serializable side of a session: its tick loop and
// its waveform frame loop. It exists while the session has connections.
type runtime struct {
	ticker   *scheduler.Handle
	animator *waveform.Animator
	// revision of the last state applied; older snapshots are ignored.
	revision int64

	// frames holds at most the latest unsent frame. pump writes it to the
	// session's conns so no socket write happens under s.mu or the animator
	// lock.
	frames chan waveform.Frame
	done   chan struct{}
}

func (rt *runtime) stop() {
	if rt.ticker != nil {
		rt.ticker.Stop()
		rt.ticker = nil
	}
	rt.animator.Close()
	close(rt.done)
}

// offer queues frame, replacing a frame the pump has not taken yet.
func (rt *runtime) offer(frame waveform.Frame) {
	for {
		select {
		case rt.frames <- frame:
			return
		default:
		}

		select {
		case <-rt.frames:
		default:
		}
	}
}

func (s *service) pump(sessionID string, rt *runtime) {
	for {
		select {
		case <-rt.done:
			return
		case frame := <-rt.frames:
			select {
			case <-rt.done:
				return
			default:
			}

			s.broadcastToSession(sessionID, Output{
				Type:    OutputTypeWaveformFrame,
				Payload: frame,
			})
		}
	}
}

// syncRuntime makes the session's tick loop and animator follow state. The
// tick loop runs exactly while state is playing.
func (s *service) syncRuntime(state domain.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	rt, ok := s.runtimes[state.SessionID]
	if !ok {
		if len(s.connRepo.GetConns(state.SessionID)) == 0 {
			return
		}
		rt = s.newRuntime(state.SessionID)
		s.runtimes[state.SessionID] = rt
	}

	if state.Revision < rt.revision {
		return
	}
	rt.revision = state.Revision

	switch {
	case state.Playback.IsPlaying && rt.ticker == nil:
		sessionID := state.SessionID
		rt.ticker = s.every(s.cfg.TickInterval, func(time.Time) {
			s.tick(sessionID)
		})
		s.logger.Debug("tick loop started", "session_id", sessionID)
	case !state.Playback.IsPlaying && rt.ticker != nil:
		rt.ticker.Stop()
		rt.ticker = nil
		s.logger.Debug("tick loop stopped", "session_id", state.SessionID)
	}

	rt.animator.Update(state.Playback.IsPlaying, state.Playback.Progress)
}

func (s *service) newRuntime(sessionID string) *runtime {
	rt := &runtime{
		frames: make(chan waveform.Frame, 1),
		done:   make(chan struct{}),
	}
	rt.animator = waveform.NewAnimator(s.frames, rt.offer, s.cfg.BarCount)

	go s.pump(sessionID, rt)

	return rt
}

// teardown stops the session's loops unless a connection is still attached.
func (s *service) teardown(sessionID string, force bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.runtimes[sessionID]
	if !ok {
		return
	}
	if !force && len(s.connRepo.GetConns(sessionID)) > 0 {
		return
	}

	rt.stop()
	delete(s.runtimes, sessionID)
	s.logger.Debug("session runtime torn down", "session_id", sessionID)
}

func (s *service) tick(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.TickTimeout)
	defer cancel()

	var current domain.State
	state, err := s.sessionRepo.UpdateState(ctx, sessionID, func(st domain.State) (domain.State, error) {
		current = st
		next, err := domain.Reduce(st, domain.Tick{Step: s.cfg.ProgressStep})
		if err != nil {
			return st, err
		}
		if next.Playback == st.Playback {
			return st, errUnchanged
		}

		return s.stamp(next, st), nil
	})
	switch {
	case errors.Is(err, errUnchanged):
		s.syncRuntime(current)
		return
	case errors.Is(err, ErrSessionNotFound):
		s.logger.Info("session expired while playing", "session_id", sessionID)
		s.teardown(sessionID, true)
		return
	case err != nil:
		s.logger.Error("failed to advance playback", "session_id", sessionID, "error", err)
		return
	}

	s.broadcastToSession(sessionID, Output{
		Type:    OutputTypePlayerUpdated,
		Payload: state.Playback,
	})
	s.syncRuntime(state)
}

// apply reduces action into the stored session state.
func (s *service) apply(ctx context.Context, sessionID string, action domain.Action) (domain.State, error) {
	return s.sessionRepo.UpdateState(ctx, sessionID, func(st domain.State) (domain.State, error) {
		next, err := domain.Reduce(st, action)
		if err != nil {
			return st, err
		}

		return s.stamp(next, st), nil
	})
}

// stamp marks next as the successor of prev.
func (s *service) stamp(next, prev domain.State) domain.State {
	next.Revision = prev.Revision + 1
	next.UpdatedAt = s.now().UnixMilli()
	return next
}
