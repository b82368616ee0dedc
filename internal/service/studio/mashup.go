package studio

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/raveai/server/internal/domain"
	"github.com/raveai/server/internal/repository/connection"
	"github.com/raveai/server/internal/repository/session"
)

type CreateMashupResponse struct {
	Mashup domain.Mashup
	Conns  []*connection.Conn
}

// CreateMashup synthesizes one mashup from the tracks selected at call time.
// Progress is broadcast to the session while the synthesizer runs. Close
// cancels a running call.
func (s *service) CreateMashup(ctx context.Context, sessionID string) (CreateMashupResponse, error) {
	state, err := s.sessionRepo.GetState(ctx, sessionID)
	if err != nil {
		return CreateMashupResponse{}, fmt.Errorf("failed to get state: %w", err)
	}

	if len(state.SelectedTrackIDs) < domain.MinMashupTracks {
		return CreateMashupResponse{}, fmt.Errorf("%w: %d selected", ErrNotEnoughTracks, len(state.SelectedTrackIDs))
	}
	trackIDs := slices.Clone(state.SelectedTrackIDs)

	tracks, err := s.catalog.Lookup(trackIDs)
	if err != nil {
		return CreateMashupResponse{}, fmt.Errorf("failed to look up tracks: %w", err)
	}

	if err := s.beginMashup(sessionID); err != nil {
		return CreateMashupResponse{}, err
	}
	defer s.endMashup(sessionID)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.closing, cancel)
	defer stop()

	synthesis, err := s.synthesizer.Synthesize(ctx, tracks, func(percent int) {
		s.broadcastToSession(sessionID, Output{
			Type:    OutputTypeMashupProcessing,
			Payload: MashupProgress{Percent: percent},
		})
	})
	if err != nil {
		return CreateMashupResponse{}, fmt.Errorf("failed to synthesize mashup: %w", err)
	}

	mashup := domain.Mashup{
		ID:          uuid.NewString(),
		Title:       synthesis.Title,
		Tracks:      tracks,
		Duration:    synthesis.Duration,
		Suggestions: synthesis.Suggestions,
		CreatedAt:   s.now().UnixMilli(),
	}
	if err := s.sessionRepo.AddMashup(ctx, &session.AddMashupParams{
		SessionId: sessionID,
		Mashup:    mashup,
	}); err != nil {
		return CreateMashupResponse{}, fmt.Errorf("failed to add mashup: %w", err)
	}

	s.logger.InfoContext(ctx, "mashup created", "session_id", sessionID, "mashup_id", mashup.ID, "tracks", len(tracks))

	return CreateMashupResponse{
		Mashup: mashup,
		Conns:  s.connRepo.GetConns(sessionID),
	}, nil
}

func (s *service) beginMashup(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrServiceClosed
	}
	if _, ok := s.processing[sessionID]; ok {
		return ErrMashupInProgress
	}
	s.processing[sessionID] = struct{}{}
	s.inflight.Add(1)

	return nil
}

func (s *service) endMashup(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.processing, sessionID)
	s.inflight.Done()
}

func (s *service) GetMashups(ctx context.Context, params *GetSessionParams) ([]domain.Mashup, error) {
	if err := s.authorize(params.SessionID, params.AuthToken); err != nil {
		return nil, err
	}

	if _, err := s.sessionRepo.GetState(ctx, params.SessionID); err != nil {
		return nil, fmt.Errorf("failed to get state: %w", err)
	}

	mashups, err := s.sessionRepo.GetMashups(ctx, params.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get mashups: %w", err)
	}

	return mashups, nil
}
