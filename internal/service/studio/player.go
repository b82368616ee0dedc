package studio

import (
	"context"
	"fmt"

	"github.com/raveai/server/internal/domain"
	"github.com/raveai/server/internal/repository/connection"
)

type UpdateDeckURLParams struct {
	SessionID string
	Deck      int
	URL       string
}

type UpdateDeckURLResponse struct {
	Deck  Deck
	Conns []*connection.Conn
}

// UpdateDeckURL stores the text for a deck and resolves it again. Text
// without a video id is accepted and leaves the deck unloaded.
func (s *service) UpdateDeckURL(ctx context.Context, params *UpdateDeckURLParams) (UpdateDeckURLResponse, error) {
	state, err := s.apply(ctx, params.SessionID, domain.SetDeckURL{
		Deck: params.Deck,
		URL:  params.URL,
	})
	if err != nil {
		return UpdateDeckURLResponse{}, fmt.Errorf("failed to update deck url: %w", err)
	}

	return UpdateDeckURLResponse{
		Deck:  deckFromState(state, params.Deck),
		Conns: s.connRepo.GetConns(params.SessionID),
	}, nil
}

type TogglePlaybackResponse struct {
	Playback domain.Playback
	Conns    []*connection.Conn
}

// TogglePlayback starts or stops the simulated playback. Progress is kept
// across stops.
func (s *service) TogglePlayback(ctx context.Context, sessionID string) (TogglePlaybackResponse, error) {
	state, err := s.apply(ctx, sessionID, domain.TogglePlayback{})
	if err != nil {
		return TogglePlaybackResponse{}, fmt.Errorf("failed to toggle playback: %w", err)
	}

	s.syncRuntime(state)

	return TogglePlaybackResponse{
		Playback: state.Playback,
		Conns:    s.connRepo.GetConns(sessionID),
	}, nil
}

type SetVolumeParams struct {
	SessionID string
	Volume    int
}

type SetVolumeResponse struct {
	Volume Volume
	Conns  []*connection.Conn
}

func (s *service) SetVolume(ctx context.Context, params *SetVolumeParams) (SetVolumeResponse, error) {
	state, err := s.apply(ctx, params.SessionID, domain.SetVolume{Volume: params.Volume})
	if err != nil {
		return SetVolumeResponse{}, fmt.Errorf("failed to set volume: %w", err)
	}

	return SetVolumeResponse{
		Volume: volumeFromState(state),
		Conns:  s.connRepo.GetConns(params.SessionID),
	}, nil
}
