package studio

import (
	"context"
	"fmt"
	"slices"

	"github.com/raveai/server/internal/domain"
	"github.com/raveai/server/internal/repository/connection"
)

type ToggleTrackParams struct {
	SessionID string
	TrackID   string
}

type ToggleTrackResponse struct {
	Selection Selection
	Conns     []*connection.Conn
}

// ToggleTrack selects a catalog track or deselects it. A selected id can
// always be removed, even if the catalog no longer has it.
func (s *service) ToggleTrack(ctx context.Context, params *ToggleTrackParams) (ToggleTrackResponse, error) {
	state, err := s.sessionRepo.UpdateState(ctx, params.SessionID, func(st domain.State) (domain.State, error) {
		if !slices.Contains(st.SelectedTrackIDs, params.TrackID) {
			if _, err := s.catalog.Get(params.TrackID); err != nil {
				return st, err
			}
		}

		next, err := domain.Reduce(st, domain.ToggleTrack{TrackID: params.TrackID})
		if err != nil {
			return st, err
		}

		return s.stamp(next, st), nil
	})
	if err != nil {
		return ToggleTrackResponse{}, fmt.Errorf("failed to toggle track: %w", err)
	}

	return ToggleTrackResponse{
		Selection: Selection{SelectedTrackIDs: state.SelectedTrackIDs},
		Conns:     s.connRepo.GetConns(params.SessionID),
	}, nil
}

func (s *service) ListTracks() []domain.Track {
	return s.catalog.List()
}
