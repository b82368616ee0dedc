package studio

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/raveai/server/internal/domain"
)

type CreateSessionParams struct {
	// DeckURLs overrides the default deck URLs when set.
	DeckURLs *[domain.DeckCount]string
}

type CreateSessionResponse struct {
	SessionID string       `json:"session_id"`
	AuthToken string       `json:"auth_token"`
	State     domain.State `json:"state"`
}

func (s *service) CreateSession(ctx context.Context, params *CreateSessionParams) (CreateSessionResponse, error) {
	deckURLs := domain.DefaultDeckURLs
	if params.DeckURLs != nil {
		deckURLs = *params.DeckURLs
	}

	sessionID := uuid.NewString()
	state := domain.NewState(sessionID, deckURLs)
	state.UpdatedAt = s.now().UnixMilli()

	if err := s.sessionRepo.CreateState(ctx, state); err != nil {
		return CreateSessionResponse{}, fmt.Errorf("failed to create state: %w", err)
	}

	authToken, err := s.generateJWT(sessionID)
	if err != nil {
		return CreateSessionResponse{}, fmt.Errorf("failed to generate auth token: %w", err)
	}

	s.logger.InfoContext(ctx, "session created", "session_id", sessionID)

	return CreateSessionResponse{
		SessionID: sessionID,
		AuthToken: authToken,
		State:     state,
	}, nil
}

type GetSessionParams struct {
	SessionID string
	AuthToken string
}

func (s *service) GetSession(ctx context.Context, params *GetSessionParams) (domain.State, error) {
	if err := s.authorize(params.SessionID, params.AuthToken); err != nil {
		return domain.State{}, err
	}

	state, err := s.sessionRepo.GetState(ctx, params.SessionID)
	if err != nil {
		return domain.State{}, fmt.Errorf("failed to get state: %w", err)
	}

	return state, nil
}

// GetState returns the state of a session whose caller is already
// authorized, such as an open connection.
func (s *service) GetState(ctx context.Context, sessionID string) (domain.State, error) {
	state, err := s.sessionRepo.GetState(ctx, sessionID)
	if err != nil {
		return domain.State{}, fmt.Errorf("failed to get state: %w", err)
	}

	return state, nil
}
