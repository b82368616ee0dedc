package studio

import (
	"context"
	"fmt"

	"github.com/raveai/server/internal/domain"
	"github.com/raveai/server/internal/repository/connection"
)

type ConnectParams struct {
	SessionID string
	AuthToken string
	Socket    connection.Socket
}

type ConnectResponse struct {
	Conn  *connection.Conn
	State domain.State
}

// Connect registers an authorized socket with its session and starts the
// session's loops if they are not running yet.
func (s *service) Connect(ctx context.Context, params *ConnectParams) (ConnectResponse, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ConnectResponse{}, ErrServiceClosed
	}

	if err := s.authorize(params.SessionID, params.AuthToken); err != nil {
		return ConnectResponse{}, err
	}

	state, err := s.sessionRepo.GetState(ctx, params.SessionID)
	if err != nil {
		return ConnectResponse{}, fmt.Errorf("failed to get state: %w", err)
	}

	conn := connection.NewConn(params.SessionID, params.Socket)
	if err := s.connRepo.Add(conn); err != nil {
		return ConnectResponse{}, fmt.Errorf("failed to add conn: %w", err)
	}

	s.syncRuntime(state)

	return ConnectResponse{
		Conn:  conn,
		State: state,
	}, nil
}

// Disconnect closes conn. The session's loops stop when its last connection
// is gone; the stored state stays until it expires.
func (s *service) Disconnect(conn *connection.Conn) error {
	remaining, err := s.connRepo.Remove(conn)
	if err != nil {
		return fmt.Errorf("failed to remove conn: %w", err)
	}

	if remaining == 0 {
		s.teardown(conn.SessionID(), false)
	}

	return nil
}
