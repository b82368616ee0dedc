package inmemory

import (
	"log/slog"
	"sync"

	"github.com/raveai/server/internal/repository/connection"
)

type repo struct {
	sessions map[string]map[*connection.Conn]struct{}
	mu       sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		sessions: make(map[string]map[*connection.Conn]struct{}),
	}
}

func (r *repo) Add(conn *connection.Conn) error {
	funcName := "connection.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "session_id", conn.SessionID(), "conn_id", conn.ID())
	conns, ok := r.sessions[conn.SessionID()]
	if !ok {
		conns = make(map[*connection.Conn]struct{})
		r.sessions[conn.SessionID()] = conns
	}
	if _, exists := conns[conn]; exists {
		slog.Info(funcName, "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	conns[conn] = struct{}{}

	slog.Debug(funcName, "result", len(conns))
	return nil
}

// Remove closes conn, forgets it and returns how many connections its session
// still has.
func (r *repo) Remove(conn *connection.Conn) (int, error) {
	funcName := "connection.inmemory.Remove"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "session_id", conn.SessionID(), "conn_id", conn.ID())
	conns, ok := r.sessions[conn.SessionID()]
	if !ok {
		slog.Info(funcName, "error", connection.ErrNotFound)
		return 0, connection.ErrNotFound
	}
	if _, exists := conns[conn]; !exists {
		slog.Info(funcName, "error", connection.ErrNotFound)
		return len(conns), connection.ErrNotFound
	}
	conn.Close()

	delete(conns, conn)
	if len(conns) == 0 {
		delete(r.sessions, conn.SessionID())
	}

	slog.Debug(funcName, "result", len(conns))
	return len(conns), nil
}

// GetConns returns a snapshot of the session's connections.
func (r *repo) GetConns(sessionID string) []*connection.Conn {
	funcName := "connection.inmemory.GetConns"
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*connection.Conn, 0, len(r.sessions[sessionID]))
	for conn := range r.sessions[sessionID] {
		conns = append(conns, conn)
	}

	slog.Debug(funcName, "session_id", sessionID, "result", len(conns))
	return conns
}

func (r *repo) Count(sessionID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions[sessionID])
}

// CloseAll closes every connection and empties the repository.
func (r *repo) CloseAll() {
	funcName := "connection.inmemory.CloseAll"
	r.mu.Lock()
	defer r.mu.Unlock()

	closed := 0
	for sessionID, conns := range r.sessions {
		for conn := range conns {
			conn.Close()
			closed++
		}
		delete(r.sessions, sessionID)
	}

	slog.Debug(funcName, "result", closed)
}
