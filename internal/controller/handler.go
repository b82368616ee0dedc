package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/raveai/server/internal/service/studio"
	"github.com/raveai/server/pkg/rest"
)

// connect upgrades an authorized request to a websocket attached to its
// session and serves it until the client goes away.
func (c controller) connect(w http.ResponseWriter, r *http.Request) {
	sessionId := chi.URLParam(r, "session-id")
	authToken, err := c.getQueryParam(r, "auth-token")
	if err != nil {
		rest.WriteJSON(w, http.StatusUnauthorized, rest.Envelope{"error": err.Error()})
		return
	}

	// checked before the upgrade so failures get a proper status code
	if _, err := c.studioService.GetSession(r.Context(), &studio.GetSessionParams{
		SessionID: sessionId,
		AuthToken: authToken,
	}); err != nil {
		c.writeError(w, r, err)
		return
	}

	ws, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	connectResp, err := c.studioService.Connect(r.Context(), &studio.ConnectParams{
		SessionID: sessionId,
		AuthToken: authToken,
		Socket:    ws,
	})
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to connect", "error", err)
		ws.WriteJSON(&studio.Output{
			Type:    studio.OutputTypeError,
			Payload: studio.ErrorMessage{Message: publicError(err)},
		})
		ws.Close()
		return
	}
	conn := connectResp.Conn
	defer func() {
		if err := c.studioService.Disconnect(conn); err != nil {
			c.logger.WarnContext(r.Context(), "failed to disconnect", "error", err)
		}
	}()

	if err := conn.WriteJSON(&studio.Output{
		Type:    studio.OutputTypeState,
		Payload: connectResp.State,
	}); err != nil {
		c.logger.WarnContext(r.Context(), "failed to write state", "error", err)
		return
	}

	ctx := context.WithValue(r.Context(), sessionIdCtxKey, sessionId)
	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || errors.Is(err, context.Canceled) {
			c.logger.DebugContext(r.Context(), "connection closed", "conn_id", conn.ID())
			return
		}
		c.logger.InfoContext(r.Context(), "failed to serve conn", "conn_id", conn.ID(), "error", err)
	}
}
