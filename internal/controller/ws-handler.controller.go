package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/raveai/server/internal/repository/connection"
	"github.com/raveai/server/internal/service/studio"
	"github.com/raveai/server/pkg/validator"
	"github.com/raveai/server/pkg/wsrouter"
)

type EmptyInput struct{}

type wsErrorPayload struct {
	Message string                      `json:"message"`
	Errors  []validator.ValidationError `json:"errors,omitempty"`
}

// handleWSError reports a failed message to its sender only.
func (c controller) handleWSError(ctx context.Context, conn wsrouter.Conn, err error) {
	payload := wsErrorPayload{Message: publicError(err)}

	var vErr validationError
	switch {
	case errors.As(err, &vErr):
		payload.Message = "validation failed"
		payload.Errors = vErr.errs
	case errors.Is(err, wsrouter.ErrUnknownMessageType), errors.Is(err, wsrouter.ErrInvalidPayload):
		payload.Message = err.Error()
	case errorStatus(err) == http.StatusInternalServerError:
		c.logger.ErrorContext(ctx, "websocket message failed", "error", err)
	}

	if err := conn.WriteJSON(&studio.Output{
		Type:    studio.OutputTypeError,
		Payload: payload,
	}); err != nil {
		c.logger.DebugContext(ctx, "failed to write error", "error", err)
	}
}

func (c controller) broadcast(conns []*connection.Conn, output studio.Output) {
	c.studioService.Broadcast(conns, output)
}

func (c controller) handleAlive(_ context.Context, _ wsrouter.Conn, _ EmptyInput) error {
	return nil
}

func (c controller) handleGetState(ctx context.Context, conn wsrouter.Conn, _ EmptyInput) error {
	state, err := c.studioService.GetState(ctx, c.getSessionIdFromCtx(ctx))
	if err != nil {
		return fmt.Errorf("failed to get state: %w", err)
	}

	return conn.WriteJSON(&studio.Output{
		Type:    studio.OutputTypeState,
		Payload: state,
	})
}

type UpdateDeckURLInput struct {
	Deck int    `json:"deck" validate:"gte=0,lte=1"`
	URL  string `json:"url" validate:"max=2048"`
}

func (c controller) handleUpdateDeckURL(ctx context.Context, _ wsrouter.Conn, input UpdateDeckURLInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	resp, err := c.studioService.UpdateDeckURL(ctx, &studio.UpdateDeckURLParams{
		SessionID: c.getSessionIdFromCtx(ctx),
		Deck:      input.Deck,
		URL:       input.URL,
	})
	if err != nil {
		return fmt.Errorf("failed to update deck url: %w", err)
	}

	c.broadcast(resp.Conns, studio.Output{
		Type:    studio.OutputTypeDeckUpdated,
		Payload: resp.Deck,
	})

	return nil
}

func (c controller) handleTogglePlayback(ctx context.Context, _ wsrouter.Conn, _ EmptyInput) error {
	resp, err := c.studioService.TogglePlayback(ctx, c.getSessionIdFromCtx(ctx))
	if err != nil {
		return fmt.Errorf("failed to toggle playback: %w", err)
	}

	c.broadcast(resp.Conns, studio.Output{
		Type:    studio.OutputTypePlayerUpdated,
		Payload: resp.Playback,
	})

	return nil
}

type UpdateVolumeInput struct {
	Volume *int `json:"volume" validate:"required,gte=0,lte=100"`
}

func (c controller) handleUpdateVolume(ctx context.Context, _ wsrouter.Conn, input UpdateVolumeInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	resp, err := c.studioService.SetVolume(ctx, &studio.SetVolumeParams{
		SessionID: c.getSessionIdFromCtx(ctx),
		Volume:    *input.Volume,
	})
	if err != nil {
		return fmt.Errorf("failed to set volume: %w", err)
	}

	c.broadcast(resp.Conns, studio.Output{
		Type:    studio.OutputTypeVolumeUpdated,
		Payload: resp.Volume,
	})

	return nil
}

type ToggleTrackInput struct {
	TrackID string `json:"track_id" validate:"required,max=64"`
}

func (c controller) handleToggleTrack(ctx context.Context, _ wsrouter.Conn, input ToggleTrackInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	resp, err := c.studioService.ToggleTrack(ctx, &studio.ToggleTrackParams{
		SessionID: c.getSessionIdFromCtx(ctx),
		TrackID:   input.TrackID,
	})
	if err != nil {
		return fmt.Errorf("failed to toggle track: %w", err)
	}

	c.broadcast(resp.Conns, studio.Output{
		Type:    studio.OutputTypeSelectionUpdated,
		Payload: resp.Selection,
	})

	return nil
}

// handleCreateMashup runs the synthesis off the read loop so the sender keeps
// being served. The mashup is finished even if the sender disconnects; only
// service shutdown cancels it.
func (c controller) handleCreateMashup(ctx context.Context, conn wsrouter.Conn, _ EmptyInput) error {
	sessionId := c.getSessionIdFromCtx(ctx)
	ctx = context.WithoutCancel(ctx)

	go func() {
		resp, err := c.studioService.CreateMashup(ctx, sessionId)
		if err != nil {
			c.handleWSError(ctx, conn, fmt.Errorf("failed to create mashup: %w", err))
			return
		}

		c.broadcast(resp.Conns, studio.Output{
			Type:    studio.OutputTypeMashupCreated,
			Payload: resp.Mashup,
		})
	}()

	return nil
}
