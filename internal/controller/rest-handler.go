package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/raveai/server/internal/domain"
	"github.com/raveai/server/internal/service/studio"
	"github.com/raveai/server/internal/waveform"
	"github.com/raveai/server/pkg/rest"
)

func (c controller) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		c.logger.ErrorContext(r.Context(), "request failed", "error", err)
	} else {
		c.logger.InfoContext(r.Context(), "request rejected", "error", err)
	}

	rest.WriteJSON(w, status, rest.Envelope{"error": publicError(err)})
}

func (c controller) resolve(w http.ResponseWriter, r *http.Request) {
	text, err := c.getQueryParam(r, "url")
	if err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": err.Error()})
		return
	}

	rest.WriteJSON(w, http.StatusOK, c.studioService.Resolve(text))
}

func (c controller) getVideo(w http.ResponseWriter, r *http.Request) {
	videoData, err := c.studioService.GetVideo(r.Context(), chi.URLParam(r, "video-id"))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, videoData)
}

type listTracksResponse struct {
	Tracks []domain.Track `json:"tracks"`
}

func (c controller) listTracks(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, listTracksResponse{Tracks: c.studioService.ListTracks()})
}

type createSessionRequest struct {
	DeckURLs []string `json:"deck_urls" validate:"omitempty,len=2,dive,max=2048"`
}

func (c controller) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := rest.ReadJSON(r, &req); err != nil {
		c.logger.InfoContext(r.Context(), "failed to read json", "error", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		c.logger.InfoContext(r.Context(), "validation failed", "errors", validationErrors)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	params := studio.CreateSessionParams{}
	if len(req.DeckURLs) == domain.DeckCount {
		params.DeckURLs = (*[domain.DeckCount]string)(req.DeckURLs)
	}

	resp, err := c.studioService.CreateSession(r.Context(), &params)
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, resp)
}

func (c controller) sessionParams(r *http.Request) (*studio.GetSessionParams, error) {
	authToken, err := c.mustHeader(r, "Auth-Token")
	if err != nil {
		return nil, err
	}

	return &studio.GetSessionParams{
		SessionID: chi.URLParam(r, "session-id"),
		AuthToken: authToken,
	}, nil
}

func (c controller) getSession(w http.ResponseWriter, r *http.Request) {
	params, err := c.sessionParams(r)
	if err != nil {
		rest.WriteJSON(w, http.StatusUnauthorized, rest.Envelope{"error": err.Error()})
		return
	}

	state, err := c.studioService.GetSession(r.Context(), params)
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, state)
}

type getMashupsResponse struct {
	Mashups []domain.Mashup `json:"mashups"`
}

func (c controller) getMashups(w http.ResponseWriter, r *http.Request) {
	params, err := c.sessionParams(r)
	if err != nil {
		rest.WriteJSON(w, http.StatusUnauthorized, rest.Envelope{"error": err.Error()})
		return
	}

	mashups, err := c.studioService.GetMashups(r.Context(), params)
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, getMashupsResponse{Mashups: mashups})
}

type waveformSize struct {
	Width  int `json:"width" validate:"gte=16,lte=2048"`
	Height int `json:"height" validate:"gte=8,lte=1024"`
}

func (c controller) getWaveform(w http.ResponseWriter, r *http.Request) {
	params, err := c.sessionParams(r)
	if err != nil {
		rest.WriteJSON(w, http.StatusUnauthorized, rest.Envelope{"error": err.Error()})
		return
	}

	var size waveformSize
	if size.Width, err = c.getIntQueryParam(r, "width", waveform.DefaultWidth); err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": err.Error()})
		return
	}
	if size.Height, err = c.getIntQueryParam(r, "height", waveform.DefaultHeight); err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": err.Error()})
		return
	}
	if validationErrors, ok := c.validate.Validate(size); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	frame, err := c.studioService.GetWaveformFrame(r.Context(), params)
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := waveform.EncodePNG(w, frame, size.Width, size.Height); err != nil {
		c.logger.WarnContext(r.Context(), "failed to encode waveform", "error", err)
	}
}
