package controller

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/raveai/server/internal/domain"
	"github.com/raveai/server/internal/repository/connection"
	"github.com/raveai/server/internal/service/studio"
	"github.com/raveai/server/internal/waveform"
	"github.com/raveai/server/pkg/validator"
	"github.com/raveai/server/pkg/wsrouter"
	"github.com/raveai/server/pkg/ytvideodata"
)

type iStudioService interface {
	CreateSession(context.Context, *studio.CreateSessionParams) (studio.CreateSessionResponse, error)
	GetSession(context.Context, *studio.GetSessionParams) (domain.State, error)
	GetState(context.Context, string) (domain.State, error)
	GetMashups(context.Context, *studio.GetSessionParams) ([]domain.Mashup, error)
	GetWaveformFrame(context.Context, *studio.GetSessionParams) (waveform.Frame, error)
	Connect(context.Context, *studio.ConnectParams) (studio.ConnectResponse, error)
	Disconnect(*connection.Conn) error
	UpdateDeckURL(context.Context, *studio.UpdateDeckURLParams) (studio.UpdateDeckURLResponse, error)
	TogglePlayback(context.Context, string) (studio.TogglePlaybackResponse, error)
	SetVolume(context.Context, *studio.SetVolumeParams) (studio.SetVolumeResponse, error)
	ToggleTrack(context.Context, *studio.ToggleTrackParams) (studio.ToggleTrackResponse, error)
	CreateMashup(context.Context, string) (studio.CreateMashupResponse, error)
	ListTracks() []domain.Track
	Resolve(string) studio.Resolution
	GetVideo(context.Context, string) (*ytvideodata.VideoData, error)
	Broadcast([]*connection.Conn, studio.Output)
}

type controller struct {
	studioService  iStudioService
	upgrader       websocket.Upgrader
	validate       *validator.Validator
	wsmux          *wsrouter.WSRouter
	logger         *slog.Logger
	allowedOrigins []string
}

// NewController builds the HTTP and websocket layer. An empty allowedOrigins
// accepts any origin.
func NewController(studioService iStudioService, logger *slog.Logger, allowedOrigins []string) *controller {
	c := &controller{
		studioService:  studioService,
		validate:       validator.NewValidator(),
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
	c.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return len(c.allowedOrigins) == 0 || slices.Contains(c.allowedOrigins, r.Header.Get("Origin"))
		},
	}
	c.wsmux = c.getWSRouter()

	return c
}
