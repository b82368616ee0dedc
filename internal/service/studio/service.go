package studio

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/raveai/server/internal/catalog"
	"github.com/raveai/server/internal/domain"
	"github.com/raveai/server/internal/mashup"
	"github.com/raveai/server/internal/repository/connection"
	"github.com/raveai/server/internal/repository/session"
	"github.com/raveai/server/internal/waveform"
	"github.com/raveai/server/pkg/scheduler"
	"github.com/raveai/server/pkg/ytvideodata"
)

var (
	ErrSessionNotFound  = session.ErrSessionNotFound
	ErrMashupNotFound   = session.ErrMashupNotFound
	ErrNotEnoughTracks  = mashup.ErrNotEnoughTracks
	ErrTrackNotFound    = catalog.ErrTrackNotFound
	ErrInvalidDeck      = domain.ErrInvalidDeck
	ErrInvalidVolume    = domain.ErrInvalidVolume
	ErrVideoNotFound    = ytvideodata.ErrVideoNotFound
	ErrInvalidVideoID   = errors.New("invalid video id")
	ErrInvalidToken     = errors.New("invalid token")
	ErrMashupInProgress = errors.New("mashup is already being processed")
	ErrServiceClosed    = errors.New("service is closed")
)

type iSessionRepo interface {
	CreateState(context.Context, domain.State) error
	GetState(context.Context, string) (domain.State, error)
	UpdateState(context.Context, string, session.UpdateFunc) (domain.State, error)
	AddMashup(context.Context, *session.AddMashupParams) error
	GetMashups(context.Context, string) ([]domain.Mashup, error)
}

type iConnRepo interface {
	Add(*connection.Conn) error
	Remove(*connection.Conn) (int, error)
	GetConns(string) []*connection.Conn
	CloseAll()
}

type iCatalog interface {
	List() []domain.Track
	Get(string) (domain.Track, error)
	Lookup([]string) ([]domain.Track, error)
}

type iVideoData interface {
	Get(context.Context, string) (*ytvideodata.VideoData, error)
}

type Config struct {
	Secret        string
	TickInterval  time.Duration
	ProgressStep  float64
	FrameInterval time.Duration
	BarCount      int
	// TickTimeout bounds the store round trip of a single tick.
	TickTimeout time.Duration
}

type service struct {
	sessionRepo iSessionRepo
	connRepo    iConnRepo
	catalog     iCatalog
	synthesizer mashup.Synthesizer
	videoData   iVideoData
	frames      waveform.FrameScheduler
	every       func(time.Duration, func(time.Time)) *scheduler.Handle
	now         func() time.Time
	logger      *slog.Logger
	cfg         Config

	mu         sync.Mutex
	runtimes   map[string]*runtime
	processing map[string]struct{}
	closed     bool

	// closing is cancelled by Close; inflight counts running mashups.
	closing     context.Context
	stopClosing context.CancelFunc
	inflight    sync.WaitGroup
}

func NewService(
	sessionRepo iSessionRepo,
	connRepo iConnRepo,
	catalog iCatalog,
	synthesizer mashup.Synthesizer,
	videoData iVideoData,
	logger *slog.Logger,
	cfg Config,
) *service {
	if cfg.BarCount <= 0 {
		cfg.BarCount = waveform.DefaultBarCount
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 100 * time.Millisecond
	}
	if cfg.ProgressStep <= 0 {
		cfg.ProgressStep = 0.5
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = 50 * time.Millisecond
	}
	if cfg.TickTimeout <= 0 {
		cfg.TickTimeout = time.Second
	}

	closing, stopClosing := context.WithCancel(context.Background())

	return &service{
		closing:     closing,
		stopClosing: stopClosing,
		sessionRepo: sessionRepo,
		connRepo:    connRepo,
		catalog:     catalog,
		synthesizer: synthesizer,
		videoData:   videoData,
		frames:      scheduler.NewFrames(cfg.FrameInterval),
		every:       scheduler.Every,
		now:         time.Now,
		logger:      logger,
		cfg:         cfg,
		runtimes:    make(map[string]*runtime),
		processing:  make(map[string]struct{}),
	}
}

// Close stops every tick loop and frame loop, cancels running mashups and
// waits for them to return, then closes all connections. Later connection
// attempts and mashups are refused.
func (s *service) Close() {
	s.mu.Lock()
	s.closed = true
	for id, rt := range s.runtimes {
		rt.stop()
		delete(s.runtimes, id)
	}
	s.mu.Unlock()

	s.stopClosing()
	s.inflight.Wait()

	s.connRepo.CloseAll()
}
