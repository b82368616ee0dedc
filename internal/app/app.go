package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/raveai/server/internal/catalog"
	"github.com/raveai/server/internal/controller"
	"github.com/raveai/server/internal/mashup"
	"github.com/raveai/server/internal/repository/connection/inmemory"
	sessionRedis "github.com/raveai/server/internal/repository/session/redis"
	"github.com/raveai/server/internal/service/studio"
	"github.com/raveai/server/pkg/ctxlogger"
	"github.com/raveai/server/pkg/redisclient"
	"github.com/raveai/server/pkg/validator"
	"github.com/raveai/server/pkg/ytvideodata"
)

type AppConfig struct {
	Secret          string        `json:"-" validate:"required,min=16"`
	Host            string        `json:"host"`
	Port            int           `json:"port" validate:"gte=0,lte=65535"`
	LogLevel        string        `json:"log_level" validate:"oneof=DEBUG INFO WARN ERROR debug info warn error"`
	RedisHost       string        `json:"redis_host" validate:"required"`
	RedisPort       int           `json:"redis_port" validate:"gte=1,lte=65535"`
	RedisPassword   string        `json:"-"`
	RedisDB         int           `json:"redis_db" validate:"gte=0"`
	SessionTTL      time.Duration `json:"session_ttl" validate:"gte=1s"`
	TickInterval    time.Duration `json:"tick_interval" validate:"gte=1ms"`
	ProgressStep    float64       `json:"progress_step" validate:"gt=0,lte=100"`
	FrameInterval   time.Duration `json:"frame_interval" validate:"gte=1ms"`
	BarCount        int           `json:"bar_count" validate:"gte=1,lte=512"`
	MashupDelay     time.Duration `json:"mashup_delay" validate:"gte=0"`
	CatalogPath     string        `json:"catalog_path"`
	OllamaURL       string        `json:"ollama_url" validate:"omitempty,url"`
	OllamaModel     string        `json:"ollama_model" validate:"required_with=OllamaURL"`
	OllamaTimeout   time.Duration `json:"ollama_timeout" validate:"gte=0"`
	VideoTimeout    time.Duration `json:"video_timeout" validate:"gte=0"`
	AllowedOrigins  []string      `json:"allowed_origins"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" validate:"gt=0"`
}

func (cfg *AppConfig) Validate() error {
	validationErrors, ok := validator.NewValidator().Validate(cfg)
	if ok {
		return nil
	}

	errs := make([]error, 0, len(validationErrors))
	for _, e := range validationErrors {
		errs = append(errs, e)
	}

	return fmt.Errorf("invalid config: %w", errors.Join(errs...))
}

func NewLogger(w io.Writer, level string) (*slog.Logger, error) {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	return slog.New(h), nil
}

type closer interface {
	Close()
}

type App struct {
	handler http.Handler
	service closer
	rc      *redis.Client
	logger  *slog.Logger
}

// New wires every layer. Background work such as the catalog watcher stops
// when ctx is done.
func New(ctx context.Context, cfg *AppConfig, logger *slog.Logger) (*App, error) {
	rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}

	trackCatalog, err := catalog.New(logger)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("failed to create catalog: %w", err)
	}
	if cfg.CatalogPath != "" {
		if err := trackCatalog.Watch(ctx, cfg.CatalogPath); err != nil {
			rc.Close()
			return nil, fmt.Errorf("failed to watch catalog: %w", err)
		}
	}

	sessionRepo := sessionRedis.NewRepo(rc, cfg.SessionTTL, logger)
	connectionRepo := inmemory.NewRepo()
	studioService := studio.NewService(
		sessionRepo,
		connectionRepo,
		trackCatalog,
		newSynthesizer(cfg, logger),
		ytvideodata.NewClient(cfg.VideoTimeout),
		logger,
		studio.Config{
			Secret:        cfg.Secret,
			TickInterval:  cfg.TickInterval,
			ProgressStep:  cfg.ProgressStep,
			FrameInterval: cfg.FrameInterval,
			BarCount:      cfg.BarCount,
		},
	)
	controller := controller.NewController(studioService, logger, cfg.AllowedOrigins)

	return &App{
		handler: controller.GetMux(),
		service: studioService,
		rc:      rc,
		logger:  logger,
	}, nil
}

func newSynthesizer(cfg *AppConfig, logger *slog.Logger) mashup.Synthesizer {
	template := mashup.NewTemplateSynthesizer(cfg.MashupDelay)
	if cfg.OllamaURL == "" {
		return template
	}

	logger.Info("using ollama for mashup titles", "url", cfg.OllamaURL, "model", cfg.OllamaModel)
	return mashup.NewOllamaSynthesizer(cfg.OllamaURL, cfg.OllamaModel, cfg.OllamaTimeout, template, logger)
}

func (a *App) Handler() http.Handler {
	return a.handler
}

// Close stops every session loop, drops all connections and closes the
// redis client.
func (a *App) Close() error {
	a.service.Close()
	return a.rc.Close()
}

func Run(ctx context.Context, cfg *AppConfig) error {
	logger, err := NewLogger(os.Stdout, cfg.LogLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	a, err := New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	// hijacked websocket conns are not tracked by Shutdown
	server.RegisterOnShutdown(a.service.Close)

	serveErr := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "starting server", "address", server.Addr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}
