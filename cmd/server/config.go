package main

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/raveai/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
	usage        string
}

type flagBinder interface {
	bind(fs *pflag.FlagSet, v *viper.Viper) error
}

func (c configVar[T]) bind(fs *pflag.FlagSet, v *viper.Viper) error {
	switch d := any(c.defaultValue).(type) {
	case string:
		fs.String(c.flagKey, d, c.usage)
	case int:
		fs.Int(c.flagKey, d, c.usage)
	case float64:
		fs.Float64(c.flagKey, d, c.usage)
	case time.Duration:
		fs.Duration(c.flagKey, d, c.usage)
	case []string:
		fs.StringSlice(c.flagKey, d, c.usage)
	default:
		return fmt.Errorf("unsupported config type %T for %s", d, c.flagKey)
	}

	v.SetDefault(c.flagKey, c.defaultValue)
	if err := v.BindEnv(c.flagKey, c.envKey); err != nil {
		return err
	}

	return v.BindPFlag(c.flagKey, fs.Lookup(c.flagKey))
}

var (
	secret = configVar[string]{
		envKey:  "RAVE_SECRET",
		flagKey: "secret",
		usage:   "Secret used to sign session tokens",
	}
	host = configVar[string]{
		envKey:       "RAVE_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
		usage:        "Server host",
	}
	port = configVar[int]{
		envKey:       "RAVE_PORT",
		flagKey:      "port",
		defaultValue: 8080,
		usage:        "Server port",
	}
	logLevel = configVar[string]{
		envKey:       "RAVE_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
		usage:        "Logging level",
	}
	redisHost = configVar[string]{
		envKey:       "RAVE_REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
		usage:        "Redis host",
	}
	redisPort = configVar[int]{
		envKey:       "RAVE_REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
		usage:        "Redis port",
	}
	redisPassword = configVar[string]{
		envKey:  "RAVE_REDIS_PASSWORD",
		flagKey: "redis-password",
		usage:   "Redis password",
	}
	redisDB = configVar[int]{
		envKey:  "RAVE_REDIS_DB",
		flagKey: "redis-db",
		usage:   "Redis database number",
	}
	sessionTTL = configVar[time.Duration]{
		envKey:       "RAVE_SESSION_TTL",
		flagKey:      "session-ttl",
		defaultValue: 2 * time.Hour,
		usage:        "Idle time after which a session is forgotten",
	}
	tickInterval = configVar[time.Duration]{
		envKey:       "RAVE_TICK_INTERVAL",
		flagKey:      "tick-interval",
		defaultValue: 100 * time.Millisecond,
		usage:        "Playback progress tick interval",
	}
	progressStep = configVar[float64]{
		envKey:       "RAVE_PROGRESS_STEP",
		flagKey:      "progress-step",
		defaultValue: 0.5,
		usage:        "Progress added per tick, in percent",
	}
	frameInterval = configVar[time.Duration]{
		envKey:       "RAVE_FRAME_INTERVAL",
		flagKey:      "frame-interval",
		defaultValue: 50 * time.Millisecond,
		usage:        "Waveform frame interval while playing",
	}
	barCount = configVar[int]{
		envKey:       "RAVE_BAR_COUNT",
		flagKey:      "bar-count",
		defaultValue: 32,
		usage:        "Number of waveform bars",
	}
	mashupDelay = configVar[time.Duration]{
		envKey:       "RAVE_MASHUP_DELAY",
		flagKey:      "mashup-delay",
		defaultValue: 3 * time.Second,
		usage:        "Simulated mashup processing time",
	}
	catalogPath = configVar[string]{
		envKey:  "RAVE_CATALOG_PATH",
		flagKey: "catalog-path",
		usage:   "YAML track catalog to load and watch instead of the built-in one",
	}
	ollamaURL = configVar[string]{
		envKey:  "RAVE_OLLAMA_URL",
		flagKey: "ollama-url",
		usage:   "Ollama base URL for mashup titles, empty to use templates",
	}
	ollamaModel = configVar[string]{
		envKey:       "RAVE_OLLAMA_MODEL",
		flagKey:      "ollama-model",
		defaultValue: "llama3.2",
		usage:        "Ollama model name",
	}
	ollamaTimeout = configVar[time.Duration]{
		envKey:       "RAVE_OLLAMA_TIMEOUT",
		flagKey:      "ollama-timeout",
		defaultValue: 10 * time.Second,
		usage:        "Ollama request timeout",
	}
	videoTimeout = configVar[time.Duration]{
		envKey:       "RAVE_VIDEO_TIMEOUT",
		flagKey:      "video-timeout",
		defaultValue: 5 * time.Second,
		usage:        "Video metadata request timeout",
	}
	allowedOrigins = configVar[[]string]{
		envKey:       "RAVE_ALLOWED_ORIGINS",
		flagKey:      "allowed-origins",
		defaultValue: []string{},
		usage:        "Allowed CORS and websocket origins, empty allows all",
	}
	shutdownTimeout = configVar[time.Duration]{
		envKey:       "RAVE_SHUTDOWN_TIMEOUT",
		flagKey:      "shutdown-timeout",
		defaultValue: 30 * time.Second,
		usage:        "Graceful shutdown timeout",
	}
)

var configVars = []flagBinder{
	secret, host, port, logLevel,
	redisHost, redisPort, redisPassword, redisDB,
	sessionTTL, tickInterval, progressStep, frameInterval, barCount,
	mashupDelay, catalogPath, ollamaURL, ollamaModel, ollamaTimeout,
	videoTimeout, allowedOrigins, shutdownTimeout,
}

func bindConfig(fs *pflag.FlagSet, v *viper.Viper) error {
	for _, c := range configVars {
		if err := c.bind(fs, v); err != nil {
			return err
		}
	}

	return nil
}

// loadAppConfig reads the optional config file and resolves every value with
// flags over env over file over defaults.
func loadAppConfig(v *viper.Viper, configFile string) (*app.AppConfig, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := &app.AppConfig{
		Secret:          v.GetString(secret.flagKey),
		Host:            v.GetString(host.flagKey),
		Port:            v.GetInt(port.flagKey),
		LogLevel:        v.GetString(logLevel.flagKey),
		RedisHost:       v.GetString(redisHost.flagKey),
		RedisPort:       v.GetInt(redisPort.flagKey),
		RedisPassword:   v.GetString(redisPassword.flagKey),
		RedisDB:         v.GetInt(redisDB.flagKey),
		SessionTTL:      v.GetDuration(sessionTTL.flagKey),
		TickInterval:    v.GetDuration(tickInterval.flagKey),
		ProgressStep:    v.GetFloat64(progressStep.flagKey),
		FrameInterval:   v.GetDuration(frameInterval.flagKey),
		BarCount:        v.GetInt(barCount.flagKey),
		MashupDelay:     v.GetDuration(mashupDelay.flagKey),
		CatalogPath:     v.GetString(catalogPath.flagKey),
		OllamaURL:       v.GetString(ollamaURL.flagKey),
		OllamaModel:     v.GetString(ollamaModel.flagKey),
		OllamaTimeout:   v.GetDuration(ollamaTimeout.flagKey),
		VideoTimeout:    v.GetDuration(videoTimeout.flagKey),
		AllowedOrigins:  v.GetStringSlice(allowedOrigins.flagKey),
		ShutdownTimeout: v.GetDuration(shutdownTimeout.flagKey),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}
