package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// LLM providers.
const (
	ProviderNone      = "none"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Save backends.
const (
	SaveBackendFile  = "file"
	SaveBackendRedis = "redis"
)

type Config struct {
	Environment   string `env:"ENVIRONMENT"    envDefault:"development"`
	LogLevelName  string `env:"LOG_LEVEL"      envDefault:"info"`
	LogFile       string `env:"LOG_FILE"`
	ScenarioPath  string `env:"SCENARIO_PATH"  envDefault:"data/scenarios/petersburg.json"`
	SaveBackend   string `env:"SAVE_BACKEND"   envDefault:"file"`
	SaveDir       string `env:"SAVE_DIR"       envDefault:"./saves"`
	RedisURL      string `env:"REDIS_URL"      envDefault:"redis://localhost:6379"`
	LLMProvider   string `env:"LLM_PROVIDER"   envDefault:"none"`
	LLMModel      string `env:"LLM_MODEL"`
	LLMBaseURL    string `env:"LLM_BASE_URL"`
	LLMAPIKey     string `env:"LLM_API_KEY"`
	ContentRating string `env:"CONTENT_RATING" envDefault:"mature"`
	RandomSeed    uint64 `env:"RANDOM_SEED"    envDefault:"0"` // 0 picks a seed from the clock

	LogLevel slog.Level
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads the configuration from vars instead of the process
// environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelName)
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	cfg.SaveBackend = strings.ToLower(strings.TrimSpace(cfg.SaveBackend))
	cfg.ContentRating = strings.ToLower(strings.TrimSpace(cfg.ContentRating))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.SaveBackend {
	case SaveBackendFile, SaveBackendRedis:
	default:
		return fmt.Errorf("unknown SAVE_BACKEND %q", c.SaveBackend)
	}
	switch c.LLMProvider {
	case ProviderNone, ProviderOllama, ProviderAnthropic, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
