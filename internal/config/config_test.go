package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "data/scenarios/petersburg.json", cfg.ScenarioPath)
	assert.Equal(t, SaveBackendFile, cfg.SaveBackend)
	assert.Equal(t, "./saves", cfg.SaveDir)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, ProviderNone, cfg.LLMProvider)
	assert.Equal(t, "mature", cfg.ContentRating)
	assert.Zero(t, cfg.RandomSeed)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"ENVIRONMENT":    "production",
		"LOG_LEVEL":      "warning",
		"SAVE_BACKEND":   "Redis",
		"LLM_PROVIDER":   " Anthropic ",
		"LLM_MODEL":      "claude-sonnet",
		"CONTENT_RATING": "PG13",
		"RANDOM_SEED":    "42",
	})
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, SaveBackendRedis, cfg.SaveBackend)
	assert.Equal(t, ProviderAnthropic, cfg.LLMProvider)
	assert.Equal(t, "claude-sonnet", cfg.LLMModel)
	assert.Equal(t, "pg13", cfg.ContentRating)
	assert.Equal(t, uint64(42), cfg.RandomSeed)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{name: "save backend", vars: map[string]string{"SAVE_BACKEND": "s3"}},
		{name: "provider", vars: map[string]string{"LLM_PROVIDER": "oracle"}},
		{name: "seed", vars: map[string]string{"RANDOM_SEED": "lots"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(tt.vars)
			assert.Error(t, err)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in       string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.in))
		})
	}
}
