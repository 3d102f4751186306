package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/story-sim/internal/config"
	"github.com/jwebster45206/story-sim/internal/logger"
	"github.com/jwebster45206/story-sim/internal/services"
	"github.com/jwebster45206/story-sim/internal/storage"
	"github.com/jwebster45206/story-sim/pkg/narrative"
	"github.com/jwebster45206/story-sim/pkg/scenario"
	"github.com/jwebster45206/story-sim/pkg/world"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// The alt screen owns stdout, so logs go to LOG_FILE or nowhere.
	var logOut io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := logger.OpenFile(cfg.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	log := logger.Setup(cfg, logOut)

	scen, err := storage.LoadScenario(cfg.ScenarioPath, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load scenario: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, closeStore, err := openStore(ctx, cfg, log)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open save store: %v\n", err)
		os.Exit(1)
	}
	defer closeStore()

	opts := []world.Option{
		world.WithProvider(buildProvider(cfg, scen, log)),
		world.WithRand(newRand(cfg.RandomSeed)),
	}

	p := tea.NewProgram(NewConsoleUI(scen, store, log, opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.SaveStore, func(), error) {
	switch cfg.SaveBackend {
	case config.SaveBackendRedis:
		rs, err := storage.NewRedisStore(cfg.RedisURL, log)
		if err != nil {
			return nil, nil, err
		}
		if err := rs.WaitForConnection(ctx); err != nil {
			_ = rs.Close()
			return nil, nil, err
		}
		return rs, func() { _ = rs.Close() }, nil
	default:
		fs, err := storage.NewFileStore(cfg.SaveDir, log)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	}
}

// buildProvider returns the LLM-backed provider, or the unavailable
// provider when no backend is configured. The stricter of the config and
// narrator ratings wins.
func buildProvider(cfg *config.Config, scen *scenario.Scenario, log *slog.Logger) narrative.Provider {
	llm, err := services.NewLLMService(cfg, log)
	if errors.Is(err, services.ErrNoProvider) {
		log.Info("No LLM provider configured; narration is unavailable")
		return narrative.Unavailable{}
	}
	if err != nil {
		logger.WithError(log, err).Error("Failed to create LLM service")
		return narrative.Unavailable{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := llm.InitModel(ctx, cfg.LLMModel); err != nil {
		logger.WithError(log, err).Warn("LLM model not ready; continuing", "provider", cfg.LLMProvider)
	}

	rating := cfg.ContentRating
	if scen.Narrator != nil && scen.Narrator.Rating == scenario.RatingPG13 {
		rating = scenario.RatingPG13
	}
	return services.NewNarrativeProvider(llm, log, services.WithContentRating(rating))
}

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed>>1|1))
}
