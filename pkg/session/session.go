// Package session turns player command lines into world operations.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/story-sim/pkg/scenario"
	"github.com/jwebster45206/story-sim/pkg/world"
)

// ErrFatal marks errors that must end the session loop.
var ErrFatal = errors.New("fatal")

// DefaultSlot is the save slot used when none is given.
const DefaultSlot = "autosave"

// Store persists save states by slot. Load returns nil, nil for an empty
// slot.
type Store interface {
	Save(ctx context.Context, slot string, s *world.SaveState) error
	Load(ctx context.Context, slot string) (*world.SaveState, error)
}

// LineKind tells a client how to style a line of output.
type LineKind string

const (
	LineNarration LineKind = "narration"
	LineSpeech    LineKind = "speech"
	LineSystem    LineKind = "system"
	LineMuted     LineKind = "muted" // placeholder or failure text
)

// Line is one line of output.
type Line struct {
	Kind    LineKind
	Speaker string
	Text    string
}

// Result is the outcome of one command.
type Result struct {
	Lines []Line
	Quit  bool
}

func (r *Result) add(kind LineKind, text string) {
	r.Lines = append(r.Lines, Line{Kind: kind, Text: text})
}

func (r *Result) say(speaker, text string) {
	r.Lines = append(r.Lines, Line{Kind: LineSpeech, Speaker: speaker, Text: text})
}

// Session runs commands against one world.
type Session struct {
	World *world.World
	Store Store
	Slot  string

	scen   *scenario.Scenario
	opts   []world.Option
	logger *slog.Logger
}

// New starts a fresh world for player. Failures are fatal.
func New(scen *scenario.Scenario, player string, store Store, logger *slog.Logger, opts ...world.Option) (*Session, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if player == "" {
		return nil, fmt.Errorf("%w: no player selected", ErrFatal)
	}
	opts = append([]world.Option{world.WithLogger(logger)}, opts...)
	w, err := world.New(scen, player, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFatal, err)
	}
	return &Session{World: w, Store: store, Slot: DefaultSlot, scen: scen, opts: opts, logger: logger}, nil
}

// Resume restores a session from slot. It returns nil, nil when the slot
// is empty.
func Resume(ctx context.Context, scen *scenario.Scenario, store Store, slot string, logger *slog.Logger, opts ...world.Option) (*Session, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if store == nil {
		return nil, errors.New("no save store configured")
	}
	save, err := store.Load(ctx, slot)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", slot, err)
	}
	if save == nil {
		return nil, nil
	}
	opts = append([]world.Option{world.WithLogger(logger)}, opts...)
	w, err := world.Restore(scen, save, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFatal, err)
	}
	return &Session{World: w, Store: store, Slot: slot, scen: scen, opts: opts, logger: logger}, nil
}

// Handle runs one command line. Only errors wrapping ErrFatal are
// returned; every other failure becomes muted output.
func (s *Session) Handle(ctx context.Context, input string) (Result, error) {
	if s.World == nil {
		return Result{}, fmt.Errorf("%w: no world loaded", ErrFatal)
	}
	if _, ok := s.scen.Location(s.World.PlayerLocation()); !ok {
		return Result{}, fmt.Errorf("%w: current location %q missing", ErrFatal, s.World.PlayerLocation())
	}

	cmd, arg := parseCommand(input)
	s.logger.Debug("handling command", "command", cmd, "arg", arg)

	var res Result
	h, ok := handlers[cmd]
	if !ok {
		res.add(LineMuted, msgNothingHappens)
		return res, nil
	}
	spent, err := h(ctx, s, arg, &res)
	if err != nil {
		if errors.Is(err, ErrFatal) {
			return res, err
		}
		s.logger.Warn("command failed", "command", cmd, "error", err)
		res.add(LineMuted, msgNothingHappens)
		return res, nil
	}
	if spent > 0 {
		s.advance(ctx, spent, &res)
	}
	return res, nil
}

// Greeting is the opening text for a new session.
func (s *Session) Greeting() Result {
	var res Result
	if s.scen.Name != "" {
		res.add(LineSystem, s.scen.Name)
	}
	if s.scen.Story != "" {
		res.add(LineNarration, s.scen.Story)
	}
	res.add(LineNarration, s.World.Describe())
	res.add(LineSystem, "Type 'help' for commands.")
	return res
}
