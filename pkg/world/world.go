// Package world owns one running session of the simulation: every actor,
// the clock, location item pools, the event engine and the world-level
// logs. All access is sequential; a World is not safe for concurrent use.
package world

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/story-sim/pkg/actor"
	"github.com/jwebster45206/story-sim/pkg/clock"
	"github.com/jwebster45206/story-sim/pkg/events"
	"github.com/jwebster45206/story-sim/pkg/narrative"
	"github.com/jwebster45206/story-sim/pkg/scenario"
)

const (
	MaxNotoriety  = 10
	KeyEventLimit = 20
	RumorLimit    = 10

	// DefaultInteractionThreshold is how many ticks must pass before two
	// NPCs sharing the player's location may talk among themselves.
	DefaultInteractionThreshold = 3
	// DefaultInteractionChance is the probability that they do, once the
	// threshold has passed.
	DefaultInteractionChance = 0.35
)

var (
	ErrUnknownActor    = errors.New("unknown actor")
	ErrUnknownItem     = errors.New("unknown item")
	ErrUnknownLocation = errors.New("unknown location")
	ErrNotReachable    = errors.New("location not reachable")
	ErrNotPresent      = errors.New("not present")
)

// World is the explicitly owned session state.
type World struct {
	scen      *scenario.Scenario
	sessionID uuid.UUID
	player    string
	actors    map[string]*actor.Actor // keyed by scenario character key
	clock     *clock.Clock
	engine    *events.Engine

	notoriety     int
	keyEvents     []string
	rumors        []string
	locationItems map[string][]actor.Item

	provider  narrative.Provider
	rng       *rand.Rand
	logger    *slog.Logger
	extra     []events.Event
	cooldown  int
	threshold int
	chance    float64
	idleTicks int // since the last ambient interaction check

	// ctx is the context of the turn in progress, used by event effects
	// that request narrative text. pending collects the text they get.
	ctx     context.Context
	pending []string
}

type Option func(*World)

func WithLogger(l *slog.Logger) Option {
	return func(w *World) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithProvider sets the narrative provider. Without one every request
// returns a sentinel.
func WithProvider(p narrative.Provider) Option {
	return func(w *World) {
		if p != nil {
			w.provider = p
		}
	}
}

// WithRand sets the source for ambient interaction rolls.
func WithRand(r *rand.Rand) Option {
	return func(w *World) {
		if r != nil {
			w.rng = r
		}
	}
}

// WithEvents appends coded events after the scenario's story events.
func WithEvents(evs ...events.Event) Option {
	return func(w *World) {
		w.extra = append(w.extra, evs...)
	}
}

func WithCooldownInterval(ticks int) Option {
	return func(w *World) {
		w.cooldown = ticks
	}
}

// WithInteraction tunes ambient NPC interaction. A chance of zero turns
// it off.
func WithInteraction(threshold int, chance float64) Option {
	return func(w *World) {
		w.threshold = max(threshold, 0)
		w.chance = min(max(chance, 0), 1)
	}
}

// New starts a session for player. The scenario should already be
// normalized. It fails when the player is unknown or starts in a location
// that does not exist.
func New(scen *scenario.Scenario, player string, opts ...Option) (*World, error) {
	if scen == nil {
		return nil, errors.New("scenario is required")
	}
	w := &World{
		scen:          scen,
		sessionID:     uuid.New(),
		actors:        make(map[string]*actor.Actor, len(scen.Characters)),
		clock:         clock.New(0),
		locationItems: make(map[string][]actor.Item, len(scen.Locations)),
		provider:      narrative.Unavailable{},
		rng:           rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger:        slog.New(slog.DiscardHandler),
		threshold:     DefaultInteractionThreshold,
		chance:        DefaultInteractionChance,
		ctx:           context.Background(),
	}
	for _, opt := range opts {
		opt(w)
	}

	for key, t := range scen.Characters {
		w.actors[key] = actor.New(t)
	}
	key, ok := w.resolve(player)
	if !ok {
		return nil, fmt.Errorf("player %q: %w", player, ErrUnknownActor)
	}
	w.player = key
	if _, ok := scen.Locations[w.actors[key].Location]; !ok {
		return nil, fmt.Errorf("player %s starts in %q: %w", key, w.actors[key].Location, ErrUnknownLocation)
	}

	for key, loc := range scen.Locations {
		pool := make([]actor.Item, 0, len(loc.Items))
		for _, name := range loc.Items {
			pool = addToPool(pool, name, 1)
		}
		w.locationItems[key] = pool
	}

	w.engine = events.New(events.WithLogger(w.logger), events.WithCooldownInterval(w.cooldown))
	if err := w.engine.Register(w.compileStoryEvents()...); err != nil {
		return nil, fmt.Errorf("register story events: %w", err)
	}
	if err := w.engine.Register(w.extra...); err != nil {
		return nil, fmt.Errorf("register events: %w", err)
	}

	w.logger.Info("world created",
		"session_id", w.sessionID,
		"player", w.player,
		"location", w.PlayerLocation(),
		"events", w.engine.Len())
	return w, nil
}

// resolve maps a key or display name to a character key.
func (w *World) resolve(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if _, ok := w.actors[name]; ok {
		return name, true
	}
	for _, key := range slices.Sorted(maps.Keys(w.actors)) {
		if strings.EqualFold(key, name) || strings.EqualFold(w.actors[key].Name(), name) {
			return key, true
		}
	}
	return "", false
}

func (w *World) lookup(name string) (string, *actor.Actor, error) {
	if name == "" {
		return w.player, w.actors[w.player], nil
	}
	key, ok := w.resolve(name)
	if !ok {
		return "", nil, fmt.Errorf("%q: %w", name, ErrUnknownActor)
	}
	return key, w.actors[key], nil
}

func (w *World) Scenario() *scenario.Scenario { return w.scen }
func (w *World) SessionID() uuid.UUID         { return w.sessionID }
func (w *World) Clock() clock.Clock           { return *w.clock }

// Player returns the player's actor.
func (w *World) Player() *actor.Actor {
	return w.actors[w.player]
}

// The methods below satisfy scenario.WorldView.

func (w *World) PlayerName() string     { return w.player }
func (w *World) PlayerLocation() string { return w.actors[w.player].Location }
func (w *World) Period() clock.Period   { return w.clock.Period() }
func (w *World) Day() int               { return w.clock.Day() }
func (w *World) Tick() int              { return w.clock.Tick }
func (w *World) Notoriety() int         { return w.notoriety }

// Actor returns the actor for a key or display name.
func (w *World) Actor(name string) (*actor.Actor, bool) {
	key, ok := w.resolve(name)
	if !ok {
		return nil, false
	}
	return w.actors[key], true
}

// Occupants returns the keys of NPCs at location, sorted.
func (w *World) Occupants(location string) []string {
	var out []string
	for _, key := range slices.Sorted(maps.Keys(w.actors)) {
		if key != w.player && w.actors[key].Location == location {
			out = append(out, key)
		}
	}
	return out
}

// AdjustNotoriety shifts notoriety, clamped to [0, MaxNotoriety].
func (w *World) AdjustNotoriety(delta int) int {
	w.notoriety = min(max(w.notoriety+delta, 0), MaxNotoriety)
	return w.notoriety
}

// AddKeyEvent appends to the rolling key event log.
func (w *World) AddKeyEvent(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	w.keyEvents = appendBounded(w.keyEvents, text, KeyEventLimit)
}

func (w *World) KeyEvents() []string { return slices.Clone(w.keyEvents) }
func (w *World) Rumors() []string    { return slices.Clone(w.rumors) }

// AddRumor records a rumor unless it is already known. It reports
// whether the rumor was new.
func (w *World) AddRumor(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	for _, r := range w.rumors {
		if strings.EqualFold(r, text) {
			return false
		}
	}
	w.rumors = appendBounded(w.rumors, text, RumorLimit)
	return true
}

// Triggered returns the event engine's markers.
func (w *World) Triggered() []string {
	return w.engine.Triggered()
}

// ActiveObjectives returns name's active objectives in order.
func (w *World) ActiveObjectives(name string) ([]actor.Objective, error) {
	_, a, err := w.lookup(name)
	if err != nil {
		return nil, err
	}
	return a.ActiveObjectives(), nil
}

// CompletedObjectives returns name's completed objectives in order.
func (w *World) CompletedObjectives(name string) ([]actor.Objective, error) {
	_, a, err := w.lookup(name)
	if err != nil {
		return nil, err
	}
	return a.CompletedObjectives(), nil
}

// AdvanceStage moves an actor's objective to stage.
func (w *World) AdvanceStage(name, objective, stage string) error {
	_, a, err := w.lookup(name)
	if err != nil {
		return err
	}
	if err := checkStage(a, objective, stage); err != nil {
		return err
	}
	a.AdvanceStage(objective, stage)
	return nil
}

// CompleteObjective completes an actor's objective. Completing an already
// completed objective is not an error and changes nothing.
func (w *World) CompleteObjective(name, objective string) error {
	_, a, err := w.lookup(name)
	if err != nil {
		return err
	}
	if _, ok := a.Objective(objective); !ok {
		return fmt.Errorf("%s: %w: %s", a.Name(), actor.ErrObjectiveNotFound, objective)
	}
	a.CompleteObjective(objective, false)
	return nil
}

func (w *World) ActivateObjective(name, objective string) error {
	_, a, err := w.lookup(name)
	if err != nil {
		return err
	}
	if _, ok := a.Objective(objective); !ok {
		return fmt.Errorf("%s: %w: %s", a.Name(), actor.ErrObjectiveNotFound, objective)
	}
	a.ActivateObjective(objective) // completed objectives stay inactive
	return nil
}

func checkStage(a *actor.Actor, objective, stage string) error {
	obj, ok := a.Objective(objective)
	if !ok {
		return fmt.Errorf("%s: %w: %s", a.Name(), actor.ErrObjectiveNotFound, objective)
	}
	if !obj.IsStaged() {
		return fmt.Errorf("%s: %s: %w", a.Name(), objective, actor.ErrNotStaged)
	}
	if _, ok := obj.Stage(stage); !ok {
		return fmt.Errorf("%s: %s: %w: %s", a.Name(), objective, actor.ErrStageNotFound, stage)
	}
	return nil
}

func appendBounded(log []string, entry string, limit int) []string {
	log = append(log, entry)
	if over := len(log) - limit; over > 0 {
		log = append(log[:0:0], log[over:]...)
	}
	return log
}
