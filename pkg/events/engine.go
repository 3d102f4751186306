// Package events decides which scripted story beat, if any, fires on a
// tick.
package events

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// DefaultCooldownInterval is the tick spacing of the sweep that re-arms
// repeatable events.
const DefaultCooldownInterval = 15

// RecentSuffix is appended to a repeatable event's id while it cools down.
const RecentSuffix = "_recent"

var (
	ErrDuplicateEvent = errors.New("duplicate event id")
	ErrInvalidEvent   = errors.New("invalid event")
)

// Event is one story beat. Condition must not mutate state; Effect may.
type Event struct {
	ID         string
	Repeatable bool
	Condition  func() (bool, error)
	Effect     func() error
}

// Engine evaluates registered events in registration order. At most one
// event fires per evaluation.
type Engine struct {
	events    []Event
	ids       map[string]struct{}
	triggered map[string]struct{}
	interval  int
	lastTick  int
	logger    *slog.Logger
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithCooldownInterval overrides DefaultCooldownInterval. Values below 1
// are ignored.
func WithCooldownInterval(ticks int) Option {
	return func(e *Engine) {
		if ticks > 0 {
			e.interval = ticks
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		ids:       make(map[string]struct{}),
		triggered: make(map[string]struct{}),
		interval:  DefaultCooldownInterval,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register appends events to the evaluation order. Nothing is registered
// if any event is invalid or reuses an id.
func (e *Engine) Register(evs ...Event) error {
	batch := make(map[string]struct{}, len(evs))
	for _, ev := range evs {
		if ev.ID == "" || ev.Condition == nil || ev.Effect == nil {
			return fmt.Errorf("%w: %q needs an id, a condition and an effect", ErrInvalidEvent, ev.ID)
		}
		if strings.HasSuffix(ev.ID, RecentSuffix) {
			return fmt.Errorf("%w: %q must not end in %s", ErrInvalidEvent, ev.ID, RecentSuffix)
		}
		_, dup := e.ids[ev.ID]
		if _, inBatch := batch[ev.ID]; dup || inBatch {
			return fmt.Errorf("%w: %s", ErrDuplicateEvent, ev.ID)
		}
		batch[ev.ID] = struct{}{}
	}
	for _, ev := range evs {
		e.ids[ev.ID] = struct{}{}
		e.events = append(e.events, ev)
	}
	return nil
}

// Len returns the number of registered events.
func (e *Engine) Len() int {
	return len(e.events)
}

// Evaluate runs one sweep for tick. It returns the id of the event whose
// effect ran, successfully or not, and whether any did.
func (e *Engine) Evaluate(tick int) (string, bool) {
	if e.sweepDue(tick) {
		e.clearRecent()
	}
	if tick > e.lastTick {
		e.lastTick = tick
	}

	for _, ev := range e.events {
		if e.coolingDown(ev) {
			continue
		}

		ok, err := e.check(ev)
		if err != nil {
			e.logger.Error("event condition failed", "event_id", ev.ID, "tick", tick, "error", err)
			continue
		}
		if !ok {
			continue
		}

		err = e.apply(ev)
		switch {
		case !ev.Repeatable:
			e.triggered[ev.ID] = struct{}{}
		case err == nil:
			e.triggered[ev.ID+RecentSuffix] = struct{}{}
		}
		if err != nil {
			e.logger.Error("event effect failed", "event_id", ev.ID, "tick", tick, "error", err)
		} else {
			e.logger.Debug("event fired", "event_id", ev.ID, "tick", tick)
		}
		return ev.ID, true
	}
	return "", false
}

// sweepDue reports whether a multiple of the interval lies in
// (lastTick, tick], so advancing several ticks at once never skips it.
func (e *Engine) sweepDue(tick int) bool {
	if tick <= e.lastTick {
		return false
	}
	return tick/e.interval > e.lastTick/e.interval
}

func (e *Engine) clearRecent() {
	for marker := range e.triggered {
		if strings.HasSuffix(marker, RecentSuffix) {
			delete(e.triggered, marker)
		}
	}
}

func (e *Engine) coolingDown(ev Event) bool {
	if ev.Repeatable {
		_, ok := e.triggered[ev.ID+RecentSuffix]
		return ok
	}
	_, ok := e.triggered[ev.ID]
	return ok
}

func (e *Engine) check(ev Event) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("condition panicked: %v", r)
		}
	}()
	return ev.Condition()
}

func (e *Engine) apply(ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("effect panicked: %v", r)
		}
	}()
	return ev.Effect()
}

// Fired reports whether id holds a one-shot or cooldown marker.
func (e *Engine) Fired(id string) bool {
	_, ok := e.triggered[id]
	return ok
}

// Triggered returns every marker, sorted.
func (e *Engine) Triggered() []string {
	out := make([]string, 0, len(e.triggered))
	for marker := range e.triggered {
		out = append(out, marker)
	}
	slices.Sort(out)
	return out
}

// LastTick returns the most recent tick evaluated.
func (e *Engine) LastTick() int {
	return e.lastTick
}

// Restore replaces the marker set and the last evaluated tick, as read
// back from a save.
func (e *Engine) Restore(markers []string, lastTick int) {
	e.triggered = make(map[string]struct{}, len(markers))
	for _, m := range markers {
		if m != "" {
			e.triggered[m] = struct{}{}
		}
	}
	e.lastTick = max(lastTick, 0)
}
