package world

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/story-sim/pkg/actor"
	"github.com/jwebster45206/story-sim/pkg/clock"
	"github.com/jwebster45206/story-sim/pkg/scenario"
)

// SaveVersion is the current save format.
const SaveVersion = 1

var ErrSaveVersion = errors.New("unsupported save version")

// SaveState is a full snapshot of a session. Static character data is
// not saved; it comes from the scenario on restore.
type SaveState struct {
	Version       int                       `json:"version"`
	SessionID     uuid.UUID                 `json:"session_id"`
	Scenario      string                    `json:"scenario,omitempty"`
	Player        string                    `json:"player"`
	Tick          int                       `json:"tick"`
	Notoriety     int                       `json:"notoriety"`
	Actors        map[string]actor.Snapshot `json:"actors"`
	Triggered     []string                  `json:"triggered_events,omitempty"`
	KeyEvents     []string                  `json:"key_events,omitempty"`
	Rumors        []string                  `json:"rumors,omitempty"`
	LocationItems map[string][]actor.Item   `json:"location_items,omitempty"`
	IdleTicks     int                       `json:"idle_ticks,omitempty"`
	SavedAt       time.Time                 `json:"saved_at"`
}

// Save snapshots the world.
func (w *World) Save() *SaveState {
	s := &SaveState{
		Version:       SaveVersion,
		SessionID:     w.sessionID,
		Scenario:      w.scen.Name,
		Player:        w.player,
		Tick:          w.clock.Tick,
		Notoriety:     w.notoriety,
		Actors:        make(map[string]actor.Snapshot, len(w.actors)),
		Triggered:     w.engine.Triggered(),
		KeyEvents:     w.KeyEvents(),
		Rumors:        w.Rumors(),
		LocationItems: make(map[string][]actor.Item, len(w.locationItems)),
		IdleTicks:     w.idleTicks,
		SavedAt:       time.Now().UTC(),
	}
	for key, a := range w.actors {
		s.Actors[key] = a.Snapshot()
	}
	for key, pool := range w.locationItems {
		s.LocationItems[key] = slices.Clone(pool)
	}
	return s
}

// Restore rebuilds a world from a save against the current scenario.
// Characters the scenario no longer has are dropped; characters absent
// from the save start fresh. It fails when the saved player is unknown or
// stands somewhere the scenario does not have.
func Restore(scen *scenario.Scenario, s *SaveState, opts ...Option) (*World, error) {
	if s == nil {
		return nil, errors.New("save state is required")
	}
	if s.Version > SaveVersion {
		return nil, fmt.Errorf("%w: %d", ErrSaveVersion, s.Version)
	}
	w, err := New(scen, s.Player, opts...)
	if err != nil {
		return nil, err
	}
	if s.SessionID != uuid.Nil {
		w.sessionID = s.SessionID
	}
	w.clock = clock.New(s.Tick)

	for _, key := range slices.Sorted(maps.Keys(s.Actors)) {
		t, ok := scen.Characters[key]
		if !ok {
			w.logger.Warn("saved character not in scenario; dropped", "character", key)
			continue
		}
		a, kept := actor.Restore(t, s.Actors[key])
		if !kept {
			w.logger.Warn("saved location not allowed; using default",
				"character", key, "saved", s.Actors[key].Location, "location", a.Location)
		}
		w.actors[key] = a
	}
	if _, ok := scen.Locations[w.PlayerLocation()]; !ok {
		return nil, fmt.Errorf("player %s is in %q: %w", w.player, w.PlayerLocation(), ErrUnknownLocation)
	}

	w.engine.Restore(s.Triggered, s.Tick)
	w.notoriety = min(max(s.Notoriety, 0), MaxNotoriety)
	w.keyEvents = nil
	for _, e := range s.KeyEvents {
		w.AddKeyEvent(e)
	}
	w.rumors = nil
	for _, r := range s.Rumors {
		w.AddRumor(r)
	}
	for key, pool := range s.LocationItems {
		if _, ok := scen.Locations[key]; !ok {
			continue
		}
		items := make([]actor.Item, 0, len(pool))
		for _, it := range pool {
			if it.Name != "" && it.Quantity > 0 {
				items = addToPool(items, it.Name, it.Quantity)
			}
		}
		w.locationItems[key] = items
	}
	w.idleTicks = max(s.IdleTicks, 0)

	w.logger.Info("world restored", "session_id", w.sessionID, "player", w.player, "tick", w.clock.Tick)
	return w, nil
}
