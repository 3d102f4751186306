package world

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/jwebster45206/story-sim/pkg/clock"
)

// MoveActor walks name to dest. Dest may be a location key or display
// name. The move is rejected, with nothing changed, unless dest exists,
// an exit leads there from the actor's current location, and the actor
// is allowed to go there.
func (w *World) MoveActor(name, dest string) error {
	_, a, err := w.lookup(name)
	if err != nil {
		return err
	}
	key, ok := w.scen.ResolveLocation(dest)
	if !ok {
		return fmt.Errorf("%q: %w", dest, ErrUnknownLocation)
	}
	if key == a.Location {
		return nil
	}
	if !w.scen.Reachable(a.Location, key) {
		return fmt.Errorf("%s from %s: %w", key, a.Location, ErrNotReachable)
	}
	if err := a.MoveTo(key); err != nil {
		return err
	}
	w.logger.Debug("actor moved", "actor", a.Name(), "location", key)
	return nil
}

// MovePlayer walks the player to dest.
func (w *World) MovePlayer(dest string) error {
	return w.MoveActor(w.player, dest)
}

// placeActor puts an actor somewhere without checking exits. Scheduled
// and scripted moves use it.
func (w *World) placeActor(key, loc string) error {
	a := w.actors[key]
	if _, ok := w.scen.Locations[loc]; !ok {
		return fmt.Errorf("%q: %w", loc, ErrUnknownLocation)
	}
	return a.MoveTo(loc)
}

// followSchedules moves every NPC to its scheduled location for p.
func (w *World) followSchedules(p clock.Period) []string {
	var moved []string
	for _, key := range slices.Sorted(maps.Keys(w.actors)) {
		if key == w.player {
			continue
		}
		a := w.actors[key]
		loc, ok := a.Template.ScheduledLocation(p)
		if !ok || loc == a.Location {
			continue
		}
		if err := w.placeActor(key, loc); err != nil {
			w.logger.Warn("schedule move rejected", "actor", key, "period", p, "location", loc, "error", err)
			continue
		}
		moved = append(moved, key)
	}
	return moved
}

// Describe renders the player's surroundings.
func (w *World) Describe() string {
	key := w.PlayerLocation()
	loc, ok := w.scen.Location(key)
	if !ok {
		return "You are in an unknown location."
	}

	var sb strings.Builder
	sb.WriteString(loc.Name + " (" + w.clock.String() + ")\n")
	if desc := loc.Describe(w.clock.Period()); desc != "" {
		sb.WriteString(desc + "\n")
	}

	if here := w.Occupants(key); len(here) > 0 {
		names := make([]string, len(here))
		for i, k := range here {
			names[i] = w.actors[k].Name()
		}
		sb.WriteString("Here: " + strings.Join(names, ", ") + "\n")
	}
	if items := w.locationItems[key]; len(items) > 0 {
		names := make([]string, len(items))
		for i, it := range items {
			names[i] = w.itemName(it.Name)
			if it.Quantity > 1 {
				names[i] = fmt.Sprintf("%s (%d)", names[i], it.Quantity)
			}
		}
		sb.WriteString("You see: " + strings.Join(names, ", ") + "\n")
	}
	if len(loc.Exits) > 0 {
		sb.WriteString("Exits:\n")
	}
	for _, dest := range loc.ExitKeys() {
		name := dest
		if d, ok := w.scen.Locations[dest]; ok {
			name = d.Name
		}
		sb.WriteString(fmt.Sprintf("- %s: %s\n", name, loc.Exits[dest]))
	}
	return strings.TrimRight(sb.String(), "\n")
}
