package world

import (
	"fmt"

	"github.com/jwebster45206/story-sim/pkg/actor"
	"github.com/jwebster45206/story-sim/pkg/events"
	"github.com/jwebster45206/story-sim/pkg/narrative"
	"github.com/jwebster45206/story-sim/pkg/scenario"
)

// compileStoryEvents turns the scenario's declarative beats into engine
// events, keeping their list order.
func (w *World) compileStoryEvents() []events.Event {
	out := make([]events.Event, 0, len(w.scen.StoryEvents))
	for _, se := range w.scen.StoryEvents {
		when, then := se.When, se.Then
		out = append(out, events.Event{
			ID:         se.ID,
			Repeatable: se.Repeatable,
			Condition:  func() (bool, error) { return when.Evaluate(w) },
			Effect:     func() error { return w.applyThen(then) },
		})
	}
	return out
}

// applyThen resolves and checks every effect before changing anything, so
// a beat with a bad reference leaves the world as it was. The narrative
// beat runs last and never fails the event.
func (w *World) applyThen(t scenario.Then) error {
	var steps []func()
	add := func(f func()) { steps = append(steps, f) }

	if m := t.Memory; m != nil {
		_, a, err := w.lookup(m.Actor)
		if err != nil {
			return err
		}
		fact := m.Fact
		add(func() { a.Remember(fact) })
	}
	if s := t.SetState; s != nil {
		_, a, err := w.lookup(s.Actor)
		if err != nil {
			return err
		}
		state := s.State
		add(func() { a.SetState(state) })
	}
	if ref := t.AdvanceStage; ref != nil {
		_, a, err := w.lookup(ref.Actor)
		if err != nil {
			return err
		}
		if err := checkStage(a, ref.Objective, ref.Stage); err != nil {
			return err
		}
		obj, stage := ref.Objective, ref.Stage
		add(func() { a.AdvanceStage(obj, stage) })
	}
	if ref := t.CompleteObjective; ref != nil {
		_, a, err := w.lookup(ref.Actor)
		if err != nil {
			return err
		}
		if _, ok := a.Objective(ref.Objective); !ok {
			return fmt.Errorf("%s: %w: %s", a.Name(), actor.ErrObjectiveNotFound, ref.Objective)
		}
		obj := ref.Objective
		add(func() { a.CompleteObjective(obj, false) })
	}
	if ref := t.ActivateObjective; ref != nil {
		_, a, err := w.lookup(ref.Actor)
		if err != nil {
			return err
		}
		if _, ok := a.Objective(ref.Objective); !ok {
			return fmt.Errorf("%s: %w: %s", a.Name(), actor.ErrObjectiveNotFound, ref.Objective)
		}
		obj := ref.Objective
		add(func() { a.ActivateObjective(obj) })
	}
	if ref := t.AddItem; ref != nil {
		_, a, err := w.lookup(ref.Actor)
		if err != nil {
			return err
		}
		key, ok := w.ResolveItem(ref.Item)
		if !ok {
			return fmt.Errorf("%q: %w", ref.Item, ErrUnknownItem)
		}
		qty := max(ref.Quantity, 1)
		add(func() { _ = a.AddItem(key, qty) })
	}
	if ref := t.RemoveItem; ref != nil {
		_, a, err := w.lookup(ref.Actor)
		if err != nil {
			return err
		}
		key, ok := w.ResolveItem(ref.Item)
		if !ok {
			return fmt.Errorf("%q: %w", ref.Item, ErrUnknownItem)
		}
		qty := max(ref.Quantity, 1)
		if a.Quantity(key) < qty {
			return fmt.Errorf("remove %d %q from %s: %w", qty, key, a.Name(), actor.ErrInsufficientQuantity)
		}
		add(func() { _ = a.RemoveItem(key, qty) })
	}
	if li := t.LocationItem; li != nil {
		loc := li.Location
		if loc == "" {
			loc = w.PlayerLocation()
		}
		if _, ok := w.scen.Locations[loc]; !ok {
			return fmt.Errorf("%q: %w", loc, ErrUnknownLocation)
		}
		key, ok := w.ResolveItem(li.Item)
		if !ok {
			return fmt.Errorf("%q: %w", li.Item, ErrUnknownItem)
		}
		qty := max(li.Quantity, 1)
		add(func() { w.locationItems[loc] = addToPool(w.locationItems[loc], key, qty) })
	}
	if mv := t.MoveActor; mv != nil {
		key, a, err := w.lookup(mv.Actor)
		if err != nil {
			return err
		}
		dest := mv.Location
		if dest == scenario.PlayerLocation {
			dest = w.PlayerLocation()
		}
		if _, ok := w.scen.Locations[dest]; !ok {
			return fmt.Errorf("%q: %w", dest, ErrUnknownLocation)
		}
		if !a.CanVisit(dest) {
			return fmt.Errorf("%s cannot go to %q: %w", a.Name(), dest, actor.ErrLocationNotAllowed)
		}
		add(func() { _ = w.placeActor(key, dest) })
	}
	if t.Notoriety != 0 {
		delta := t.Notoriety
		add(func() { w.AdjustNotoriety(delta) })
	}
	if t.KeyEvent != "" {
		text := t.KeyEvent
		add(func() { w.AddKeyEvent(text) })
	}
	if t.Narrative != nil && !t.Narrative.Kind.Valid() {
		return fmt.Errorf("unknown narrative kind %q", t.Narrative.Kind)
	}

	for _, step := range steps {
		step()
	}

	if beat := t.Narrative; beat != nil {
		w.narrateBeat(*beat)
	}
	return nil
}

func (w *World) narrateBeat(beat scenario.NarrativeBeat) {
	req := w.playerRequest(beat.Kind)
	req.Subject = beat.Subject
	text := w.generate(w.ctx, req)
	if narrative.IsSentinel(text) {
		return
	}
	w.AddKeyEvent(text)
	w.pending = append(w.pending, text)
}
