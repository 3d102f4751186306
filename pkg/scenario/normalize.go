package scenario

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/story-sim/pkg/actor"
)

// PlayerLocation can be used as a move_actor destination to send an NPC
// to wherever the player is.
const PlayerLocation = "@player"

// Normalize fills in defaults and repairs what can be repaired safely:
// names default to their keys, a default location missing from a
// character's allowed set is added, and stage flags are recomputed. Each
// repair is logged as a warning and returned.
func (s *Scenario) Normalize(logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if s.Characters == nil {
		s.Characters = make(map[string]*actor.Template)
	}
	if s.Locations == nil {
		s.Locations = make(map[string]Location)
	}
	if s.Items == nil {
		s.Items = make(map[string]Item)
	}

	var warnings []string
	for _, key := range s.CharacterKeys() {
		t := s.Characters[key]
		if t == nil {
			delete(s.Characters, key)
			continue
		}
		if t.Name == "" {
			t.Name = key
		}
		if t.RepairDefaultLocation() {
			msg := fmt.Sprintf("character %s: default location %q was not allowed; added it", key, t.DefaultLocation)
			logger.Warn("repaired default location", "character", key, "location", t.DefaultLocation)
			warnings = append(warnings, msg)
		}
		for i := range t.Objectives {
			t.Objectives[i].NormalizeStages()
		}
	}
	for key, loc := range s.Locations {
		if loc.Name == "" {
			loc.Name = key
			s.Locations[key] = loc
		}
	}
	for key, item := range s.Items {
		if item.Name == "" {
			item.Name = key
			s.Items[key] = item
		}
	}
	return warnings
}

// Validate checks cross references between characters, locations, items
// and story events. All problems found are joined into one error.
func (s *Scenario) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if len(s.Characters) == 0 {
		add("scenario has no characters")
	}
	if len(s.PlayableCharacters()) == 0 && len(s.Characters) > 0 {
		add("scenario has no playable characters")
	}

	for _, key := range s.CharacterKeys() {
		t := s.Characters[key]
		if t.DefaultLocation == "" {
			add("character %s: missing default location", key)
		} else if _, ok := s.Locations[t.DefaultLocation]; !ok {
			add("character %s: unknown default location %q", key, t.DefaultLocation)
		}
		for _, loc := range t.AllowedLocations {
			if _, ok := s.Locations[loc]; !ok {
				add("character %s: unknown allowed location %q", key, loc)
			}
		}
		for period, loc := range t.Schedule {
			if !t.Allows(loc) {
				add("character %s: %s schedule location %q is not allowed", key, period, loc)
			}
		}
		for _, item := range t.Inventory {
			if !s.HasItem(item.Name) {
				add("character %s: unknown inventory item %q", key, item.Name)
			}
		}
		errs = append(errs, validateObjectives(key, t.Objectives)...)
	}

	for key, loc := range s.Locations {
		for dest := range loc.Exits {
			if _, ok := s.Locations[dest]; !ok {
				add("location %s: exit to unknown location %q", key, dest)
			}
		}
		for _, item := range loc.Items {
			if !s.HasItem(item) {
				add("location %s: unknown item %q", key, item)
			}
		}
	}

	seen := make(map[string]bool)
	for i, ev := range s.StoryEvents {
		if ev.ID == "" {
			add("story event %d: missing id", i)
			continue
		}
		if seen[ev.ID] {
			add("story event %s: duplicate id", ev.ID)
		}
		seen[ev.ID] = true
		errs = append(errs, s.validateStoryEvent(ev)...)
	}

	return errors.Join(errs...)
}

func validateObjectives(character string, objectives []actor.Objective) []error {
	var errs []error
	ids := make(map[string]bool)
	for _, obj := range objectives {
		if obj.ID == "" {
			errs = append(errs, fmt.Errorf("character %s: objective with no id", character))
			continue
		}
		if ids[obj.ID] {
			errs = append(errs, fmt.Errorf("character %s: duplicate objective %q", character, obj.ID))
		}
		ids[obj.ID] = true

		stages := make(map[string]bool)
		for _, st := range obj.Stages {
			if stages[st.ID] {
				errs = append(errs, fmt.Errorf("character %s: objective %s: duplicate stage %q", character, obj.ID, st.ID))
			}
			stages[st.ID] = true
		}
		for _, st := range obj.Stages {
			for label, target := range st.Next {
				if !stages[target] {
					errs = append(errs, fmt.Errorf("character %s: objective %s: stage %s branch %q targets unknown stage %q",
						character, obj.ID, st.ID, label, target))
				}
			}
		}
		if !obj.StagesConsistent() {
			errs = append(errs, fmt.Errorf("character %s: objective %s: inconsistent current stage", character, obj.ID))
		}
	}
	return errs
}

func (s *Scenario) validateStoryEvent(ev StoryEvent) []error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("story event %s: "+format, append([]any{ev.ID}, args...)...))
	}

	w := ev.When
	if w.IsEmpty() {
		add("empty when clause")
	}
	if w.Player != "" {
		if _, ok := s.Character(w.Player); !ok {
			add("unknown player %q", w.Player)
		}
	}
	if w.Location != "" {
		if _, ok := s.Locations[w.Location]; !ok {
			add("unknown location %q", w.Location)
		}
	}
	if w.OccupiedBy != "" {
		if _, ok := s.Character(w.OccupiedBy); !ok {
			add("unknown occupant %q", w.OccupiedBy)
		}
	}
	if w.ActorState != nil {
		s.checkActor(w.ActorState.Actor, add)
	}
	if w.Stage != nil {
		s.checkStage(w.Stage.Actor, w.Stage.Objective, w.Stage.Stage, add)
	}
	if w.ObjectiveComplete != nil {
		s.checkObjective(w.ObjectiveComplete.Actor, w.ObjectiveComplete.Objective, add)
	}
	if w.HasItem != nil {
		s.checkItem(w.HasItem.Actor, w.HasItem.Item, add)
	}

	t := ev.Then
	if t.Memory != nil {
		s.checkActor(t.Memory.Actor, add)
	}
	if t.SetState != nil {
		s.checkActor(t.SetState.Actor, add)
	}
	if t.AdvanceStage != nil {
		s.checkStage(t.AdvanceStage.Actor, t.AdvanceStage.Objective, t.AdvanceStage.Stage, add)
	}
	if t.CompleteObjective != nil {
		s.checkObjective(t.CompleteObjective.Actor, t.CompleteObjective.Objective, add)
	}
	if t.ActivateObjective != nil {
		s.checkObjective(t.ActivateObjective.Actor, t.ActivateObjective.Objective, add)
	}
	if t.AddItem != nil {
		s.checkItem(t.AddItem.Actor, t.AddItem.Item, add)
	}
	if t.RemoveItem != nil {
		s.checkItem(t.RemoveItem.Actor, t.RemoveItem.Item, add)
	}
	if t.LocationItem != nil {
		if !s.HasItem(t.LocationItem.Item) {
			add("unknown item %q", t.LocationItem.Item)
		}
		if loc := t.LocationItem.Location; loc != "" {
			if _, ok := s.Locations[loc]; !ok {
				add("unknown location %q", loc)
			}
		}
	}
	if t.MoveActor != nil {
		if t.MoveActor.Actor == "" {
			add("move_actor needs an actor")
		} else {
			s.checkActor(t.MoveActor.Actor, add)
		}
		if loc := t.MoveActor.Location; loc != PlayerLocation {
			if _, ok := s.Locations[loc]; !ok {
				add("unknown location %q", loc)
			}
		}
	}
	if t.Narrative != nil && !t.Narrative.Kind.Valid() {
		add("unknown narrative kind %q", t.Narrative.Kind)
	}
	return errs
}

// Empty actor references mean the player, which is only known at runtime.

func (s *Scenario) checkActor(name string, add func(string, ...any)) *actor.Template {
	if name == "" {
		return nil
	}
	t, ok := s.Character(name)
	if !ok {
		add("unknown actor %q", name)
		return nil
	}
	return t
}

func (s *Scenario) checkObjective(name, objective string, add func(string, ...any)) *actor.Objective {
	t := s.checkActor(name, add)
	if t == nil {
		return nil
	}
	for i := range t.Objectives {
		if t.Objectives[i].ID == objective {
			return &t.Objectives[i]
		}
	}
	add("%s has no objective %q", name, objective)
	return nil
}

func (s *Scenario) checkStage(name, objective, stage string, add func(string, ...any)) {
	obj := s.checkObjective(name, objective, add)
	if obj == nil {
		return
	}
	if _, ok := obj.Stage(stage); !ok {
		add("objective %s of %s has no stage %q", objective, name, stage)
	}
}

func (s *Scenario) checkItem(name, item string, add func(string, ...any)) {
	s.checkActor(name, add)
	if !s.HasItem(item) {
		add("unknown item %q", item)
	}
}
