package scenario

import (
	"fmt"

	"github.com/jwebster45206/story-sim/pkg/actor"
	"github.com/jwebster45206/story-sim/pkg/clock"
	"github.com/jwebster45206/story-sim/pkg/narrative"
)

// StoryEvent is a scripted beat authored in content. Its When clause is a
// conjunction of world checks; its Then clause is a set of effects applied
// together when the beat fires.
type StoryEvent struct {
	ID         string `json:"id"`
	Repeatable bool   `json:"repeatable,omitempty"` // re-arms after each cooldown sweep
	When       When   `json:"when"`
	Then       Then   `json:"then"`
}

// Actor fields below name a character; an empty actor means the player.

type ActorState struct {
	Actor string              `json:"actor,omitempty"`
	State actor.ApparentState `json:"state"`
}

type StageRef struct {
	Actor     string `json:"actor,omitempty"`
	Objective string `json:"objective"`
	Stage     string `json:"stage"`
}

type ObjectiveRef struct {
	Actor     string `json:"actor,omitempty"`
	Objective string `json:"objective"`
}

type ItemRef struct {
	Actor    string `json:"actor,omitempty"`
	Item     string `json:"item"`
	Quantity int    `json:"quantity,omitempty"` // defaults to 1
}

type ActorFact struct {
	Actor string `json:"actor,omitempty"`
	Fact  string `json:"fact"`
}

type ActorMove struct {
	Actor    string `json:"actor"`
	Location string `json:"location"` // "@player" follows the player
}

type LocationItem struct {
	Location string `json:"location,omitempty"` // empty means the player's location
	Item     string `json:"item"`
	Quantity int    `json:"quantity,omitempty"`
}

// NarrativeBeat asks the provider for prose. Non-sentinel text is kept as
// a key event.
type NarrativeBeat struct {
	Kind    narrative.Kind `json:"kind"`
	Subject string         `json:"subject,omitempty"`
}

// When holds the conditions for a story event. All set fields must hold.
type When struct {
	Player            string        `json:"player,omitempty"`
	Location          string        `json:"location,omitempty"`
	Period            clock.Period  `json:"period,omitempty"`
	MinDay            *int          `json:"min_day,omitempty"`
	MinTick           *int          `json:"min_tick,omitempty"`
	MinNotoriety      *int          `json:"min_notoriety,omitempty"`
	MaxNotoriety      *int          `json:"max_notoriety,omitempty"`
	ActorState        *ActorState   `json:"actor_state,omitempty"`
	Stage             *StageRef     `json:"stage,omitempty"`
	ObjectiveComplete *ObjectiveRef `json:"objective_complete,omitempty"`
	HasItem           *ItemRef      `json:"has_item,omitempty"`
	OccupiedBy        string        `json:"occupied_by,omitempty"` // NPC at the player's location
	MinOccupants      *int          `json:"min_occupants,omitempty"`
}

// IsEmpty reports whether no condition is set. Empty clauses never fire.
func (w When) IsEmpty() bool {
	return w.Player == "" && w.Location == "" && w.Period == "" &&
		w.MinDay == nil && w.MinTick == nil &&
		w.MinNotoriety == nil && w.MaxNotoriety == nil &&
		w.ActorState == nil && w.Stage == nil && w.ObjectiveComplete == nil &&
		w.HasItem == nil && w.OccupiedBy == "" && w.MinOccupants == nil
}

// Then holds the effects of a story event.
type Then struct {
	Memory            *ActorFact     `json:"memory,omitempty"`
	SetState          *ActorState    `json:"set_state,omitempty"`
	AdvanceStage      *StageRef      `json:"advance_stage,omitempty"`
	CompleteObjective *ObjectiveRef  `json:"complete_objective,omitempty"`
	ActivateObjective *ObjectiveRef  `json:"activate_objective,omitempty"`
	AddItem           *ItemRef       `json:"add_item,omitempty"`
	RemoveItem        *ItemRef       `json:"remove_item,omitempty"`
	Notoriety         int            `json:"notoriety,omitempty"`
	KeyEvent          string         `json:"key_event,omitempty"`
	LocationItem      *LocationItem  `json:"location_item,omitempty"`
	MoveActor         *ActorMove     `json:"move_actor,omitempty"`
	Narrative         *NarrativeBeat `json:"narrative,omitempty"`
}

// WorldView is the read-only world state a When clause is evaluated
// against.
type WorldView interface {
	PlayerName() string
	PlayerLocation() string
	Period() clock.Period
	Day() int
	Tick() int
	Notoriety() int
	Actor(name string) (*actor.Actor, bool)
	Occupants(location string) []string
}

// Evaluate checks every condition in w. Unknown actor, objective or stage
// references are reported as errors rather than silently false.
func (w When) Evaluate(v WorldView) (bool, error) {
	if w.IsEmpty() {
		return false, nil
	}
	if w.Player != "" && v.PlayerName() != w.Player {
		return false, nil
	}
	if w.Location != "" && v.PlayerLocation() != w.Location {
		return false, nil
	}
	if w.Period != "" && v.Period() != w.Period {
		return false, nil
	}
	if w.MinDay != nil && v.Day() < *w.MinDay {
		return false, nil
	}
	if w.MinTick != nil && v.Tick() < *w.MinTick {
		return false, nil
	}
	if w.MinNotoriety != nil && v.Notoriety() < *w.MinNotoriety {
		return false, nil
	}
	if w.MaxNotoriety != nil && v.Notoriety() > *w.MaxNotoriety {
		return false, nil
	}

	if w.ActorState != nil {
		a, err := lookup(v, w.ActorState.Actor)
		if err != nil {
			return false, err
		}
		if a.State != w.ActorState.State {
			return false, nil
		}
	}
	if w.Stage != nil {
		a, err := lookup(v, w.Stage.Actor)
		if err != nil {
			return false, err
		}
		obj, ok := a.Objective(w.Stage.Objective)
		if !ok {
			return false, fmt.Errorf("%s: %w: %s", a.Name(), actor.ErrObjectiveNotFound, w.Stage.Objective)
		}
		if obj.CurrentStage != w.Stage.Stage {
			return false, nil
		}
	}
	if w.ObjectiveComplete != nil {
		a, err := lookup(v, w.ObjectiveComplete.Actor)
		if err != nil {
			return false, err
		}
		obj, ok := a.Objective(w.ObjectiveComplete.Objective)
		if !ok {
			return false, fmt.Errorf("%s: %w: %s", a.Name(), actor.ErrObjectiveNotFound, w.ObjectiveComplete.Objective)
		}
		if !obj.Completed {
			return false, nil
		}
	}
	if w.HasItem != nil {
		a, err := lookup(v, w.HasItem.Actor)
		if err != nil {
			return false, err
		}
		if a.Quantity(w.HasItem.Item) < max(w.HasItem.Quantity, 1) {
			return false, nil
		}
	}

	if w.OccupiedBy != "" || w.MinOccupants != nil {
		occupants := v.Occupants(v.PlayerLocation())
		if w.OccupiedBy != "" && !contains(occupants, w.OccupiedBy) {
			return false, nil
		}
		if w.MinOccupants != nil && len(occupants) < *w.MinOccupants {
			return false, nil
		}
	}
	return true, nil
}

func lookup(v WorldView, name string) (*actor.Actor, error) {
	if name == "" {
		name = v.PlayerName()
	}
	a, ok := v.Actor(name)
	if !ok {
		return nil, fmt.Errorf("unknown actor %q", name)
	}
	return a, nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
