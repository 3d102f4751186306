package world

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/story-sim/pkg/actor"
	"github.com/jwebster45206/story-sim/pkg/clock"
	"github.com/jwebster45206/story-sim/pkg/narrative"
	"github.com/jwebster45206/story-sim/pkg/scenario"
)

func intp(v int) *int { return &v }

func testScenario() *scenario.Scenario {
	s := &scenario.Scenario{
		Name:  "Petersburg",
		Story: "A fevered student wanders the city after a crime.",
		Characters: map[string]*actor.Template{
			"rodion": {
				Name:             "Rodion",
				Persona:          "A proud, feverish former student.",
				DefaultLocation:  "garret",
				AllowedLocations: []string{"garret", "stairwell", "haymarket", "office"},
				Playable:         true,
				Inventory:        []actor.Item{{Name: "axe", Quantity: 1}},
				Objectives: []actor.Objective{
					{
						ID:          "burden",
						Description: "Carry the weight of the crime",
						Active:      true,
						Stages: []actor.Stage{
							{ID: "denial", Description: "Deny everything", Next: map[string]string{"crack": "doubt"}},
							{ID: "doubt", Description: "Begin to doubt"},
							{ID: "confession", Description: "Confess", Ending: true},
						},
						CurrentStage: "denial",
					},
					{ID: "rent", Description: "Pay the landlady", Active: true},
				},
			},
			"sonya": {
				Name:             "Sonya",
				Persona:          "Meek and devout.",
				DefaultLocation:  "haymarket",
				AllowedLocations: []string{"haymarket", "stairwell"},
				Schedule:         map[clock.Period]string{clock.Afternoon: "stairwell"},
			},
			"marmeladov": {
				Name:             "Marmeladov",
				Persona:          "A ruined clerk, always drinking.",
				DefaultLocation:  "haymarket",
				AllowedLocations: []string{"haymarket"},
				InitialState:     actor.StateDrunk,
			},
		},
		Locations: map[string]scenario.Location{
			"garret":    {Name: "Garret", Description: "A cupboard of a room.", Exits: map[string]string{"stairwell": "A narrow door"}},
			"stairwell": {Name: "Stairwell", Exits: map[string]string{"garret": "Up", "haymarket": "Out to the street"}},
			"haymarket": {Name: "Haymarket Square", Exits: map[string]string{"stairwell": "Back"}, Items: []string{"worn coin"}},
			"office":    {Name: "Police Office"},
		},
		Items: map[string]scenario.Item{
			"axe":       {Name: "axe"},
			"worn coin": {Name: "worn coin"},
			"letter":    {Name: "Letter from Mother"},
		},
	}
	s.Normalize(nil)
	return s
}

func newTestWorld(t *testing.T, s *scenario.Scenario, opts ...Option) *World {
	t.Helper()
	opts = append([]Option{WithRand(rand.New(rand.NewPCG(1, 2)))}, opts...)
	w, err := New(s, "rodion", opts...)
	require.NoError(t, err)
	return w
}

func TestNew(t *testing.T) {
	t.Run("unknown player", func(t *testing.T) {
		_, err := New(testScenario(), "porfiry")
		assert.ErrorIs(t, err, ErrUnknownActor)
	})

	t.Run("missing starting location", func(t *testing.T) {
		s := testScenario()
		delete(s.Locations, "garret")
		_, err := New(s, "rodion")
		assert.ErrorIs(t, err, ErrUnknownLocation)
	})

	t.Run("actors at default locations", func(t *testing.T) {
		w := newTestWorld(t, testScenario())
		assert.Equal(t, "rodion", w.PlayerName())
		assert.Equal(t, "garret", w.PlayerLocation())
		assert.Equal(t, []string{"marmeladov", "sonya"}, w.Occupants("haymarket"))
		assert.Equal(t, []actor.Item{{Name: "worn coin", Quantity: 1}}, w.LocationItems("haymarket"))
		assert.Equal(t, 0, w.Tick())
		assert.Equal(t, 1, w.Day())
		assert.Equal(t, clock.Morning, w.Period())
	})

	t.Run("player by display name", func(t *testing.T) {
		w, err := New(testScenario(), "RODION")
		require.NoError(t, err)
		assert.Equal(t, "rodion", w.PlayerName())
	})

	t.Run("templates are not shared", func(t *testing.T) {
		s := testScenario()
		w := newTestWorld(t, s)
		require.NoError(t, w.GiveItem("", "letter", 1))
		assert.Len(t, s.Characters["rodion"].Inventory, 1)
	})
}

func TestMoveActor(t *testing.T) {
	tests := []struct {
		name    string
		actor   string
		dest    string
		wantErr error
		wantLoc string
	}{
		{name: "adjacent", actor: "rodion", dest: "stairwell", wantLoc: "stairwell"},
		{name: "display name", actor: "rodion", dest: "Stairwell", wantLoc: "stairwell"},
		{name: "same place", actor: "rodion", dest: "garret", wantLoc: "garret"},
		{name: "unknown", actor: "rodion", dest: "moscow", wantErr: ErrUnknownLocation, wantLoc: "garret"},
		{name: "not reachable", actor: "rodion", dest: "haymarket", wantErr: ErrNotReachable, wantLoc: "garret"},
		{name: "no exit leads there", actor: "rodion", dest: "office", wantErr: ErrNotReachable, wantLoc: "garret"},
		{name: "not allowed", actor: "marmeladov", dest: "stairwell", wantErr: actor.ErrLocationNotAllowed, wantLoc: "haymarket"},
		{name: "unknown actor", actor: "porfiry", dest: "stairwell", wantErr: ErrUnknownActor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld(t, testScenario())
			err := w.MoveActor(tt.actor, tt.dest)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			if tt.wantLoc != "" {
				a, ok := w.Actor(tt.actor)
				require.True(t, ok)
				assert.Equal(t, tt.wantLoc, a.Location)
			}
		})
	}
}

func TestAdvanceTime_Schedules(t *testing.T) {
	w := newTestWorld(t, testScenario(), WithInteraction(0, 0))

	report := w.AdvanceTime(context.Background(), 5)
	assert.False(t, report.PeriodChanged)
	assert.Empty(t, report.Moved)

	report = w.AdvanceTime(context.Background(), 1)
	assert.True(t, report.PeriodChanged)
	assert.Equal(t, 6, report.Tick)
	assert.Equal(t, clock.Afternoon, w.Period())
	assert.Equal(t, []string{"sonya"}, report.Moved)

	sonya, _ := w.Actor("sonya")
	assert.Equal(t, "stairwell", sonya.Location)
}

func TestAdvanceTime_UnitsBelowOne(t *testing.T) {
	w := newTestWorld(t, testScenario())
	w.AdvanceTime(context.Background(), 0)
	w.AdvanceTime(context.Background(), -4)
	assert.Equal(t, 2, w.Tick())
}

func TestItems(t *testing.T) {
	w := newTestWorld(t, testScenario())
	player := w.Player()

	err := w.GiveItem("", "samovar", 1)
	assert.ErrorIs(t, err, ErrUnknownItem)
	assert.Equal(t, []actor.Item{{Name: "axe", Quantity: 1}}, player.Inventory)

	require.NoError(t, w.GiveItem("rodion", "worn coin", 3))
	assert.Equal(t, 3, player.Quantity("worn coin"))
	require.NoError(t, w.TakeItem("rodion", "worn coin", 3))
	assert.False(t, player.HasItem("worn coin"))
	assert.Len(t, player.Inventory, 1, "emptied entry is removed")

	assert.ErrorIs(t, w.TakeItem("rodion", "axe", 2), actor.ErrInsufficientQuantity)
	assert.ErrorIs(t, w.GiveItem("rodion", "axe", 0), actor.ErrInvalidQuantity)

	require.NoError(t, w.GiveItem("", "Letter from Mother", 1))
	assert.True(t, player.HasItem("letter"), "items resolve by display name")
}

func TestDropAndPickUp(t *testing.T) {
	w := newTestWorld(t, testScenario())

	require.NoError(t, w.DropItem("axe", 1))
	assert.False(t, w.Player().HasItem("axe"))
	assert.Equal(t, []actor.Item{{Name: "axe", Quantity: 1}}, w.LocationItems("garret"))

	require.NoError(t, w.PickUpItem("axe", 1))
	assert.True(t, w.Player().HasItem("axe"))
	assert.Empty(t, w.LocationItems("garret"))

	assert.ErrorIs(t, w.PickUpItem("worn coin", 1), ErrNotPresent)
	assert.ErrorIs(t, w.DropItem("worn coin", 1), actor.ErrInsufficientQuantity)

	require.NoError(t, w.MovePlayer("stairwell"))
	require.NoError(t, w.MovePlayer("haymarket"))
	require.NoError(t, w.PickUpItem("worn coin", 1))
	assert.Empty(t, w.LocationItems("haymarket"))
	assert.ErrorIs(t, w.PickUpItem("worn coin", 1), ErrNotPresent)
}

func TestWorldLogs(t *testing.T) {
	w := newTestWorld(t, testScenario())

	assert.Equal(t, 0, w.AdjustNotoriety(-3))
	assert.Equal(t, 4, w.AdjustNotoriety(4))
	assert.Equal(t, MaxNotoriety, w.AdjustNotoriety(50))

	for i := 0; i < KeyEventLimit+5; i++ {
		w.AddKeyEvent(strings.Repeat("x", i+1))
	}
	events := w.KeyEvents()
	assert.Len(t, events, KeyEventLimit)
	assert.Equal(t, strings.Repeat("x", 6), events[0], "oldest evicted first")
	w.AddKeyEvent("   ")
	assert.Len(t, w.KeyEvents(), KeyEventLimit)

	assert.True(t, w.AddRumor("They say the pawnbroker hid gold."))
	assert.False(t, w.AddRumor("they say the pawnbroker hid gold."), "duplicates are ignored")
	for i := 0; i < RumorLimit+2; i++ {
		w.AddRumor(strings.Repeat("r", i+1))
	}
	assert.Len(t, w.Rumors(), RumorLimit)
}

func TestObjectives(t *testing.T) {
	w := newTestWorld(t, testScenario())

	active, err := w.ActiveObjectives("rodion")
	require.NoError(t, err)
	assert.Len(t, active, 2)

	assert.ErrorIs(t, w.AdvanceStage("rodion", "burden", "madness"), actor.ErrStageNotFound)
	assert.ErrorIs(t, w.AdvanceStage("rodion", "rent", "paid"), actor.ErrNotStaged)
	assert.ErrorIs(t, w.AdvanceStage("rodion", "escape", "x"), actor.ErrObjectiveNotFound)

	require.NoError(t, w.AdvanceStage("rodion", "burden", "confession"))
	active, _ = w.ActiveObjectives("rodion")
	completed, _ := w.CompletedObjectives("rodion")
	require.Len(t, active, 1)
	assert.Equal(t, "rent", active[0].ID)
	require.Len(t, completed, 1)
	assert.Equal(t, "burden", completed[0].ID)

	require.NoError(t, w.CompleteObjective("rodion", "rent"))
	require.NoError(t, w.CompleteObjective("rodion", "rent"), "completing twice is harmless")
	require.NoError(t, w.ActivateObjective("rodion", "rent"), "activating a completed objective is a no-op")
	completed, _ = w.CompletedObjectives("rodion")
	assert.Len(t, completed, 2)
	active, _ = w.ActiveObjectives("rodion")
	assert.Empty(t, active)
	rodion, _ := w.Actor("rodion")
	rent, _ := rodion.Objective("rent")
	assert.False(t, rent.Active)
	assert.ErrorIs(t, w.ActivateObjective("sonya", "faith"), actor.ErrObjectiveNotFound)

	_, err = w.ActiveObjectives("porfiry")
	assert.ErrorIs(t, err, ErrUnknownActor)
}

func TestDescribe(t *testing.T) {
	w := newTestWorld(t, testScenario())
	require.NoError(t, w.MovePlayer("stairwell"))
	require.NoError(t, w.MovePlayer("haymarket"))

	desc := w.Describe()
	assert.Contains(t, desc, "Haymarket Square (Day 1, morning)")
	assert.Contains(t, desc, "Here: Marmeladov, Sonya")
	assert.Contains(t, desc, "You see: worn coin")
	assert.Contains(t, desc, "- Stairwell: Back")
}

func TestWorldView(t *testing.T) {
	var _ scenario.WorldView = (*World)(nil)

	w := newTestWorld(t, testScenario())
	ok, err := scenario.When{OccupiedBy: "sonya"}.Evaluate(w)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, w.MovePlayer("stairwell"))
	require.NoError(t, w.MovePlayer("haymarket"))
	ok, err = scenario.When{OccupiedBy: "sonya", MinOccupants: intp(2)}.Evaluate(w)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = scenario.When{ActorState: &scenario.ActorState{Actor: "porfiry", State: actor.StateCalm}}.Evaluate(w)
	assert.Error(t, err)
}

func TestStatic_UnscriptedKindIsSentinel(t *testing.T) {
	w := newTestWorld(t, testScenario(), WithProvider(&narrative.Static{}))
	assert.True(t, narrative.IsSentinel(w.Atmosphere(context.Background())))
}
