package world

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/story-sim/pkg/actor"
	"github.com/jwebster45206/story-sim/pkg/narrative"
	"github.com/jwebster45206/story-sim/pkg/scenario"
)

// playedWorld returns a world with progress in every saved field.
func playedWorld(t *testing.T) *World {
	t.Helper()
	s := testScenario()
	s.StoryEvents = []scenario.StoryEvent{
		{ID: "doubt", When: scenario.When{MinTick: intp(1)}, Then: scenario.Then{
			AdvanceStage: &scenario.StageRef{Objective: "burden", Stage: "doubt"},
			KeyEvent:     "The fever breaks.",
		}},
		{ID: "bells", Repeatable: true, When: scenario.When{MinTick: intp(2)}, Then: scenario.Then{Notoriety: 2}},
	}
	w := newTestWorld(t, s,
		WithProvider(narrative.NewStatic("Sonya: God will give you life again.")),
		WithInteraction(0, 0))

	ctx := context.Background()
	w.AdvanceTime(ctx, 1)
	require.NoError(t, w.MovePlayer("stairwell"))
	require.NoError(t, w.MovePlayer("haymarket"))
	w.AdvanceTime(ctx, 1)
	_, err := w.StartDialogueTurn(ctx, "sonya", "Please help me, Sonya.")
	require.NoError(t, err)
	require.NoError(t, w.PickUpItem("worn coin", 1))
	require.NoError(t, w.DropItem("axe", 1))
	w.AddRumor("They say the painter confessed.")
	require.NoError(t, w.Player().AddItem("letter", 2))
	return w
}

func TestSaveRestore_RoundTrip(t *testing.T) {
	w := playedWorld(t)
	saved := w.Save()

	assert.Equal(t, SaveVersion, saved.Version)
	assert.Equal(t, w.SessionID(), saved.SessionID)
	assert.Equal(t, "rodion", saved.Player)
	assert.Equal(t, 2, saved.Tick)
	assert.Equal(t, 2, saved.Notoriety)
	assert.Equal(t, []string{"bells_recent", "doubt"}, saved.Triggered)

	data, err := json.Marshal(saved)
	require.NoError(t, err)
	var decoded SaveState
	require.NoError(t, json.Unmarshal(data, &decoded))

	restored, err := Restore(testScenarioWithEvents(w), &decoded)
	require.NoError(t, err)

	again := restored.Save()
	saved.SavedAt, again.SavedAt = time.Time{}, time.Time{}
	assert.Equal(t, saved, again)

	for key, a := range w.actors {
		assert.Equal(t, a.Snapshot(), restored.actors[key].Snapshot(), key)
	}
	assert.Equal(t, w.Clock(), restored.Clock())
}

// testScenarioWithEvents rebuilds the content a world was started from.
func testScenarioWithEvents(w *World) *scenario.Scenario {
	s := testScenario()
	s.StoryEvents = w.scen.StoryEvents
	return s
}

func TestRestore_EventMarkersSurvive(t *testing.T) {
	w := playedWorld(t)
	restored, err := Restore(testScenarioWithEvents(w), w.Save(), WithInteraction(0, 0))
	require.NoError(t, err)

	ctx := context.Background()
	for tick := 3; tick < 15; tick++ {
		assert.Empty(t, restored.AdvanceTime(ctx, 1).Fired, "tick %d", tick)
	}
	assert.Equal(t, "bells", restored.AdvanceTime(ctx, 1).Fired)
}

func TestRestore_ContentChanged(t *testing.T) {
	w := playedWorld(t)
	saved := w.Save()
	saved.Actors["raskolnikov_double"] = actor.Snapshot{Location: "garret"}

	s := testScenario()
	s.Characters["rodion"].Objectives = append(s.Characters["rodion"].Objectives,
		actor.Objective{ID: "mother", Description: "Answer mother's letter", Active: true})
	s.Characters["rodion"].Persona = "Rewritten persona."
	s.Characters["sonya"].AllowedLocations = []string{"stairwell"}
	s.Characters["sonya"].DefaultLocation = "stairwell"
	s.Characters["porfiry"] = &actor.Template{
		Name: "Porfiry", DefaultLocation: "office", AllowedLocations: []string{"office"},
	}

	restored, err := Restore(s, saved)
	require.NoError(t, err)

	_, ok := restored.Actor("raskolnikov_double")
	assert.False(t, ok, "characters gone from the scenario are dropped")

	porfiry, ok := restored.Actor("porfiry")
	require.True(t, ok, "new characters start fresh")
	assert.Equal(t, "office", porfiry.Location)

	player := restored.Player()
	assert.Equal(t, "Rewritten persona.", player.Template.Persona)
	ids := make([]string, 0, len(player.Objectives))
	for _, o := range player.Objectives {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []string{"burden", "rent", "mother"}, ids)
	stage, ok := player.CurrentStage("burden")
	require.True(t, ok)
	assert.Equal(t, "doubt", stage.ID)

	sonya, _ := restored.Actor("sonya")
	assert.Equal(t, "stairwell", sonya.Location, "disallowed saved location falls back to default")
	assert.Len(t, sonya.History("rodion"), 2)
}

func TestRestore_Errors(t *testing.T) {
	w := playedWorld(t)

	_, err := Restore(testScenario(), nil)
	assert.Error(t, err)

	future := w.Save()
	future.Version = SaveVersion + 1
	_, err = Restore(testScenario(), future)
	assert.ErrorIs(t, err, ErrSaveVersion)

	unknown := w.Save()
	unknown.Player = "svidrigailov"
	_, err = Restore(testScenario(), unknown)
	assert.ErrorIs(t, err, ErrUnknownActor)

	s := testScenario()
	s.Characters["rodion"].AllowedLocations = append(s.Characters["rodion"].AllowedLocations, "island")
	lost := w.Save()
	snap := lost.Actors["rodion"]
	snap.Location = "island"
	lost.Actors["rodion"] = snap
	_, err = Restore(s, lost)
	assert.ErrorIs(t, err, ErrUnknownLocation)
}
