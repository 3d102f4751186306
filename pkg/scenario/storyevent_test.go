package scenario

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/story-sim/pkg/actor"
	"github.com/jwebster45206/story-sim/pkg/clock"
)

type fakeView struct {
	player    string
	location  string
	clock     *clock.Clock
	notoriety int
	actors    map[string]*actor.Actor
	occupants map[string][]string
}

func (f *fakeView) PlayerName() string     { return f.player }
func (f *fakeView) PlayerLocation() string { return f.location }
func (f *fakeView) Period() clock.Period   { return f.clock.Period() }
func (f *fakeView) Day() int               { return f.clock.Day() }
func (f *fakeView) Tick() int              { return f.clock.Tick }
func (f *fakeView) Notoriety() int         { return f.notoriety }
func (f *fakeView) Occupants(loc string) []string {
	return f.occupants[loc]
}
func (f *fakeView) Actor(name string) (*actor.Actor, bool) {
	a, ok := f.actors[name]
	return a, ok
}

func newFakeView() *fakeView {
	s := testScenario()
	s.Normalize(nil)
	return &fakeView{
		player:   "rodion",
		location: "garret",
		clock:    clock.New(0),
		actors: map[string]*actor.Actor{
			"rodion": actor.New(s.Characters["rodion"]),
			"sonya":  actor.New(s.Characters["sonya"]),
		},
		occupants: map[string][]string{
			"haymarket": {"sonya"},
		},
	}
}

func intPtr(i int) *int { return &i }

func TestWhen_Evaluate(t *testing.T) {
	tests := []struct {
		name     string
		when     When
		setup    func(v *fakeView)
		expected bool
	}{
		{name: "empty never fires", when: When{}, expected: false},
		{name: "location match", when: When{Location: "garret"}, expected: true},
		{name: "location mismatch", when: When{Location: "haymarket"}, expected: false},
		{name: "player mismatch", when: When{Player: "sonya"}, expected: false},
		{
			name:     "period",
			when:     When{Period: clock.Evening},
			setup:    func(v *fakeView) { v.clock = clock.New(2 * clock.TicksPerPeriod) },
			expected: true,
		},
		{name: "min day not reached", when: When{MinDay: intPtr(2)}, expected: false},
		{
			name:     "min tick reached",
			when:     When{MinTick: intPtr(3)},
			setup:    func(v *fakeView) { v.clock = clock.New(3) },
			expected: true,
		},
		{
			name:     "notoriety window",
			when:     When{MinNotoriety: intPtr(2), MaxNotoriety: intPtr(5)},
			setup:    func(v *fakeView) { v.notoriety = 4 },
			expected: true,
		},
		{
			name:     "notoriety above max",
			when:     When{MaxNotoriety: intPtr(5)},
			setup:    func(v *fakeView) { v.notoriety = 6 },
			expected: false,
		},
		{
			name:     "player state defaults to player",
			when:     When{ActorState: &ActorState{State: actor.StateFeverish}},
			setup:    func(v *fakeView) { v.actors["rodion"].SetState(actor.StateFeverish) },
			expected: true,
		},
		{name: "current stage", when: When{Stage: &StageRef{Objective: "burden", Stage: "denial"}}, expected: true},
		{name: "other stage", when: When{Stage: &StageRef{Objective: "burden", Stage: "doubt"}}, expected: false},
		{
			name: "objective complete",
			when: When{ObjectiveComplete: &ObjectiveRef{Actor: "rodion", Objective: "burden"}},
			setup: func(v *fakeView) {
				v.actors["rodion"].AdvanceStage("burden", "confession")
			},
			expected: true,
		},
		{name: "has item", when: When{HasItem: &ItemRef{Item: "axe"}}, expected: true},
		{name: "has too few", when: When{HasItem: &ItemRef{Item: "axe", Quantity: 2}}, expected: false},
		{
			name:     "occupied by",
			when:     When{OccupiedBy: "sonya"},
			setup:    func(v *fakeView) { v.location = "haymarket" },
			expected: true,
		},
		{name: "not occupied", when: When{OccupiedBy: "sonya"}, expected: false},
		{
			name:     "min occupants",
			when:     When{Location: "haymarket", MinOccupants: intPtr(2)},
			setup:    func(v *fakeView) { v.location = "haymarket" },
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newFakeView()
			if tt.setup != nil {
				tt.setup(v)
			}
			got, err := tt.when.Evaluate(v)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestWhen_EvaluateErrors(t *testing.T) {
	v := newFakeView()

	_, err := When{ActorState: &ActorState{Actor: "alyona", State: actor.StateCalm}}.Evaluate(v)
	assert.ErrorContains(t, err, `unknown actor "alyona"`)

	_, err = When{Stage: &StageRef{Objective: "escape", Stage: "x"}}.Evaluate(v)
	assert.ErrorIs(t, err, actor.ErrObjectiveNotFound)
}

func TestStoryEvent_DecodeJSON(t *testing.T) {
	raw := `{
		"id": "porfiry_visit",
		"repeatable": true,
		"when": {"location": "garret", "period": "night", "min_notoriety": 3},
		"then": {
			"memory": {"fact": "Porfiry's knock at midnight."},
			"set_state": {"state": "paranoid"},
			"notoriety": 1,
			"narrative": {"kind": "atmosphere"}
		}
	}`
	var ev StoryEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &ev))

	assert.True(t, ev.Repeatable)
	assert.Equal(t, clock.Night, ev.When.Period)
	require.NotNil(t, ev.When.MinNotoriety)
	assert.Equal(t, 3, *ev.When.MinNotoriety)
	require.NotNil(t, ev.Then.SetState)
	assert.Equal(t, actor.StateParanoid, ev.Then.SetState.State)
	assert.Equal(t, "", ev.Then.SetState.Actor)
	assert.EqualValues(t, "atmosphere", ev.Then.Narrative.Kind)

	var bad StoryEvent
	assert.Error(t, json.Unmarshal([]byte(`{"id":"x","then":{"set_state":{"state":"ecstatic"}}}`), &bad))
}
