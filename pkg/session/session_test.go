package session

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/story-sim/pkg/actor"
	"github.com/jwebster45206/story-sim/pkg/narrative"
	"github.com/jwebster45206/story-sim/pkg/scenario"
	"github.com/jwebster45206/story-sim/pkg/world"
)

// memStore keeps saves as JSON so loads never share state with the world.
type memStore struct {
	slots map[string][]byte
}

func newMemStore() *memStore { return &memStore{slots: make(map[string][]byte)} }

func (m *memStore) Save(_ context.Context, slot string, s *world.SaveState) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.slots[slot] = data
	return nil
}

func (m *memStore) Load(_ context.Context, slot string) (*world.SaveState, error) {
	data, ok := m.slots[slot]
	if !ok {
		return nil, nil
	}
	var s world.SaveState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func testScenario() *scenario.Scenario {
	s := &scenario.Scenario{
		Name:  "Petersburg",
		Story: "A fevered student wanders the city.",
		Characters: map[string]*actor.Template{
			"rodion": {
				Name:             "Rodion",
				Persona:          "A proud former student.",
				DefaultLocation:  "garret",
				AllowedLocations: []string{"garret", "stairwell", "haymarket"},
				Playable:         true,
				Inventory:        []actor.Item{{Name: "axe", Quantity: 1}},
				Objectives: []actor.Objective{
					{ID: "rent", Description: "Pay the landlady", Active: true},
				},
			},
			"sonya": {
				Name:             "Sonya",
				Persona:          "Meek and devout.",
				DefaultLocation:  "haymarket",
				AllowedLocations: []string{"haymarket"},
			},
		},
		Locations: map[string]scenario.Location{
			"garret":    {Name: "Garret", Exits: map[string]string{"stairwell": "A narrow door"}},
			"stairwell": {Name: "Stairwell", Exits: map[string]string{"garret": "Up", "haymarket": "Out"}},
			"haymarket": {Name: "Haymarket Square", Exits: map[string]string{"stairwell": "Back"}, Items: []string{"worn coin"}},
		},
		Items: map[string]scenario.Item{
			"axe":       {Name: "axe"},
			"worn coin": {Name: "worn coin"},
		},
	}
	s.Normalize(nil)
	return s
}

func newTestSession(t *testing.T, p narrative.Provider) (*Session, *memStore) {
	t.Helper()
	store := newMemStore()
	if p == nil {
		p = narrative.Unavailable{}
	}
	s, err := New(testScenario(), "rodion", store, nil,
		world.WithProvider(p), world.WithInteraction(0, 0))
	require.NoError(t, err)
	return s, store
}

func run(t *testing.T, s *Session, input string) Result {
	t.Helper()
	res, err := s.Handle(context.Background(), input)
	require.NoError(t, err)
	return res
}

func texts(res Result) []string {
	out := make([]string, len(res.Lines))
	for i, l := range res.Lines {
		out[i] = l.Text
	}
	return out
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input   string
		wantCmd CommandType
		wantArg string
	}{
		{"look", CmdLook, ""},
		{"  L  ", CmdLook, ""},
		{"go Haymarket Square", CmdGo, "Haymarket Square"},
		{"talk sonya: Good evening.", CmdTalk, "sonya: Good evening."},
		{"wait 3", CmdWait, "3"},
		{"i", CmdInventory, ""},
		{"Q", CmdQuit, ""},
		{"dance wildly", CmdNone, ""},
		{"", CmdNone, ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cmd, arg := parseCommand(tt.input)
			assert.Equal(t, tt.wantCmd, cmd)
			assert.Equal(t, tt.wantArg, arg)
		})
	}
}

func TestNew_Fatal(t *testing.T) {
	_, err := New(testScenario(), "", nil, nil)
	assert.ErrorIs(t, err, ErrFatal)

	_, err = New(testScenario(), "svidrigailov", nil, nil)
	assert.ErrorIs(t, err, ErrFatal)
	assert.ErrorIs(t, err, world.ErrUnknownActor)
}

func TestHandle_UnknownCommand(t *testing.T) {
	s, _ := newTestSession(t, nil)
	res := run(t, s, "dance wildly")
	require.Len(t, res.Lines, 1)
	assert.Equal(t, Line{Kind: LineMuted, Text: msgNothingHappens}, res.Lines[0])
	assert.Equal(t, 0, s.World.Tick())
}

func TestHandle_Look(t *testing.T) {
	s, _ := newTestSession(t, nil)
	res := run(t, s, "look")
	require.Len(t, res.Lines, 1)
	assert.Contains(t, res.Lines[0].Text, "Garret")
	assert.Equal(t, 0, s.World.Tick(), "looking is free")
}

func TestHandle_Go(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLoc  string
		wantTick int
		wantText string
	}{
		{name: "adjacent", input: "go stairwell", wantLoc: "stairwell", wantTick: 1, wantText: "Stairwell"},
		{name: "by display name", input: "go to the Stairwell", wantLoc: "stairwell", wantTick: 1, wantText: "Stairwell"},
		{name: "not adjacent", input: "go haymarket", wantLoc: "garret", wantText: msgCantGo},
		{name: "unknown", input: "go moscow", wantLoc: "garret", wantText: msgNoSuchPlace},
		{name: "no argument", input: "go", wantLoc: "garret", wantText: "Go where?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestSession(t, nil)
			res := run(t, s, tt.input)
			require.NotEmpty(t, res.Lines)
			assert.Contains(t, res.Lines[0].Text, tt.wantText)
			assert.Equal(t, tt.wantLoc, s.World.PlayerLocation())
			assert.Equal(t, tt.wantTick, s.World.Tick())
		})
	}
}

func TestHandle_Talk(t *testing.T) {
	s, _ := newTestSession(t, narrative.NewStatic("Sonya: You look pale."))
	run(t, s, "go stairwell")
	run(t, s, "go haymarket")

	res := run(t, s, "talk sonya: Good evening.")
	require.GreaterOrEqual(t, len(res.Lines), 2)
	assert.Equal(t, Line{Kind: LineSpeech, Speaker: "Rodion", Text: "Good evening."}, res.Lines[0])
	assert.Equal(t, Line{Kind: LineSpeech, Speaker: "Sonya", Text: "You look pale."}, res.Lines[1])
	assert.Equal(t, 3, s.World.Tick())

	sonya, _ := s.World.Actor("sonya")
	assert.Len(t, sonya.History("rodion"), 2)
}

func TestHandle_TalkRejected(t *testing.T) {
	s, _ := newTestSession(t, narrative.NewStatic("Yes?"))

	res := run(t, s, "talk sonya: Hello.")
	assert.Equal(t, []string{msgNotHere}, texts(res))

	res = run(t, s, "talk nobody: Hello.")
	assert.Equal(t, []string{msgNotHere}, texts(res))

	res = run(t, s, "talk sonya")
	assert.Equal(t, LineMuted, res.Lines[0].Kind)
	assert.Equal(t, 0, s.World.Tick())
}

func TestHandle_TalkSentinel(t *testing.T) {
	s, _ := newTestSession(t, nil)
	run(t, s, "go stairwell")
	run(t, s, "go haymarket")

	res := run(t, s, "talk to sonya Good evening.")
	require.GreaterOrEqual(t, len(res.Lines), 2)
	assert.Equal(t, LineMuted, res.Lines[1].Kind)
	assert.True(t, narrative.IsSentinel(res.Lines[1].Text))
}

func TestHandle_Wait(t *testing.T) {
	s, _ := newTestSession(t, nil)
	run(t, s, "wait 3")
	assert.Equal(t, 3, s.World.Tick())

	run(t, s, "wait")
	assert.Equal(t, 4, s.World.Tick())

	res := run(t, s, "wait forever")
	assert.Equal(t, []string{"Wait how long?"}, texts(res))
	assert.Equal(t, 4, s.World.Tick())
}

func TestHandle_Items(t *testing.T) {
	s, _ := newTestSession(t, nil)

	res := run(t, s, "inventory")
	assert.Contains(t, res.Lines[0].Text, "axe")

	run(t, s, "drop axe")
	res = run(t, s, "i")
	assert.Equal(t, []string{"Your pockets are empty."}, texts(res))
	assert.Len(t, s.World.LocationItems("garret"), 1)

	res = run(t, s, "take worn coin")
	assert.Equal(t, []string{"You don't see that here."}, texts(res))

	run(t, s, "take axe")
	assert.True(t, s.World.Player().HasItem("axe"))
}

func TestHandle_Objectives(t *testing.T) {
	s, _ := newTestSession(t, nil)
	res := run(t, s, "objectives")
	assert.Equal(t, []string{"- Pay the landlady"}, texts(res))
}

func TestHandle_SaveLoad(t *testing.T) {
	s, store := newTestSession(t, nil)
	run(t, s, "go stairwell")

	res := run(t, s, "save")
	assert.Equal(t, []string{"Saved to autosave."}, texts(res))
	require.Contains(t, store.slots, DefaultSlot)

	run(t, s, "go garret")
	assert.Equal(t, "garret", s.World.PlayerLocation())

	run(t, s, "load")
	assert.Equal(t, "stairwell", s.World.PlayerLocation())
	assert.Equal(t, 1, s.World.Tick())

	res = run(t, s, "load elsewhere")
	assert.Equal(t, []string{"Nothing is saved in elsewhere."}, texts(res))
}

func TestHandle_NoStore(t *testing.T) {
	s, err := New(testScenario(), "rodion", nil, nil)
	require.NoError(t, err)
	res := run(t, s, "save")
	assert.Equal(t, []string{msgNoStore}, texts(res))
}

func TestHandle_Quit(t *testing.T) {
	s, _ := newTestSession(t, nil)
	res := run(t, s, "quit")
	assert.True(t, res.Quit)
}

func TestHandle_FatalLocation(t *testing.T) {
	s, _ := newTestSession(t, nil)
	delete(s.scen.Locations, "garret")
	_, err := s.Handle(context.Background(), "look")
	assert.ErrorIs(t, err, ErrFatal)
}

func TestResume(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	s, err := Resume(ctx, testScenario(), store, DefaultSlot, nil)
	require.NoError(t, err)
	assert.Nil(t, s, "an empty slot is not an error")

	first, _ := newTestSession(t, nil)
	first.Store = store
	run(t, first, "wait 2")
	run(t, first, "save")

	s, err = Resume(ctx, testScenario(), store, DefaultSlot, nil)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, first.World.SessionID(), s.World.SessionID())
	assert.Equal(t, 2, s.World.Tick())
}

func TestGreeting(t *testing.T) {
	s, _ := newTestSession(t, nil)
	res := s.Greeting()
	require.Len(t, res.Lines, 4)
	assert.Equal(t, "Petersburg", res.Lines[0].Text)
}
