package world

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/story-sim/pkg/actor"
	"github.com/jwebster45206/story-sim/pkg/narrative"
)

func atHaymarket(t *testing.T, opts ...Option) *World {
	t.Helper()
	w := newTestWorld(t, testScenario(), opts...)
	require.NoError(t, w.MovePlayer("stairwell"))
	require.NoError(t, w.MovePlayer("haymarket"))
	return w
}

func TestStartDialogueTurn(t *testing.T) {
	p := &narrative.Static{Responses: map[narrative.Kind][]string{
		narrative.KindDialogue: {"Sonya: You look pale, Rodion Romanovich."},
	}}
	w := atHaymarket(t, WithProvider(p))

	reply, err := w.StartDialogueTurn(context.Background(), "sonya", "Thank you, friend.")
	require.NoError(t, err)
	assert.Equal(t, "You look pale, Rodion Romanovich.", reply)

	sonya, _ := w.Actor("sonya")
	assert.Equal(t, 2, sonya.Relationship)
	assert.Equal(t, []string{
		"Rodion: Thank you, friend.",
		"Sonya: You look pale, Rodion Romanovich.",
	}, sonya.History("rodion"))
	assert.Equal(t, sonya.History("rodion"), w.Player().History("sonya"))

	reqs := p.Requests()
	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, narrative.KindDialogue, req.Kind)
	assert.Equal(t, "Sonya", req.Speaker)
	assert.Equal(t, "Rodion", req.Listener)
	assert.Equal(t, "Meek and devout.", req.Persona)
	assert.Equal(t, "Haymarket Square", req.Location)
	assert.Equal(t, "Thank you, friend.", req.Utterance)
	assert.Equal(t, 2, req.Relationship, "the reply sees the updated score")
	assert.Empty(t, req.History)
}

func TestStartDialogueTurn_ProviderFailure(t *testing.T) {
	w := atHaymarket(t)

	reply, err := w.StartDialogueTurn(context.Background(), "Sonya", "You fool, get out.")
	require.NoError(t, err)
	assert.True(t, narrative.IsSentinel(reply))

	sonya, _ := w.Actor("sonya")
	assert.Equal(t, -2, sonya.Relationship, "scoring does not depend on the provider")
	assert.Empty(t, sonya.History("rodion"))
	assert.Empty(t, w.Player().History("sonya"))
}

func TestStartDialogueTurn_RelationshipBounded(t *testing.T) {
	w := atHaymarket(t, WithProvider(narrative.NewStatic("She nods.")))
	for i := 0; i < 20; i++ {
		_, err := w.StartDialogueTurn(context.Background(), "sonya", "Please forgive me, sister, thank you.")
		require.NoError(t, err)
	}
	sonya, _ := w.Actor("sonya")
	assert.Equal(t, actor.MaxRelationship, sonya.Relationship)
	assert.Len(t, sonya.History("rodion"), actor.ConversationLimit)
}

func TestStartDialogueTurn_Rejected(t *testing.T) {
	tests := []struct {
		name      string
		npc       string
		utterance string
		wantErr   error
	}{
		{name: "not here", npc: "sonya", utterance: "Hello.", wantErr: ErrNotPresent},
		{name: "unknown", npc: "porfiry", utterance: "Hello.", wantErr: ErrUnknownActor},
		{name: "self", npc: "rodion", utterance: "Hello.", wantErr: ErrUnknownActor},
		{name: "empty", npc: "sonya", utterance: "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld(t, testScenario(), WithProvider(narrative.NewStatic("Yes?")))
			_, err := w.StartDialogueTurn(context.Background(), tt.npc, tt.utterance)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestReflectAndDream(t *testing.T) {
	p := &narrative.Static{Responses: map[narrative.Kind][]string{
		narrative.KindReflection: {"Am I a trembling creature? Or have I the right?"},
		narrative.KindDream:      {"The old woman laughs. She will not die."},
	}}
	w := newTestWorld(t, testScenario(), WithProvider(p))

	text := w.Reflect(context.Background())
	assert.Equal(t, "Am I a trembling creature? Or have I the right?", text)
	w.Dream(context.Background())
	assert.Equal(t, []string{
		"Thought: Am I a trembling creature?",
		"Dreamt: The old woman laughs.",
	}, w.Player().Memory)

	reqs := p.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "Rodion", reqs[0].Speaker)
	assert.Equal(t, "A proud, feverish former student.", reqs[0].Persona)
}

func TestReflect_SentinelNotRemembered(t *testing.T) {
	w := newTestWorld(t, testScenario())
	assert.True(t, narrative.IsSentinel(w.Reflect(context.Background())))
	assert.True(t, narrative.IsSentinel(w.Dream(context.Background())))
	assert.Empty(t, w.Player().Memory)
}

func TestDocument(t *testing.T) {
	w := newTestWorld(t, testScenario(), WithProvider(narrative.NewStatic("My dear Rodya, ...")))
	assert.Equal(t, "My dear Rodya, ...", w.Document(context.Background(), "a letter from mother"))
	assert.Equal(t, []string{"Rodion read a letter from mother."}, w.KeyEvents())
}

func TestAtmosphere(t *testing.T) {
	p := narrative.NewStatic("The heat is unbearable.")
	w := atHaymarket(t, WithProvider(p))
	assert.Equal(t, "The heat is unbearable.", w.Atmosphere(context.Background()))
	reqs := p.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, []string{"Marmeladov", "Sonya"}, reqs[0].Participants)
	assert.Empty(t, w.KeyEvents())
}

func TestOverhear(t *testing.T) {
	t.Run("nobody here", func(t *testing.T) {
		w := newTestWorld(t, testScenario())
		_, err := w.Overhear(context.Background())
		assert.ErrorIs(t, err, ErrNotPresent)
	})

	t.Run("rumor recorded", func(t *testing.T) {
		w := atHaymarket(t, WithProvider(narrative.NewStatic("Marmeladov: They say the student has fever.")))
		text, err := w.Overhear(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Marmeladov: They say the student has fever.", text)
		assert.Equal(t, []string{"They say the student has fever."}, w.Rumors())
	})

	t.Run("plain gossip recorded", func(t *testing.T) {
		w := atHaymarket(t, WithProvider(narrative.NewStatic("The landlady wants her rent. She is furious.")))
		_, err := w.Overhear(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"The landlady wants her rent."}, w.Rumors())
	})
}
