package actor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonUnmarshal(data string, v any) error {
	return json.Unmarshal([]byte(data), v)
}

func TestSnapshot_RoundTrip(t *testing.T) {
	tmpl := confessionTemplate()
	tmpl.Objectives[0].NormalizeStages()
	a := New(tmpl)

	require.NoError(t, a.MoveTo("haymarket"))
	a.AdjustRelationship(-3)
	a.Remember("The old woman's door was unlocked.")
	a.RecordLine("Razumikhin", "Razumikhin", "You look like death, Rodya.")
	require.NoError(t, a.AddItem("worn coin", 3))
	a.SetState(StateFeverish)
	a.AdvanceStage("burden", "doubt")
	a.ActivateObjective("sonya")
	a.CompleteObjective("rent", false)

	data, err := json.Marshal(a.Snapshot())
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))

	restored, kept := Restore(tmpl, snap)
	require.True(t, kept)

	assert.Equal(t, a.Location, restored.Location)
	assert.Equal(t, a.Relationship, restored.Relationship)
	assert.Equal(t, a.Memory, restored.Memory)
	assert.Equal(t, a.Conversations, restored.Conversations)
	assert.Equal(t, a.Inventory, restored.Inventory)
	assert.Equal(t, a.State, restored.State)
	assert.Equal(t, a.Objectives, restored.Objectives)
	assert.Same(t, tmpl, restored.Template, "static fields come from the template")
}

func TestRestore_LocationFallback(t *testing.T) {
	tmpl := confessionTemplate()
	restored, kept := Restore(tmpl, Snapshot{Location: "siberia"})
	assert.False(t, kept)
	assert.Equal(t, "garret", restored.Location)
}

func TestRestore_RejectsUnknownState(t *testing.T) {
	var snap Snapshot
	err := jsonUnmarshal(`{"apparent_state":"ecstatic"}`, &snap)
	assert.Error(t, err)
}

func TestMergeObjectives(t *testing.T) {
	template := []Objective{
		{ID: "burden", Description: "Carry the burden (revised text)", Active: true, Stages: []Stage{
			{ID: "denial", Description: "Deny"},
			{ID: "doubt", Description: "Doubt"},
		}, CurrentStage: "denial"},
		{ID: "rent", Description: "Pay the landlady", Active: true},
		{ID: "new_arc", Description: "Added in a content update", Active: true},
	}
	saved := []Objective{
		{ID: "rent", Description: "Pay the landlady", Completed: true},
		{ID: "burden", Description: "Carry the burden", Active: true, Stages: []Stage{
			{ID: "denial", Description: "Deny"},
			{ID: "doubt", Description: "Doubt", Current: true},
		}, CurrentStage: "doubt"},
		{ID: "retired", Description: "Removed from content", Active: true},
	}

	merged := MergeObjectives(template, saved)
	require.Len(t, merged, 4)

	assert.Equal(t, "rent", merged[0].ID, "saved order is kept")
	assert.True(t, merged[0].Completed)
	assert.False(t, merged[0].Active)

	burden := merged[1]
	assert.Equal(t, "Carry the burden (revised text)", burden.Description, "text comes from the template")
	assert.Equal(t, "doubt", burden.CurrentStage, "progress comes from the save")
	assert.True(t, burden.StagesConsistent())

	assert.Equal(t, saved[2], merged[2], "unknown saved objective preserved verbatim")

	assert.Equal(t, "new_arc", merged[3].ID, "template-only objective added fresh")
	assert.True(t, merged[3].Active)
}

func TestMergeObjectives_DanglingStageKeepsSaved(t *testing.T) {
	template := []Objective{{ID: "burden", Stages: []Stage{{ID: "denial"}}}}
	saved := []Objective{{ID: "burden", Stages: []Stage{{ID: "lost", Current: true}}, CurrentStage: "lost", Active: true}}

	merged := MergeObjectives(template, saved)
	require.Len(t, merged, 1)
	assert.Equal(t, saved[0], merged[0])
}
