package actor

import (
	"encoding/json"
	"maps"
)

// Stage represents one step of a staged Objective.
type Stage struct {
	ID          string            `json:"stage_id"`
	Description string            `json:"description"`
	Current     bool              `json:"is_current_stage,omitempty"`
	Ending      bool              `json:"is_ending_stage,omitempty"`
	Next        map[string]string `json:"next_stages,omitempty"` // branch label → stage_id; authoring hint only
}

// Objective is a narrative goal on an actor, optionally split into stages.
type Objective struct {
	ID           string  `json:"id"`
	Description  string  `json:"description"`
	Completed    bool    `json:"completed"`
	Active       bool    `json:"active"`
	Stages       []Stage `json:"stages,omitempty"`
	CurrentStage string  `json:"current_stage_id,omitempty"`
}

// UnmarshalJSON defaults Active to true when the field is omitted, so
// authored objectives start active unless they say otherwise.
func (o *Objective) UnmarshalJSON(data []byte) error {
	type Alias Objective
	aux := &struct {
		Active *bool `json:"active"`
		*Alias
	}{Alias: (*Alias)(o)}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	o.Active = aux.Active == nil || *aux.Active
	return nil
}

// IsStaged reports whether the objective has a stage structure.
func (o *Objective) IsStaged() bool {
	return len(o.Stages) > 0
}

// Stage returns the stage with the given id.
func (o *Objective) Stage(id string) (*Stage, bool) {
	for i := range o.Stages {
		if o.Stages[i].ID == id {
			return &o.Stages[i], true
		}
	}
	return nil, false
}

// StagesConsistent checks that at most one stage is flagged current and
// that the flag agrees with CurrentStage.
func (o *Objective) StagesConsistent() bool {
	flagged := ""
	count := 0
	for _, s := range o.Stages {
		if s.Current {
			flagged = s.ID
			count++
		}
	}
	if count > 1 {
		return false
	}
	if o.CurrentStage == "" {
		return count == 0
	}
	if _, ok := o.Stage(o.CurrentStage); !ok {
		return false
	}
	return flagged == o.CurrentStage
}

// clone returns a deep copy.
func (o Objective) clone() Objective {
	c := o
	if o.Stages != nil {
		c.Stages = make([]Stage, len(o.Stages))
		for i, s := range o.Stages {
			c.Stages[i] = s
			if s.Next != nil {
				c.Stages[i].Next = maps.Clone(s.Next)
			}
		}
	}
	return c
}

func cloneObjectives(in []Objective) []Objective {
	out := make([]Objective, 0, len(in))
	for _, o := range in {
		out = append(out, o.clone())
	}
	return out
}

// NormalizeStages reconciles authored stage flags with CurrentStage. An
// explicit current_stage_id wins; otherwise the first flagged stage is
// adopted. A dangling current_stage_id is cleared.
func (o *Objective) NormalizeStages() {
	if o.CurrentStage != "" {
		if _, ok := o.Stage(o.CurrentStage); !ok {
			o.CurrentStage = ""
		}
	}
	if o.CurrentStage == "" {
		for _, s := range o.Stages {
			if s.Current {
				o.CurrentStage = s.ID
				break
			}
		}
	}
	for i := range o.Stages {
		o.Stages[i].Current = o.Stages[i].ID == o.CurrentStage && o.CurrentStage != ""
	}
	if o.Completed {
		o.Active = false
	}
}
