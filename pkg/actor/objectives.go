package actor

import "fmt"

// Objective returns the actor's objective with the given id.
func (a *Actor) Objective(id string) (*Objective, bool) {
	for i := range a.Objectives {
		if a.Objectives[i].ID == id {
			return &a.Objectives[i], true
		}
	}
	return nil, false
}

// CurrentStage returns the stage named by the objective's current_stage_id.
// It reports false for unstaged objectives and dangling references.
func (a *Actor) CurrentStage(objectiveID string) (*Stage, bool) {
	obj, ok := a.Objective(objectiveID)
	if !ok || obj.CurrentStage == "" {
		return nil, false
	}
	return obj.Stage(obj.CurrentStage)
}

// AdvanceStage moves an objective to nextStageID. Any stage belonging to the
// objective is a legal target; next_stages adjacency is not enforced, so
// story events can jump an arc ahead. Reaching an ending stage completes the
// objective. Returns false, with no mutation, when the objective or stage is
// unknown or the objective is unstaged.
func (a *Actor) AdvanceStage(objectiveID, nextStageID string) bool {
	obj, ok := a.Objective(objectiveID)
	if !ok || !obj.IsStaged() {
		return false
	}
	target, ok := obj.Stage(nextStageID)
	if !ok {
		return false
	}

	for i := range obj.Stages {
		obj.Stages[i].Current = false
	}
	target.Current = true
	obj.CurrentStage = target.ID
	a.Remember(fmt.Sprintf("%s: %s", obj.Description, target.Description))

	if target.Ending {
		a.CompleteObjective(objectiveID, true)
	}
	return true
}

// CompleteObjective marks an objective completed and inactive. viaStage
// selects the quieter memory phrasing used when an ending stage already
// narrated the change. Returns false if the objective is unknown or was
// already completed.
func (a *Actor) CompleteObjective(objectiveID string, viaStage bool) bool {
	obj, ok := a.Objective(objectiveID)
	if !ok || obj.Completed {
		return false
	}
	obj.Completed = true
	obj.Active = false
	if viaStage {
		a.Remember(fmt.Sprintf("That road has ended: %s.", obj.Description))
	} else {
		a.Remember(fmt.Sprintf("Completed: %s.", obj.Description))
	}
	return true
}

// ActivateObjective sets an objective active, seeding the first stage as
// current when a staged objective has not started yet. A completed
// objective stays inactive and false is returned.
func (a *Actor) ActivateObjective(objectiveID string) bool {
	obj, ok := a.Objective(objectiveID)
	if !ok || obj.Completed {
		return false
	}
	obj.Active = true
	if obj.IsStaged() && obj.CurrentStage == "" {
		for i := range obj.Stages {
			obj.Stages[i].Current = false
		}
		obj.Stages[0].Current = true
		obj.CurrentStage = obj.Stages[0].ID
	}
	return true
}

// ActiveObjectives returns active, uncompleted objectives in order.
func (a *Actor) ActiveObjectives() []Objective {
	var out []Objective
	for _, o := range a.Objectives {
		if o.Active && !o.Completed {
			out = append(out, o.clone())
		}
	}
	return out
}

// CompletedObjectives returns completed objectives in order.
func (a *Actor) CompletedObjectives() []Objective {
	var out []Objective
	for _, o := range a.Objectives {
		if o.Completed {
			out = append(out, o.clone())
		}
	}
	return out
}
