package actor

// MergeObjectives reconciles a template's objectives with saved ones.
//
// Precedence:
//   - Saved order is kept. A saved objective the template also defines takes
//     its text and stage structure from the template and its progress
//     (completed, active, current stage) from the save.
//   - A saved objective whose current stage no longer exists in the template,
//     or that the template does not define at all, is kept verbatim.
//   - Template objectives missing from the save are appended fresh, in
//     template order, with their authored active flag.
func MergeObjectives(template, saved []Objective) []Objective {
	byID := make(map[string]Objective, len(template))
	for _, o := range template {
		byID[o.ID] = o
	}

	merged := make([]Objective, 0, len(saved)+len(template))
	seen := make(map[string]bool, len(saved))
	for _, s := range saved {
		seen[s.ID] = true
		t, known := byID[s.ID]
		if !known {
			merged = append(merged, s.clone())
			continue
		}
		o, ok := overlayProgress(t, s)
		if !ok {
			merged = append(merged, s.clone())
			continue
		}
		merged = append(merged, o)
	}

	for _, t := range template {
		if !seen[t.ID] {
			merged = append(merged, t.clone())
		}
	}
	return merged
}

// overlayProgress applies saved progress to a copy of the template
// objective. It fails when the saved current stage is absent from the
// template's stages.
func overlayProgress(t, s Objective) (Objective, bool) {
	o := t.clone()
	o.Completed = s.Completed
	o.Active = s.Active
	o.CurrentStage = s.CurrentStage
	if o.Completed {
		o.Active = false
	}
	for i := range o.Stages {
		o.Stages[i].Current = false
	}
	if o.CurrentStage == "" {
		return o, true
	}
	stage, ok := o.Stage(o.CurrentStage)
	if !ok {
		return Objective{}, false
	}
	stage.Current = true
	return o, true
}
