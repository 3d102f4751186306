package actor

// Snapshot is the persisted form of an actor's dynamic state. Static
// template fields are not saved; they always come from the current
// template on restore.
type Snapshot struct {
	Location      string              `json:"location"`
	Relationship  int                 `json:"relationship_with_player"`
	Memory        []string            `json:"memory_log"`
	Conversations map[string][]string `json:"conversation_histories"`
	Inventory     []Item              `json:"inventory"`
	State         ApparentState       `json:"apparent_state"`
	Objectives    []Objective         `json:"objectives"`
}

// Snapshot captures the actor's dynamic fields.
func (a *Actor) Snapshot() Snapshot {
	convs := make(map[string][]string, len(a.Conversations))
	for k, v := range a.Conversations {
		convs[k] = append([]string{}, v...)
	}
	return Snapshot{
		Location:      a.Location,
		Relationship:  a.Relationship,
		Memory:        append([]string{}, a.Memory...),
		Conversations: convs,
		Inventory:     append([]Item{}, a.Inventory...),
		State:         a.State,
		Objectives:    cloneObjectives(a.Objectives),
	}
}

// Restore rebuilds an actor from its current template and a saved snapshot.
// Objectives are reconciled with MergeObjectives. The second return value is
// false when the saved location had to be replaced by the template default.
func Restore(t *Template, s Snapshot) (*Actor, bool) {
	a := New(t)
	locationKept := true
	if s.Location != "" && t.Allows(s.Location) {
		a.Location = s.Location
	} else if s.Location != "" {
		locationKept = false
	}
	a.Relationship = clamp(s.Relationship, MinRelationship, MaxRelationship)

	a.Memory = append([]string{}, s.Memory...)
	if over := len(a.Memory) - MemoryLimit; over > 0 {
		a.Memory = a.Memory[over:]
	}

	a.Conversations = make(map[string][]string, len(s.Conversations))
	for partner, lines := range s.Conversations {
		lines = append([]string{}, lines...)
		if over := len(lines) - ConversationLimit; over > 0 {
			lines = lines[over:]
		}
		a.Conversations[partner] = lines
	}

	a.Inventory = normalizeInventory(s.Inventory)
	if s.State != "" {
		a.State = s.State
	}
	a.Objectives = MergeObjectives(t.Objectives, s.Objectives)
	return a, locationKept
}
