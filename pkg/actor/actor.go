package actor

import (
	"fmt"
	"strings"
)

const (
	// MemoryLimit bounds an actor's memory log.
	MemoryLimit = 15
	// ConversationLimit bounds each per-partner conversation history.
	ConversationLimit = 10

	MinRelationship = -10
	MaxRelationship = 10
)

// Actor is the runtime state of one character. Static fields are read
// through Template; everything else is per-session progress.
type Actor struct {
	Template *Template

	Location      string
	Relationship  int                 // with the player, in [MinRelationship, MaxRelationship]
	Memory        []string            // oldest first
	Conversations map[string][]string // partner → "speaker: text" lines, oldest first
	Inventory     []Item
	State         ApparentState
	Objectives    []Objective
}

// New instantiates an actor from its template. All mutable data is copied.
func New(t *Template) *Actor {
	state := t.InitialState
	if state == "" {
		state = StateNormal
	}
	return &Actor{
		Template:      t,
		Location:      t.DefaultLocation,
		Memory:        make([]string, 0),
		Conversations: make(map[string][]string),
		Inventory:     normalizeInventory(t.Inventory),
		State:         state,
		Objectives:    cloneObjectives(t.Objectives),
	}
}

// Name is the display name from the template.
func (a *Actor) Name() string {
	return a.Template.Name
}

// Remember appends a fact to the memory log, evicting the oldest entries
// beyond MemoryLimit.
func (a *Actor) Remember(fact string) {
	fact = strings.TrimSpace(fact)
	if fact == "" {
		return
	}
	a.Memory = appendBounded(a.Memory, fact, MemoryLimit)
}

// RecordLine appends "speaker: text" to the history kept with partner.
func (a *Actor) RecordLine(partner, speaker, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if a.Conversations == nil {
		a.Conversations = make(map[string][]string)
	}
	line := fmt.Sprintf("%s: %s", speaker, text)
	a.Conversations[partner] = appendBounded(a.Conversations[partner], line, ConversationLimit)
}

// History returns a copy of the conversation lines kept with partner.
func (a *Actor) History(partner string) []string {
	return append([]string(nil), a.Conversations[partner]...)
}

// AdjustRelationship shifts the relationship score, clamped to range.
func (a *Actor) AdjustRelationship(delta int) int {
	a.Relationship = clamp(a.Relationship+delta, MinRelationship, MaxRelationship)
	return a.Relationship
}

// CanVisit reports whether loc is in the actor's allowed set.
func (a *Actor) CanVisit(loc string) bool {
	return a.Template.Allows(loc)
}

// MoveTo sets the actor's location if it is allowed. Reachability is the
// world's concern.
func (a *Actor) MoveTo(loc string) error {
	if !a.CanVisit(loc) {
		return fmt.Errorf("%s cannot go to %q: %w", a.Name(), loc, ErrLocationNotAllowed)
	}
	a.Location = loc
	return nil
}

// SetState changes the apparent state.
func (a *Actor) SetState(s ApparentState) {
	a.State = s
}

func appendBounded(log []string, entry string, limit int) []string {
	log = append(log, entry)
	if over := len(log) - limit; over > 0 {
		log = append(log[:0:0], log[over:]...)
	}
	return log
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
