package actor

import (
	"slices"

	"github.com/jwebster45206/story-sim/pkg/clock"
)

// Template is the static definition of a character, loaded once from the
// scenario. Actors are built from templates and never share their data.
type Template struct {
	Name             string                  `json:"name"`
	Persona          string                  `json:"persona"`
	Greeting         string                  `json:"greeting,omitempty"`
	DefaultLocation  string                  `json:"default_location"`
	AllowedLocations []string                `json:"allowed_locations"`
	Schedule         map[clock.Period]string `json:"schedule,omitempty"` // period → location
	Objectives       []Objective             `json:"objectives,omitempty"`
	Inventory        []Item                  `json:"inventory,omitempty"`
	InitialState     ApparentState           `json:"apparent_state,omitempty"`
	Playable         bool                    `json:"playable,omitempty"`
}

// Allows reports whether loc is in the template's allowed set.
func (t *Template) Allows(loc string) bool {
	return slices.Contains(t.AllowedLocations, loc)
}

// ScheduledLocation returns where the character should be during p.
func (t *Template) ScheduledLocation(p clock.Period) (string, bool) {
	loc, ok := t.Schedule[p]
	return loc, ok && loc != ""
}

// RepairDefaultLocation adds the default location to the allowed set when
// the author forgot it. It reports whether a repair was made.
func (t *Template) RepairDefaultLocation() bool {
	if t.DefaultLocation == "" || t.Allows(t.DefaultLocation) {
		return false
	}
	t.AllowedLocations = append(t.AllowedLocations, t.DefaultLocation)
	return true
}
