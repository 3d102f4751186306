package scenario

import (
	"maps"
	"slices"
	"strings"

	"github.com/jwebster45206/story-sim/pkg/clock"
)

// Location is a place in the world. Exits map a reachable location key to
// the text describing the way there.
type Location struct {
	Name               string                  `json:"name"`
	Description        string                  `json:"description,omitempty"`
	Exits              map[string]string       `json:"exits,omitempty"`
	Items              []string                `json:"items,omitempty"`               // static items always found here
	PeriodDescriptions map[clock.Period]string `json:"period_descriptions,omitempty"` // appended to Description
}

// Describe returns the description with the suffix for period, if any.
func (l *Location) Describe(p clock.Period) string {
	desc := strings.TrimSpace(l.Description)
	if suffix := strings.TrimSpace(l.PeriodDescriptions[p]); suffix != "" {
		if desc == "" {
			return suffix
		}
		return desc + " " + suffix
	}
	return desc
}

// ExitKeys returns the reachable location keys in sorted order.
func (l *Location) ExitKeys() []string {
	return slices.Sorted(maps.Keys(l.Exits))
}

// LeadsTo reports whether an exit from l reaches key.
func (l *Location) LeadsTo(key string) bool {
	_, ok := l.Exits[key]
	return ok
}
