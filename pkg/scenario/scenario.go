package scenario

import (
	"maps"
	"slices"
	"strings"

	"github.com/jwebster45206/story-sim/pkg/actor"
)

// Item is catalog data for something that can be held or found.
type Item struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// DefaultRumorKeywords mark a line of NPC talk as gossip worth keeping.
var DefaultRumorKeywords = []string{
	"heard", "rumor", "rumour", "they say", "people say", "gossip", "whisper", "word is",
}

// Scenario is the read-only content for one world: the entity store
// (characters), the location store, the item catalog and scripted beats.
type Scenario struct {
	Name          string                     `json:"name"`
	Story         string                     `json:"story"`
	Narrator      *Narrator                  `json:"narrator,omitempty"`
	NarratorID    string                     `json:"narrator_id,omitempty"` // shared narrator file, used when Narrator is unset
	Characters    map[string]*actor.Template `json:"characters"`
	Locations     map[string]Location        `json:"locations"`
	Items         map[string]Item            `json:"items,omitempty"`
	StoryEvents   []StoryEvent               `json:"story_events,omitempty"` // list order is priority
	RumorKeywords []string                   `json:"rumor_keywords,omitempty"`
}

// Character returns the template for name. Lookup is by key first, then
// by case-insensitive display name.
func (s *Scenario) Character(name string) (*actor.Template, bool) {
	if t, ok := s.Characters[name]; ok {
		return t, true
	}
	for _, key := range slices.Sorted(maps.Keys(s.Characters)) {
		if strings.EqualFold(s.Characters[key].Name, name) || strings.EqualFold(key, name) {
			return s.Characters[key], true
		}
	}
	return nil, false
}

// CharacterKeys returns every character key, sorted.
func (s *Scenario) CharacterKeys() []string {
	return slices.Sorted(maps.Keys(s.Characters))
}

// PlayableCharacters returns the keys of characters a player may choose.
func (s *Scenario) PlayableCharacters() []string {
	var out []string
	for _, key := range s.CharacterKeys() {
		if s.Characters[key].Playable {
			out = append(out, key)
		}
	}
	return out
}

// Location returns the location stored under key.
func (s *Scenario) Location(key string) (*Location, bool) {
	loc, ok := s.Locations[key]
	if !ok {
		return nil, false
	}
	return &loc, true
}

// ResolveLocation maps a key or display name to a location key.
func (s *Scenario) ResolveLocation(keyOrName string) (string, bool) {
	keyOrName = strings.TrimSpace(keyOrName)
	if _, ok := s.Locations[keyOrName]; ok {
		return keyOrName, true
	}
	for _, key := range slices.Sorted(maps.Keys(s.Locations)) {
		if strings.EqualFold(key, keyOrName) || strings.EqualFold(s.Locations[key].Name, keyOrName) {
			return key, true
		}
	}
	return "", false
}

// Reachable reports whether an exit from one location leads to the other.
func (s *Scenario) Reachable(from, to string) bool {
	loc, ok := s.Locations[from]
	if !ok {
		return false
	}
	if _, ok := s.Locations[to]; !ok {
		return false
	}
	return loc.LeadsTo(to)
}

// HasItem reports whether name is in the item catalog.
func (s *Scenario) HasItem(name string) bool {
	_, ok := s.Items[name]
	return ok
}

// Rumors returns the scenario's rumor keywords or the defaults.
func (s *Scenario) Rumors() []string {
	if len(s.RumorKeywords) > 0 {
		return s.RumorKeywords
	}
	return DefaultRumorKeywords
}
