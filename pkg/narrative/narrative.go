// Package narrative defines the boundary to whatever turns structured
// world context into prose.
package narrative

import (
	"context"
	"strings"
)

// Kind selects the sort of text being requested.
type Kind string

const (
	KindDialogue    Kind = "dialogue"    // an NPC answering the player
	KindReflection  Kind = "reflection"  // the player's inner voice
	KindAtmosphere  Kind = "atmosphere"  // ambient scene text
	KindInteraction Kind = "interaction" // two NPCs talking to each other
	KindRumor       Kind = "rumor"
	KindDocument    Kind = "document" // a letter, notice or article
	KindDream       Kind = "dream"
)

// Kinds lists every request kind.
var Kinds = []Kind{
	KindDialogue, KindReflection, KindAtmosphere, KindInteraction,
	KindRumor, KindDocument, KindDream,
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Request is the structured context handed to a Provider. Fields that do
// not apply to a kind are left empty.
type Request struct {
	Kind          Kind
	Story         string // scenario premise
	Voice         string // narrator style guide
	Rating        string
	Speaker       string
	Listener      string
	Participants  []string // for interactions
	Persona       string
	Location      string
	Scene         string // location description for the current period
	TimeOfDay     string
	ApparentState string
	Relationship  int
	Memory        []string
	History       []string // "speaker: text" lines
	Utterance     string   // what the player just said
	KeyEvents     []string
	Subject       string // document or dream topic
}

// Provider produces prose for a Request. It always returns a string; a
// failed call returns a Sentinel which callers must check with IsSentinel
// before treating the text as part of the fiction.
type Provider interface {
	Generate(ctx context.Context, req Request) string
}

// SentinelPrefix marks placeholder text produced on provider failure.
const SentinelPrefix = "[narrative unavailable]"

// Sentinel returns placeholder text carrying reason.
func Sentinel(reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return SentinelPrefix
	}
	return SentinelPrefix + " " + reason
}

// IsSentinel reports whether text is provider failure placeholder.
func IsSentinel(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), SentinelPrefix)
}

// Unavailable is the provider used when nothing is configured.
type Unavailable struct {
	Reason string
}

func (u Unavailable) Generate(_ context.Context, _ Request) string {
	if u.Reason == "" {
		return Sentinel("no narrative provider configured")
	}
	return Sentinel(u.Reason)
}

// Func adapts a plain function to Provider.
type Func func(ctx context.Context, req Request) string

func (f Func) Generate(ctx context.Context, req Request) string {
	return f(ctx, req)
}
