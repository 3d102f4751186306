package prompts

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/story-sim/pkg/narrative"
)

// ContextString renders the world context of req for the model. Empty
// sections are left out.
//
// Example output:
// CURRENT LOCATION:
// Haymarket Square (evening): Drunkards and hawkers.
//
// SPEAKER: Sonya (state: calm, feeling toward the player: 3)
// Persona: A meek girl who reads the Gospel.
func ContextString(req narrative.Request) string {
	var sb strings.Builder

	if req.Location != "" {
		sb.WriteString("CURRENT LOCATION:\n")
		sb.WriteString(req.Location)
		if req.TimeOfDay != "" {
			fmt.Fprintf(&sb, " (%s)", req.TimeOfDay)
		}
		if req.Scene != "" {
			sb.WriteString(": " + req.Scene)
		}
		sb.WriteString("\n\n")
	}

	if req.Speaker != "" {
		fmt.Fprintf(&sb, "SPEAKER: %s", req.Speaker)
		var details []string
		if req.ApparentState != "" {
			details = append(details, "state: "+req.ApparentState)
		}
		if req.Kind == narrative.KindDialogue {
			details = append(details, fmt.Sprintf("feeling toward %s: %d", listenerOr(req), req.Relationship))
		}
		if len(details) > 0 {
			sb.WriteString(" (" + strings.Join(details, ", ") + ")")
		}
		sb.WriteString("\n")
		if req.Persona != "" {
			sb.WriteString("Persona: " + req.Persona + "\n")
		}
		sb.WriteString("\n")
	}

	writeList(&sb, "PRESENT", req.Participants)
	writeList(&sb, "REMEMBERS", req.Memory)
	writeList(&sb, "RECENT EVENTS", req.KeyEvents)
	return strings.TrimRight(sb.String(), "\n")
}

func listenerOr(req narrative.Request) string {
	if req.Listener == "" {
		return "the player"
	}
	return req.Listener
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(title + ":\n")
	for _, item := range items {
		sb.WriteString("- " + item + "\n")
	}
	sb.WriteString("\n")
}
