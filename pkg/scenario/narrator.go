package scenario

import "strings"

// Content ratings. RatingPG13 turns on the provider text filter.
const (
	RatingPG13   = "pg13"
	RatingMature = "mature"
)

// Narrator is the voice used when asking the provider for prose.
type Narrator struct {
	Name   string   `json:"name"`
	Voice  []string `json:"voice,omitempty"` // style instructions, one per line
	Rating string   `json:"rating,omitempty"`
}

// VoiceGuide renders the voice instructions as a bulleted list.
func (n *Narrator) VoiceGuide() string {
	if n == nil || len(n.Voice) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, line := range n.Voice {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sb.WriteString("- ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}
