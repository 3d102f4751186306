package prompts

import (
	"fmt"

	"github.com/jwebster45206/story-sim/pkg/narrative"
	"github.com/jwebster45206/story-sim/pkg/scenario"
)

// BaseSystemPrompt is shared by every request kind. The verbs are the
// story premise, the narrator voice guide and the kind instructions.
const BaseSystemPrompt = `You write prose for a literary text simulation set in a fixed fictional world. You never discuss things outside of the fiction and you never speak for the player.

### Story
%s

### Voice
%s
### Task
%s

### Writing rules:
- Never mention that you are an AI or a computer program.
- Do not invent locations, items or characters beyond those given in the context.
- Keep to the speaker's persona and present state of mind.
- Never begin the response with "[".
`

// Task instructions per request kind.
var kindInstructions = map[narrative.Kind]string{
	narrative.KindDialogue:    `Reply as %s speaking to %s. Write only %s's spoken words and at most one short gesture. One to three sentences.`,
	narrative.KindReflection:  `Write %s's inner thoughts in the second person, present tense. One short paragraph.`,
	narrative.KindAtmosphere:  `Describe the surroundings of %s as they are right now. Sound, light and smell. Two or three sentences.`,
	narrative.KindInteraction: `Write a short exchange between %s. Put each line on its own row in the form Name: words. Four lines at most. Characters may pass on gossip they have heard.`,
	narrative.KindRumor:       `Write one line of street gossip overheard near %s. Start it with "They say".`,
	narrative.KindDocument:    `Write the full text of a short in-world document: %s. No more than eight lines.`,
	narrative.KindDream:       `Write a fevered dream of %s in the second person. One paragraph, vivid and strange.`,
}

const DefaultVoice = "- Close third person, restrained and psychological.\n"

// Content rating prompts.
const ContentRatingPG13 = `Write content appropriate for teenagers. Violence may be referred to but never dwelt on; no profanity or explicit content. `
const ContentRatingMature = `Write with full freedom for adult audiences. All content should serve the story. `

// UserPostPrompt ends every message list.
const UserPostPrompt = "Stay inside the fiction. Respond with the requested text only."

// GetContentRatingPrompt returns the rating instructions for rating.
func GetContentRatingPrompt(rating string) string {
	switch rating {
	case scenario.RatingMature:
		return ContentRatingMature
	default:
		return ContentRatingPG13
	}
}

// Instructions returns the task text for req.
func Instructions(req narrative.Request) (string, error) {
	tmpl, ok := kindInstructions[req.Kind]
	if !ok {
		return "", fmt.Errorf("unknown request kind %q", req.Kind)
	}
	switch req.Kind {
	case narrative.KindDialogue:
		return fmt.Sprintf(tmpl, req.Speaker, req.Listener, req.Speaker), nil
	case narrative.KindReflection, narrative.KindDream:
		return fmt.Sprintf(tmpl, req.Speaker), nil
	case narrative.KindAtmosphere, narrative.KindRumor:
		return fmt.Sprintf(tmpl, req.Location), nil
	case narrative.KindInteraction:
		return fmt.Sprintf(tmpl, joinNames(req.Participants)), nil
	default:
		subject := req.Subject
		if subject == "" {
			subject = "a note found on the floor"
		}
		return fmt.Sprintf(tmpl, subject), nil
	}
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return "two passers-by"
	case 1:
		return names[0] + " and a stranger"
	}
	out := names[0]
	for i := 1; i < len(names)-1; i++ {
		out += ", " + names[i]
	}
	return out + " and " + names[len(names)-1]
}
