package prompts

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/story-sim/pkg/chat"
	"github.com/jwebster45206/story-sim/pkg/narrative"
)

// Builder constructs chat messages for LLM interaction using a fluent interface.
type Builder struct {
	req          *narrative.Request
	historyLimit int
	messages     []chat.ChatMessage
}

// New creates a new prompt builder with default settings.
func New() *Builder {
	return &Builder{
		historyLimit: 10,
		messages:     make([]chat.ChatMessage, 0),
	}
}

// WithRequest sets the narrative request to render.
func (b *Builder) WithRequest(req narrative.Request) *Builder {
	b.req = &req
	return b
}

// WithHistoryLimit sets the conversation window size.
func (b *Builder) WithHistoryLimit(limit int) *Builder {
	b.historyLimit = limit
	return b
}

// Build constructs and returns the final message array for LLM consumption.
func (b *Builder) Build() ([]chat.ChatMessage, error) {
	if b.req == nil {
		return nil, fmt.Errorf("request is required")
	}

	b.messages = make([]chat.ChatMessage, 0)

	// 1. System prompt
	if err := b.addSystemPrompt(); err != nil {
		return nil, fmt.Errorf("error building system prompt: %w", err)
	}

	// 2. World context
	b.addContext()

	// 3. Windowed conversation history
	b.addHistory()

	// 4. The player's line or the task cue
	b.addUserMessage()

	// 5. Final reminder
	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: UserPostPrompt,
	})

	return b.messages, nil
}

func (b *Builder) addSystemPrompt() error {
	task, err := Instructions(*b.req)
	if err != nil {
		return err
	}
	voice := b.req.Voice
	if voice == "" {
		voice = DefaultVoice
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(BaseSystemPrompt, b.req.Story, voice, task))
	sb.WriteString("\nContent Rating: " + GetContentRatingPrompt(b.req.Rating))

	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: sb.String(),
	})
	return nil
}

func (b *Builder) addContext() {
	ctx := ContextString(*b.req)
	if ctx == "" {
		return
	}
	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: ctx,
	})
}

// addHistory turns "speaker: text" lines into chat turns. The speaker's
// own lines are assistant turns.
func (b *Builder) addHistory() {
	history := b.req.History
	if b.historyLimit > 0 && len(history) > b.historyLimit {
		history = history[len(history)-b.historyLimit:]
	}
	for _, line := range history {
		role := chat.ChatRoleUser
		if speaker, _, ok := chat.SplitSpeaker(line); ok && speaker == b.req.Speaker {
			role = chat.ChatRoleAgent
		}
		b.messages = append(b.messages, chat.ChatMessage{Role: role, Content: line})
	}
}

func (b *Builder) addUserMessage() {
	if b.req.Kind == narrative.KindDialogue && b.req.Utterance != "" {
		b.messages = append(b.messages, chat.ChatMessage{
			Role:    chat.ChatRoleUser,
			Content: chat.FormatWithSpeaker(b.req.Utterance, listenerOr(*b.req)),
		})
		return
	}
	b.messages = append(b.messages, chat.ChatMessage{
		Role:    chat.ChatRoleUser,
		Content: "Write the " + string(b.req.Kind) + " now.",
	})
}

// BuildMessages is a convenience function for the common case.
func BuildMessages(req narrative.Request, historyLimit int) ([]chat.ChatMessage, error) {
	return New().
		WithRequest(req).
		WithHistoryLimit(historyLimit).
		Build()
}
