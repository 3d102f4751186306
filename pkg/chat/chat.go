package chat

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	ChatRoleUser   = "user"      // player
	ChatRoleAgent  = "assistant" // NPC or narrator
	ChatRoleSystem = "system"
)

// MaxMessageLength caps what a player may say in one turn.
const MaxMessageLength = 2000

// maxSpeakerLength bounds what is treated as a speaker prefix.
const maxSpeakerLength = 50

// ChatMessage is a single message sent to an LLM backend. The shape
// matches the Ollama and OpenAI chat APIs.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// ValidateUtterance checks a player's line before it reaches the world.
func ValidateUtterance(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("message cannot be empty")
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return fmt.Errorf("message exceeds maximum length of %d characters", MaxMessageLength)
	}
	return nil
}

// SplitSpeaker splits a "Speaker: text" line. ok is false when the line
// has no plausible speaker prefix.
func SplitSpeaker(line string) (speaker, text string, ok bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 || idx > maxSpeakerLength {
		return "", line, false
	}
	speaker = strings.TrimSpace(line[:idx])
	if speaker == "" || strings.ContainsAny(speaker, ".!?\"") {
		return "", line, false
	}
	return speaker, strings.TrimSpace(line[idx+1:]), true
}

// FormatWithSpeaker prefixes message with speaker unless it already
// carries a speaker prefix.
func FormatWithSpeaker(message, speaker string) string {
	if _, _, ok := SplitSpeaker(message); ok {
		return message
	}
	return speaker + ": " + message
}
