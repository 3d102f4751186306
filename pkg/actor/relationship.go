package actor

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Keyword lists used to score the player's words toward an NPC.
var (
	PositiveKeywords = []string{
		"thank", "thanks", "thank you", "friend", "help", "sorry", "forgive",
		"please", "kind", "brother", "sister", "trust", "pray", "god bless",
	}
	NegativeKeywords = []string{
		"fool", "idiot", "hate", "liar", "shut up", "leave me", "damn you",
		"kill", "louse", "scoundrel", "get out", "stupid",
	}
)

// MaxUtteranceDelta caps how far one utterance moves the relationship.
const MaxUtteranceDelta = 2

// ScoreUtterance scores text against the keyword lists. Each keyword counts
// once and a keyword inside a longer matched phrase ("thank" in "thank
// you") does not count; the total is clamped to ±MaxUtteranceDelta.
func ScoreUtterance(text string) int {
	normalized := " " + normalizeWords(text) + " "
	score := countMatches(normalized, PositiveKeywords) - countMatches(normalized, NegativeKeywords)
	return clamp(score, -MaxUtteranceDelta, MaxUtteranceDelta)
}

// countMatches counts keywords found as whole words in normalized, skipping
// those covered by a longer matched keyword.
func countMatches(normalized string, keywords []string) int {
	var matched []string
	for _, kw := range keywords {
		if kw = normalizeWords(kw); kw != "" && strings.Contains(normalized, " "+kw+" ") {
			matched = append(matched, kw)
		}
	}
	n := 0
	for _, kw := range matched {
		covered := false
		for _, other := range matched {
			if other != kw && strings.Contains(" "+other+" ", " "+kw+" ") {
				covered = true
				break
			}
		}
		if !covered {
			n++
		}
	}
	return n
}

// ContainsKeyword reports whether any keyword appears as whole words in text.
func ContainsKeyword(text string, keywords []string) bool {
	normalized := " " + normalizeWords(text) + " "
	for _, kw := range keywords {
		if kw = normalizeWords(kw); kw != "" && strings.Contains(normalized, " "+kw+" ") {
			return true
		}
	}
	return false
}

// normalizeWords case-folds text and collapses it to space-separated words.
func normalizeWords(text string) string {
	words := strings.FieldsFunc(cases.Fold().String(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	for i, w := range words {
		words[i] = strings.Trim(w, "'")
	}
	return strings.Join(words, " ")
}
