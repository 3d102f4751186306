// Package textfilter softens provider prose for the pg13 content rating.
package textfilter

import (
	"regexp"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/story-sim/pkg/scenario"
)

// Rule replaces one word or phrase, matched on word boundaries without
// regard to case.
type Rule struct {
	Match       string
	Replacement string
}

// DefaultRules keep replacements in the register of a nineteenth century
// novel rather than a modern bleep.
var DefaultRules = []Rule{
	{"motherfucker", "scoundrel"},
	{"goddamn", "accursed"},
	{"bullshit", "humbug"},
	{"asshole", "wretch"},
	{"fucking", "cursed"},
	{"fuck", "curse it"},
	{"shit", "filth"},
	{"damn", "confound"},
	{"hell", "perdition"},
	{"bastard", "scoundrel"},
	{"bitch", "shrew"},
	{"whore", "fallen woman"},
	{"slut", "fallen woman"},
	{"prick", "wretch"},
	{"crap", "rubbish"},
	{"entrails", "wounds"},
	{"gore", "blood"},
}

type compiledRule struct {
	re          *regexp.Regexp
	replacement string
}

// Filter applies an ordered rule set.
type Filter struct {
	rules []compiledRule
}

// New compiles rules, longest match first so phrases win over the words
// inside them. With no rules DefaultRules are used.
func New(rules ...Rule) *Filter {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	sorted := slices.Clone(rules)
	slices.SortStableFunc(sorted, func(a, b Rule) int {
		return len(b.Match) - len(a.Match)
	})

	f := &Filter{rules: make([]compiledRule, 0, len(sorted))}
	for _, r := range sorted {
		if strings.TrimSpace(r.Match) == "" {
			continue
		}
		f.rules = append(f.rules, compiledRule{
			re:          regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(r.Match) + `\b`),
			replacement: r.Replacement,
		})
	}
	return f
}

// ForRating returns the filter for a content rating, or nil when prose
// passes through untouched.
func ForRating(rating string) *Filter {
	if !ShouldFilter(rating) {
		return nil
	}
	return New()
}

// ShouldFilter reports whether rating calls for filtering.
func ShouldFilter(rating string) bool {
	r := strings.ToLower(strings.TrimSpace(rating))
	return r == scenario.RatingPG13 || r == "pg-13" || r == "pg" || r == "g"
}

// Apply returns text with every rule applied. A nil Filter returns text
// unchanged.
func (f *Filter) Apply(text string) string {
	if f == nil {
		return text
	}
	for _, r := range f.rules {
		text = r.re.ReplaceAllStringFunc(text, func(match string) string {
			return matchCase(match, r.replacement)
		})
	}
	return text
}

// Matches reports whether any rule matches text.
func (f *Filter) Matches(text string) bool {
	if f == nil {
		return false
	}
	for _, r := range f.rules {
		if r.re.MatchString(text) {
			return true
		}
	}
	return false
}

// matchCase gives replacement the capitalisation pattern of original.
func matchCase(original, replacement string) string {
	switch {
	case original == "":
		return replacement
	case strings.ToUpper(original) == original:
		return strings.ToUpper(replacement)
	case strings.ToLower(original) == original:
		return strings.ToLower(replacement)
	}

	runes := []rune(original)
	if unicode.IsUpper(runes[0]) && strings.ToLower(string(runes[1:])) == string(runes[1:]) {
		// only the first word is capitalised in sentence position
		first, rest, _ := strings.Cut(replacement, " ")
		out := cases.Title(language.English).String(first)
		if rest != "" {
			out += " " + rest
		}
		return out
	}
	return replacement
}
