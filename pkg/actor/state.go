package actor

import (
	"fmt"
	"strings"
)

// ApparentState is how a character outwardly appears to others.
type ApparentState string

const (
	StateNormal     ApparentState = "normal"
	StateAgitated   ApparentState = "agitated"
	StateFeverish   ApparentState = "feverish"
	StateParanoid   ApparentState = "paranoid"
	StateExhausted  ApparentState = "exhausted"
	StateRemorseful ApparentState = "remorseful"
	StateDrunk      ApparentState = "drunk"
	StateCalm       ApparentState = "calm"
)

var apparentStates = []ApparentState{
	StateNormal, StateAgitated, StateFeverish, StateParanoid,
	StateExhausted, StateRemorseful, StateDrunk, StateCalm,
}

// ParseApparentState validates s against the known states. The empty string
// maps to StateNormal.
func ParseApparentState(s string) (ApparentState, error) {
	st := ApparentState(strings.ToLower(strings.TrimSpace(s)))
	if st == "" {
		return StateNormal, nil
	}
	for _, known := range apparentStates {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown apparent state: %q", s)
}

// UnmarshalText rejects states outside the enumeration.
func (s *ApparentState) UnmarshalText(text []byte) error {
	parsed, err := ParseApparentState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s ApparentState) MarshalText() ([]byte, error) {
	return []byte(s), nil
}
