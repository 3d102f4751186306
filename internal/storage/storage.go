// Package storage loads content files and persists save states.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jwebster45206/story-sim/pkg/world"
)

// SaveStore persists save states by slot name.
type SaveStore interface {
	// Save overwrites the slot.
	Save(ctx context.Context, slot string, s *world.SaveState) error
	// Load returns nil, nil when the slot is empty.
	Load(ctx context.Context, slot string) (*world.SaveState, error)
	Delete(ctx context.Context, slot string) error
	// List returns slot names, sorted.
	List(ctx context.Context) ([]string, error)
}

var ErrInvalidSlot = errors.New("invalid save slot")

var slotPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func checkSlot(slot string) error {
	if !slotPattern.MatchString(slot) {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}
	return nil
}
