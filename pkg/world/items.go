package world

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/jwebster45206/story-sim/pkg/actor"
)

// ResolveItem maps an item key or display name to its catalog key.
func (w *World) ResolveItem(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if w.scen.HasItem(name) {
		return name, true
	}
	for _, key := range slices.Sorted(maps.Keys(w.scen.Items)) {
		if strings.EqualFold(key, name) || strings.EqualFold(w.scen.Items[key].Name, name) {
			return key, true
		}
	}
	return "", false
}

func (w *World) itemName(key string) string {
	if it, ok := w.scen.Items[key]; ok && it.Name != "" {
		return it.Name
	}
	return key
}

// GiveItem adds qty of item to name's inventory. Unknown items are
// rejected.
func (w *World) GiveItem(name, item string, qty int) error {
	_, a, err := w.lookup(name)
	if err != nil {
		return err
	}
	key, ok := w.ResolveItem(item)
	if !ok {
		return fmt.Errorf("%q: %w", item, ErrUnknownItem)
	}
	return a.AddItem(key, qty)
}

// TakeItem removes qty of item from name's inventory.
func (w *World) TakeItem(name, item string, qty int) error {
	_, a, err := w.lookup(name)
	if err != nil {
		return err
	}
	key, ok := w.ResolveItem(item)
	if !ok {
		return fmt.Errorf("%q: %w", item, ErrUnknownItem)
	}
	return a.RemoveItem(key, qty)
}

// DropItem moves qty of item from the player to the current location.
func (w *World) DropItem(item string, qty int) error {
	key, ok := w.ResolveItem(item)
	if !ok {
		return fmt.Errorf("%q: %w", item, ErrUnknownItem)
	}
	if err := w.Player().RemoveItem(key, qty); err != nil {
		return err
	}
	loc := w.PlayerLocation()
	w.locationItems[loc] = addToPool(w.locationItems[loc], key, qty)
	return nil
}

// PickUpItem moves qty of item from the current location to the player.
func (w *World) PickUpItem(item string, qty int) error {
	key, ok := w.ResolveItem(item)
	if !ok {
		return fmt.Errorf("%q: %w", item, ErrUnknownItem)
	}
	if qty < 1 {
		return fmt.Errorf("pick up %q: %w", key, actor.ErrInvalidQuantity)
	}
	loc := w.PlayerLocation()
	pool, err := removeFromPool(w.locationItems[loc], key, qty)
	if err != nil {
		return fmt.Errorf("%s at %s: %w", key, loc, ErrNotPresent)
	}
	if err := w.Player().AddItem(key, qty); err != nil {
		return err
	}
	w.locationItems[loc] = pool
	return nil
}

// PlaceItem adds qty of item to a location's pool. An empty location
// means the player's.
func (w *World) PlaceItem(location, item string, qty int) error {
	if location == "" {
		location = w.PlayerLocation()
	}
	if _, ok := w.scen.Locations[location]; !ok {
		return fmt.Errorf("%q: %w", location, ErrUnknownLocation)
	}
	key, ok := w.ResolveItem(item)
	if !ok {
		return fmt.Errorf("%q: %w", item, ErrUnknownItem)
	}
	if qty < 1 {
		return fmt.Errorf("place %q: %w", key, actor.ErrInvalidQuantity)
	}
	w.locationItems[location] = addToPool(w.locationItems[location], key, qty)
	return nil
}

// LocationItems returns a copy of the item pool at location.
func (w *World) LocationItems(location string) []actor.Item {
	return slices.Clone(w.locationItems[location])
}

func addToPool(pool []actor.Item, name string, qty int) []actor.Item {
	for i := range pool {
		if pool[i].Name == name {
			pool[i].Quantity += qty
			return pool
		}
	}
	return append(pool, actor.Item{Name: name, Quantity: qty})
}

// removeFromPool returns a new pool without qty of name; the input is not
// modified.
func removeFromPool(pool []actor.Item, name string, qty int) ([]actor.Item, error) {
	out := slices.Clone(pool)
	for i := range out {
		if out[i].Name != name {
			continue
		}
		if out[i].Quantity < qty {
			return pool, actor.ErrInsufficientQuantity
		}
		out[i].Quantity -= qty
		if out[i].Quantity == 0 {
			out = slices.Delete(out, i, i+1)
		}
		return out, nil
	}
	return pool, actor.ErrInsufficientQuantity
}
