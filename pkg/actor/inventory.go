package actor

import "fmt"

// Item is an inventory entry. Names are unique within an inventory and
// quantities are always at least 1.
type Item struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// AddItem adds qty of name, merging into an existing entry.
func (a *Actor) AddItem(name string, qty int) error {
	if qty < 1 {
		return fmt.Errorf("add %q: %w", name, ErrInvalidQuantity)
	}
	for i := range a.Inventory {
		if a.Inventory[i].Name == name {
			a.Inventory[i].Quantity += qty
			return nil
		}
	}
	a.Inventory = append(a.Inventory, Item{Name: name, Quantity: qty})
	return nil
}

// RemoveItem takes qty of name away. Removing more than is held fails
// without changing the inventory; an entry reaching zero is deleted.
func (a *Actor) RemoveItem(name string, qty int) error {
	if qty < 1 {
		return fmt.Errorf("remove %q: %w", name, ErrInvalidQuantity)
	}
	for i := range a.Inventory {
		if a.Inventory[i].Name != name {
			continue
		}
		if a.Inventory[i].Quantity < qty {
			return fmt.Errorf("remove %d %q: %w", qty, name, ErrInsufficientQuantity)
		}
		a.Inventory[i].Quantity -= qty
		if a.Inventory[i].Quantity == 0 {
			a.Inventory = append(a.Inventory[:i], a.Inventory[i+1:]...)
		}
		return nil
	}
	return fmt.Errorf("remove %q: %w", name, ErrInsufficientQuantity)
}

// Quantity returns how many of name the actor holds.
func (a *Actor) Quantity(name string) int {
	for _, it := range a.Inventory {
		if it.Name == name {
			return it.Quantity
		}
	}
	return 0
}

// HasItem reports whether the actor holds at least one of name.
func (a *Actor) HasItem(name string) bool {
	return a.Quantity(name) > 0
}

// normalizeInventory merges duplicate names and drops non-positive entries.
func normalizeInventory(in []Item) []Item {
	out := make([]Item, 0, len(in))
	index := make(map[string]int, len(in))
	for _, it := range in {
		if it.Name == "" || it.Quantity < 1 {
			continue
		}
		if i, ok := index[it.Name]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[it.Name] = len(out)
		out = append(out, it)
	}
	return out
}
