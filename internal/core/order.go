package core

import (
	"fmt"
	"slices"
)

// Direction is the way a file moves in the ordering list.
type Direction int

const (
	Up Direction = iota
	Down
)

// ParseDirection accepts "up" or "down".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	}
	return 0, fmt.Errorf("invalid direction %q", s)
}

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// FileOrder tracks a user-adjustable permutation over the current batch,
// keyed by file name so it survives repeated renders of the same batch.
//
// order[i] is the batch index shown at display position i.
type FileOrder struct {
	keys  []string
	order []int
}

// Reconcile observes the current batch identities and returns the order to
// display. A changed identity set resets the order to identity; the same set
// keeps the user's arrangement.
func (o *FileOrder) Reconcile(keys []string) []int {
	if len(keys) == 0 {
		o.Reset()
		return nil
	}

	if slices.Equal(o.keys, keys) && len(o.order) == len(keys) {
		return o.Order()
	}

	if remapped, ok := remapOrder(o.keys, o.order, keys); ok {
		o.keys = slices.Clone(keys)
		o.order = remapped
		return o.Order()
	}

	o.keys = slices.Clone(keys)
	o.order = make([]int, len(keys))
	for i := range o.order {
		o.order[i] = i
	}
	return o.Order()
}

// remapOrder re-expresses an existing arrangement against a batch holding the
// same unique names in a different upload order.
func remapOrder(oldKeys []string, oldOrder []int, newKeys []string) ([]int, bool) {
	if len(oldKeys) == 0 || len(oldKeys) != len(newKeys) || len(oldOrder) != len(oldKeys) {
		return nil, false
	}

	pos := make(map[string]int, len(newKeys))
	for i, k := range newKeys {
		if _, dup := pos[k]; dup {
			return nil, false
		}
		pos[k] = i
	}

	remapped := make([]int, len(oldOrder))
	used := make([]bool, len(newKeys))
	for i, idx := range oldOrder {
		j, ok := pos[oldKeys[idx]]
		if !ok || used[j] {
			return nil, false
		}
		used[j] = true
		remapped[i] = j
	}
	return remapped, true
}

// Move swaps the entry at position with its neighbour in direction dir.
// At the boundary it leaves the order unchanged and returns ErrOrderBoundary.
func (o *FileOrder) Move(position int, dir Direction) error {
	if position < 0 || position >= len(o.order) {
		return fmt.Errorf("move %d %s: %w", position, dir, ErrOrderPosition)
	}

	target := position - 1
	if dir == Down {
		target = position + 1
	}
	if target < 0 || target >= len(o.order) {
		return fmt.Errorf("move %d %s: %w", position, dir, ErrOrderBoundary)
	}

	o.order[position], o.order[target] = o.order[target], o.order[position]
	return nil
}

// Order returns a copy of the current permutation.
func (o *FileOrder) Order() []int {
	return slices.Clone(o.order)
}

// Keys returns the identities the order was last reconciled against.
func (o *FileOrder) Keys() []string {
	return slices.Clone(o.keys)
}

// Len returns the number of tracked files.
func (o *FileOrder) Len() int {
	return len(o.order)
}

// Reset forgets the batch and its order.
func (o *FileOrder) Reset() {
	o.keys = nil
	o.order = nil
}

// ApplyOrder reindexes batch according to order.
func ApplyOrder[T any](order []int, batch []T) ([]T, error) {
	if len(order) != len(batch) {
		return nil, fmt.Errorf("order has %d entries, batch has %d files", len(order), len(batch))
	}
	out := make([]T, len(order))
	seen := make([]bool, len(batch))
	for i, idx := range order {
		if idx < 0 || idx >= len(batch) || seen[idx] {
			return nil, fmt.Errorf("order is not a permutation: %v", order)
		}
		seen[idx] = true
		out[i] = batch[idx]
	}
	return out, nil
}
