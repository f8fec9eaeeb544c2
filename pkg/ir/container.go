package ir

import "github.com/raymyers/mplc-backend/pkg/diag"

// Container is the program-wide name-indexed store of every object. It is
// the IR Container of spec.md §4.1: an ordered, name-indexed collection
// with at-worst-log(N) lookup and insertion-order iteration, stable across
// mutation except for removals.
//
// The arena/auxiliary-index split recommended by spec.md §9 ("a single
// arena owning all objects, an auxiliary ordered map from name to arena
// index") is realised here as a slice (the arena, in insertion order) plus
// a map from name to slice index; removal tombstones the slot rather than
// shifting the slice, so surviving indices never move.
type Container struct {
	arena   []Object
	index   map[string]int
	removed map[string]bool
}

// NewContainer returns an empty IR container.
func NewContainer() *Container {
	return &Container{
		index:   make(map[string]int),
		removed: make(map[string]bool),
	}
}

// Add inserts obj, keyed by its name. Fails with DuplicateName if the name
// exists, Unnamed if the object's name is empty.
func (c *Container) Add(obj Object) error {
	name := obj.Name()
	if name == "" {
		return diag.New(diag.KindUnnamed, "ir", "", "cannot add an object with an empty name")
	}
	if _, exists := c.index[name]; exists {
		return diag.New(diag.KindDuplicateName, "ir", name, "object already present")
	}
	c.index[name] = len(c.arena)
	c.arena = append(c.arena, obj)
	return nil
}

// Find looks up an object by name. Fails with NotFound if absent or
// already removed.
func (c *Container) Find(name string) (Object, error) {
	i, ok := c.index[name]
	if !ok || c.removed[name] {
		return nil, diag.New(diag.KindNotFound, "ir", name, "no such object")
	}
	return c.arena[i], nil
}

// Remove drops a dead temp from the container. Used exclusively by the
// liveness pass. Fails with NotFound if the name doesn't exist or was
// already removed.
func (c *Container) Remove(name string) error {
	i, ok := c.index[name]
	if !ok || c.removed[name] {
		return diag.New(diag.KindNotFound, "ir", name, "no such object")
	}
	c.removed[name] = true
	c.arena[i] = nil
	return nil
}

// Iterate returns every live object in insertion order. The returned slice
// is a fresh snapshot; mutating the container afterward does not affect it.
func (c *Container) Iterate() []Object {
	out := make([]Object, 0, len(c.arena))
	for _, name := range c.names() {
		if c.removed[name] {
			continue
		}
		if i, ok := c.index[name]; ok {
			out = append(out, c.arena[i])
		}
	}
	return out
}

// names returns the object names in insertion order, in a new slice on
// every call.
func (c *Container) names() []string {
	names := make([]string, len(c.arena))
	for name, i := range c.index {
		names[i] = name
	}
	return names
}

// Len reports the number of live (non-removed) objects.
func (c *Container) Len() int {
	n := 0
	for name := range c.index {
		if !c.removed[name] {
			n++
		}
	}
	return n
}
