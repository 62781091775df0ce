package security

import (
	"sort"
	"sync"
)

// Denylist is a set of token identifiers excluded from trading-related commands.
// Runtime changes are lost on restart; only the seed list survives.
type Denylist struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewDenylist creates a Denylist seeded with the given identifiers.
func NewDenylist(seed []string) *Denylist {
	d := &Denylist{ids: make(map[string]struct{}, len(seed))}
	for _, id := range seed {
		if id == "" {
			continue
		}
		d.ids[id] = struct{}{}
	}
	return d
}

// Contains reports whether id is denied.
func (d *Denylist) Contains(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, ok := d.ids[id]
	return ok
}

// ContainsAny reports whether any of ids is denied.
func (d *Denylist) ContainsAny(ids ...string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, id := range ids {
		if _, ok := d.ids[id]; ok {
			return true
		}
	}
	return false
}

// Add denies id. It reports false when id was already present.
func (d *Denylist) Add(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.ids[id]; ok {
		return false
	}
	d.ids[id] = struct{}{}
	return true
}

// Remove lifts the denial of id. It reports false when id was not present.
func (d *Denylist) Remove(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.ids[id]; !ok {
		return false
	}
	delete(d.ids, id)
	return true
}

// List returns the denied identifiers in lexical order.
func (d *Denylist) List() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := make([]string, 0, len(d.ids))
	for id := range d.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
