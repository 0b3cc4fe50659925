package roster

import (
	"sync"

	"parley/pkg/models"
)

// Roster is the live membership table of one room, keyed by address.
// It is a plain map with no observer side effects; notifications are the
// presence machine's job.
type Roster struct {
	mu      sync.RWMutex
	members map[string]models.Identity
}

func New() *Roster {
	return &Roster{members: make(map[string]models.Identity)}
}

// Add inserts or replaces the entry keyed by identity.Address. Overwrite is
// intentional: a re-join with an updated role/affiliation must replace the
// entry, not duplicate it.
func (r *Roster) Add(id models.Identity) {
	if id.Address == "" {
		return
	}
	r.mu.Lock()
	r.members[id.Address] = id
	r.mu.Unlock()
}

// Remove deletes the entry if present; removing an absent address is a no-op.
func (r *Roster) Remove(address string) {
	r.mu.Lock()
	delete(r.members, address)
	r.mu.Unlock()
}

// Get returns the identity for address and whether it is present.
func (r *Roster) Get(address string) (models.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.members[address]
	return id, ok
}

// All returns the current members. Order is undefined.
func (r *Roster) All() []models.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Identity, 0, len(r.members))
	for _, id := range r.members {
		out = append(out, id)
	}
	return out
}

func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}
