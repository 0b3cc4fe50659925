package privacy

import (
	"sort"
	"sync"
)

// List is the local viewer's ignore set. It is consulted by the dispatcher
// on every outbound send and inbound message, so reads dominate writes.
type List struct {
	mu      sync.RWMutex
	owner   string
	ignored map[string]struct{}
}

func New(owner string) *List {
	return &List{owner: owner, ignored: make(map[string]struct{})}
}

func (l *List) Owner() string { return l.owner }

// Ignore adds address to the ignore set. Repeated calls with the same
// address are idempotent. Returns true if the set changed.
func (l *List) Ignore(address string) bool {
	if address == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.ignored[address]; ok {
		return false
	}
	l.ignored[address] = struct{}{}
	return true
}

// Unignore removes address from the ignore set; removing an absent address
// is a no-op. Returns true if the set changed.
func (l *List) Unignore(address string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.ignored[address]; !ok {
		return false
	}
	delete(l.ignored, address)
	return true
}

func (l *List) IsIgnored(address string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.ignored[address]
	return ok
}

// Addresses returns a sorted snapshot of the ignore set, used to rebuild
// the full list on every privacy resync.
func (l *List) Addresses() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.ignored))
	for a := range l.ignored {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.ignored)
}
