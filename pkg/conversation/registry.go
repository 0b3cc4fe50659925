package conversation

import (
	"fmt"
	"sort"
	"sync"

	"parley/pkg/models"
)

// ErrKindMismatch is returned when GetOrCreate is called with a kind that
// conflicts with the existing conversation; the entry is never coerced.
var ErrKindMismatch = fmt.Errorf("conversation exists with a different kind")

// Registry is the single shared table of open conversations for one chat
// session. All conversation lifecycle goes through it; callers must not
// keep references that outlive Close.
type Registry struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	historyLimit  int
}

func NewRegistry(historyLimit int) *Registry {
	return &Registry{
		conversations: make(map[string]*Conversation),
		historyLimit:  historyLimit,
	}
}

// GetOrCreate returns the conversation for id, creating it when absent.
// It is idempotent: an existing entry is returned unchanged, and created
// reports whether this call created it. A kind mismatch is a logic error
// surfaced to the caller.
func (r *Registry) GetOrCreate(id string, kind models.ConversationKind) (*Conversation, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conversations[id]; ok {
		if c.kind != kind {
			return nil, false, fmt.Errorf("%w: %s is %s, requested %s", ErrKindMismatch, id, c.kind, kind)
		}
		return c, false, nil
	}
	c := newConversation(id, kind, r.historyLimit)
	r.conversations[id] = c
	return c, true, nil
}

func (r *Registry) Get(id string) (*Conversation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conversations[id]
	return c, ok
}

// Close removes the conversation from the registry and reports whether it
// was present. In-memory state only; persisted thread data is untouched.
func (r *Registry) Close(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conversations[id]; !ok {
		return false
	}
	delete(r.conversations, id)
	return true
}

// All returns the open conversations sorted by id.
func (r *Registry) All() []*Conversation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Conversation, 0, len(r.conversations))
	for _, c := range r.conversations {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conversations)
}

// CloseEmptyRooms closes rooms whose roster emptied and that the viewer is
// not looking at, returning the closed ids. Threads are never swept; their
// lifecycle is delegated to persistence.
func (r *Registry) CloseEmptyRooms() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var closed []string
	for id, c := range r.conversations {
		if c.kind != models.KindRoom {
			continue
		}
		if c.members.Len() == 0 && !c.Focused() {
			delete(r.conversations, id)
			closed = append(closed, id)
		}
	}
	sort.Strings(closed)
	return closed
}

// Hydrate creates a thread from a persisted snapshot: recipient set,
// replayed history and unread counters. An existing conversation with the
// same id is returned as-is.
func (r *Registry) Hydrate(snap models.ThreadSnapshot) (*Conversation, error) {
	c, created, err := r.GetOrCreate(snap.Record.ID, models.KindThread)
	if err != nil {
		return nil, err
	}
	if !created {
		return c, nil
	}
	for _, id := range snap.Record.Recipients {
		c.EnsureRecipient(id)
	}
	if snap.Record.Subject != "" {
		c.SetSubject(snap.Record.Subject)
	}
	for _, m := range snap.Messages {
		if err := c.AppendHistory(m); err != nil {
			return nil, err
		}
	}
	c.mu.Lock()
	for recipient, n := range snap.Unread {
		c.unread[recipient] = n
	}
	c.mu.Unlock()
	return c, nil
}
