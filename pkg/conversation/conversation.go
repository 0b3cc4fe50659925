package conversation

import (
	"errors"
	"sync"
	"time"

	"parley/pkg/models"
	"parley/pkg/roster"
)

var (
	// ErrWrongConversation is returned when a message addressed to another
	// conversation is appended here.
	ErrWrongConversation = errors.New("message addressed to another conversation")
)

// Conversation is the aggregate for one room or private thread: membership,
// ordered message history, subject and unread bookkeeping. Rooms carry a
// live roster; threads carry a fixed recipient set. All methods are safe
// for concurrent use.
type Conversation struct {
	mu sync.Mutex

	id        string
	kind      models.ConversationKind
	subject   string
	createdAt int64

	members    *roster.Roster             // rooms only
	recipients map[string]models.Identity // threads only

	messages     []models.Message
	historyLimit int

	// unread is per-recipient for threads; unreadRoom is the single
	// viewer-scoped counter for rooms.
	unread     map[string]int
	unreadRoom int

	viewer  string
	focused bool
}

func newConversation(id string, kind models.ConversationKind, historyLimit int) *Conversation {
	c := &Conversation{
		id:           id,
		kind:         kind,
		createdAt:    time.Now().UTC().UnixNano(),
		historyLimit: historyLimit,
		unread:       make(map[string]int),
	}
	if kind == models.KindRoom {
		c.members = roster.New()
	} else {
		c.recipients = make(map[string]models.Identity)
	}
	return c
}

func (c *Conversation) ID() string                    { return c.id }
func (c *Conversation) Kind() models.ConversationKind { return c.kind }

// Roster returns the live membership table (nil for threads).
func (c *Conversation) Roster() *roster.Roster { return c.members }

func (c *Conversation) Subject() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subject
}

// SetSubject replaces the subject and returns the previous one. Moderator
// authority is a contract of the caller (the dispatcher checks it before
// calling); it is not re-validated here.
func (c *Conversation) SetSubject(subject string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.subject
	c.subject = subject
	return old
}

func (c *Conversation) CreatedAt() int64 { return c.createdAt }

// BindViewer records the local viewer's address in this conversation once;
// later calls keep the first binding.
func (c *Conversation) BindViewer(address string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.viewer == "" {
		c.viewer = address
	}
}

func (c *Conversation) Viewer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewer
}

// Focus marks the conversation as the one the local viewer is looking at
// and clears the viewer's unread counter ("mark read on view").
func (c *Conversation) Focus() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.focused = true
	if c.kind == models.KindRoom {
		c.unreadRoom = 0
	} else if c.viewer != "" {
		c.unread[c.viewer] = 0
	}
}

func (c *Conversation) Blur() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.focused = false
}

func (c *Conversation) Focused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focused
}

// EnsureRecipient adds id to a thread's recipient set if absent and
// reports whether the set changed. No-op for rooms.
func (c *Conversation) EnsureRecipient(id models.Identity) bool {
	if c.kind != models.KindThread || id.Address == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.recipients[id.Address]; ok {
		return false
	}
	c.recipients[id.Address] = id
	return true
}

// Recipients returns the thread's recipient set (nil for rooms).
func (c *Conversation) Recipients() []models.Identity {
	if c.kind != models.KindThread {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Identity, 0, len(c.recipients))
	for _, id := range c.recipients {
		out = append(out, id)
	}
	return out
}

// AppendMessage appends msg to the history and bumps unread counters for
// every recipient other than the sender, unless the conversation is
// focused by that recipient. The history stays non-decreasing in TS:
// arrival order wins over a stale timestamp.
func (c *Conversation) AppendMessage(msg models.Message) error {
	return c.append(msg, true)
}

// AppendHistory appends a replayed/offline message with its original
// timestamp and no unread accounting: replayed history is not "new".
func (c *Conversation) AppendHistory(msg models.Message) error {
	return c.append(msg, false)
}

func (c *Conversation) append(msg models.Message, countUnread bool) error {
	if msg.Conversation != c.id {
		return ErrWrongConversation
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if msg.TS == 0 {
		msg.TS = time.Now().UTC().UnixNano()
	}
	if n := len(c.messages); n > 0 && msg.TS < c.messages[n-1].TS {
		msg.TS = c.messages[n-1].TS
	}
	c.messages = append(c.messages, msg)
	if c.historyLimit > 0 && len(c.messages) > c.historyLimit {
		c.messages = c.messages[len(c.messages)-c.historyLimit:]
	}
	if !countUnread {
		return nil
	}
	switch c.kind {
	case models.KindThread:
		for addr := range c.recipients {
			if addr == msg.Sender {
				continue
			}
			if c.focused && addr == c.viewer {
				continue
			}
			c.unread[addr]++
		}
	case models.KindRoom:
		if msg.Sender != c.viewer && !c.focused {
			c.unreadRoom++
		}
	}
	return nil
}

// Unread returns the unread count for recipient (threads) or the
// viewer-scoped counter (rooms).
func (c *Conversation) Unread(recipient string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kind == models.KindRoom {
		return c.unreadRoom
	}
	return c.unread[recipient]
}

// MarkRead resets recipient's unread counter to zero. This is the only
// operation that decreases unread counts.
func (c *Conversation) MarkRead(recipient string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kind == models.KindRoom {
		c.unreadRoom = 0
		return
	}
	c.unread[recipient] = 0
}

// UnreadByRecipient returns a copy of the per-recipient counters (threads)
// or a single viewer entry (rooms).
func (c *Conversation) UnreadByRecipient() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int)
	if c.kind == models.KindRoom {
		out[c.viewer] = c.unreadRoom
		return out
	}
	for k, v := range c.unread {
		out[k] = v
	}
	return out
}

// Messages returns up to limit most recent messages (all when limit <= 0).
func (c *Conversation) Messages(limit int) []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := c.messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out
}

func (c *Conversation) MessageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// Snapshot is a read-only view of a conversation for the debug API and
// for persistence.
type Snapshot struct {
	ID           string                  `json:"id"`
	Kind         models.ConversationKind `json:"kind"`
	Subject      string                  `json:"subject,omitempty"`
	CreatedTS    int64                   `json:"created_ts"`
	Viewer       string                  `json:"viewer,omitempty"`
	Focused      bool                    `json:"focused"`
	Members      []models.Identity       `json:"members,omitempty"`
	Unread       map[string]int          `json:"unread,omitempty"`
	MessageCount int                     `json:"message_count"`
}

func (c *Conversation) Snapshot() Snapshot {
	snap := Snapshot{
		ID:           c.id,
		Kind:         c.kind,
		Subject:      c.Subject(),
		CreatedTS:    c.createdAt,
		Viewer:       c.Viewer(),
		Focused:      c.Focused(),
		Unread:       c.UnreadByRecipient(),
		MessageCount: c.MessageCount(),
	}
	if c.kind == models.KindRoom {
		snap.Members = c.members.All()
	} else {
		snap.Members = c.Recipients()
	}
	return snap
}
