package conversation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"parley/pkg/models"
)

func newThread(t *testing.T, id string) *Conversation {
	t.Helper()
	reg := NewRegistry(0)
	c, created, err := reg.GetOrCreate(id, models.KindThread)
	require.NoError(t, err)
	require.True(t, created)
	return c
}

func newRoom(t *testing.T, id string) *Conversation {
	t.Helper()
	reg := NewRegistry(0)
	c, created, err := reg.GetOrCreate(id, models.KindRoom)
	require.NoError(t, err)
	require.True(t, created)
	return c
}

func TestThreadUnreadPerRecipient(t *testing.T) {
	c := newThread(t, "bob@example.net")
	c.BindViewer("alice@example.net")
	c.EnsureRecipient(models.Identity{Address: "alice@example.net"})
	c.EnsureRecipient(models.Identity{Address: "bob@example.net"})

	err := c.AppendMessage(models.Message{
		Conversation: "bob@example.net",
		Sender:       "alice@example.net",
		Body:         "hi",
		Kind:         models.MessageChat,
	})
	require.NoError(t, err)

	// the sender never counts their own message as unread
	require.Equal(t, 0, c.Unread("alice@example.net"))
	require.Equal(t, 1, c.Unread("bob@example.net"))
}

func TestThreadUnreadSkipsFocusedViewer(t *testing.T) {
	c := newThread(t, "bob@example.net")
	c.BindViewer("alice@example.net")
	c.EnsureRecipient(models.Identity{Address: "alice@example.net"})
	c.EnsureRecipient(models.Identity{Address: "bob@example.net"})
	c.Focus()

	err := c.AppendMessage(models.Message{
		Conversation: "bob@example.net",
		Sender:       "bob@example.net",
		Body:         "hi",
		Kind:         models.MessageChat,
	})
	require.NoError(t, err)
	require.Equal(t, 0, c.Unread("alice@example.net"))
}

func TestRoomUnreadViewerScoped(t *testing.T) {
	c := newRoom(t, "room@muc")
	c.BindViewer("room@muc/alice")

	msg := models.Message{Conversation: "room@muc", Sender: "room@muc/bob", Body: "x", Kind: models.MessageGroupchat}
	require.NoError(t, c.AppendMessage(msg))
	require.Equal(t, 1, c.Unread("room@muc/alice"))

	// the viewer's own messages do not bump the counter
	own := msg
	own.Sender = "room@muc/alice"
	require.NoError(t, c.AppendMessage(own))
	require.Equal(t, 1, c.Unread("room@muc/alice"))

	// focused means read-as-it-arrives
	c.Focus()
	require.Equal(t, 0, c.Unread("room@muc/alice"))
	require.NoError(t, c.AppendMessage(msg))
	require.Equal(t, 0, c.Unread("room@muc/alice"))
}

func TestMarkReadOnlyDecreasePath(t *testing.T) {
	c := newThread(t, "bob@example.net")
	c.EnsureRecipient(models.Identity{Address: "alice@example.net"})
	c.EnsureRecipient(models.Identity{Address: "bob@example.net"})
	for i := 0; i < 3; i++ {
		require.NoError(t, c.AppendMessage(models.Message{Conversation: "bob@example.net", Sender: "bob@example.net", Body: "x"}))
	}
	require.Equal(t, 3, c.Unread("alice@example.net"))
	c.MarkRead("alice@example.net")
	require.Equal(t, 0, c.Unread("alice@example.net"))
}

func TestAppendHistoryDoesNotCountUnread(t *testing.T) {
	c := newThread(t, "bob@example.net")
	c.EnsureRecipient(models.Identity{Address: "alice@example.net"})
	c.EnsureRecipient(models.Identity{Address: "bob@example.net"})
	require.NoError(t, c.AppendHistory(models.Message{Conversation: "bob@example.net", Sender: "bob@example.net", Body: "old", TS: 1}))
	require.Equal(t, 0, c.Unread("alice@example.net"))
	require.Equal(t, 1, c.MessageCount())
}

func TestTimestampsNonDecreasing(t *testing.T) {
	c := newThread(t, "bob@example.net")
	require.NoError(t, c.AppendHistory(models.Message{Conversation: "bob@example.net", Body: "a", TS: 100}))
	// stale timestamp: arrival order wins, TS clamps up
	require.NoError(t, c.AppendHistory(models.Message{Conversation: "bob@example.net", Body: "b", TS: 50}))
	msgs := c.Messages(0)
	require.Len(t, msgs, 2)
	require.Equal(t, "b", msgs[1].Body)
	require.Equal(t, int64(100), msgs[1].TS)
}

func TestHistoryLimitTrimsOldest(t *testing.T) {
	reg := NewRegistry(2)
	c, _, err := reg.GetOrCreate("room@muc", models.KindRoom)
	require.NoError(t, err)
	for _, b := range []string{"a", "b", "c"} {
		require.NoError(t, c.AppendMessage(models.Message{Conversation: "room@muc", Sender: "room@muc/bob", Body: b}))
	}
	msgs := c.Messages(0)
	require.Len(t, msgs, 2)
	require.Equal(t, "b", msgs[0].Body)
	require.Equal(t, "c", msgs[1].Body)
}

func TestAppendWrongConversationRejected(t *testing.T) {
	c := newThread(t, "bob@example.net")
	err := c.AppendMessage(models.Message{Conversation: "carol@example.net", Body: "x"})
	require.ErrorIs(t, err, ErrWrongConversation)
	require.Equal(t, 0, c.MessageCount())
}

func TestBindViewerFirstWins(t *testing.T) {
	c := newRoom(t, "room@muc")
	c.BindViewer("room@muc/alice")
	c.BindViewer("room@muc/impostor")
	require.Equal(t, "room@muc/alice", c.Viewer())
}

func TestEnsureRecipientThreadOnly(t *testing.T) {
	room := newRoom(t, "room@muc")
	require.False(t, room.EnsureRecipient(models.Identity{Address: "x@example.net"}))
	require.Nil(t, room.Recipients())

	th := newThread(t, "bob@example.net")
	require.True(t, th.EnsureRecipient(models.Identity{Address: "bob@example.net"}))
	require.False(t, th.EnsureRecipient(models.Identity{Address: "bob@example.net"}))
	require.Len(t, th.Recipients(), 1)
}

func TestSetSubjectReturnsPrevious(t *testing.T) {
	c := newRoom(t, "room@muc")
	require.Equal(t, "", c.SetSubject("first"))
	require.Equal(t, "first", c.SetSubject("second"))
	require.Equal(t, "second", c.Subject())
}

func TestMessagesLimitReturnsNewest(t *testing.T) {
	c := newRoom(t, "room@muc")
	for _, b := range []string{"a", "b", "c"} {
		require.NoError(t, c.AppendMessage(models.Message{Conversation: "room@muc", Body: b}))
	}
	msgs := c.Messages(2)
	require.Len(t, msgs, 2)
	require.Equal(t, "b", msgs[0].Body)
}
