package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"parley/pkg/models"
)

func openStore(t *testing.T) {
	t.Helper()
	require.NoError(t, Open(t.TempDir()))
	t.Cleanup(func() { _ = Close() })
}

func TestSaveAndGetThread(t *testing.T) {
	openStore(t)
	rec := models.ThreadRecord{
		ID:      "bob@example.net",
		Subject: "plans",
		Recipients: []models.Identity{
			{Address: "alice@example.net"},
			{Address: "bob@example.net"},
		},
	}
	require.NoError(t, SaveThread(rec))

	got, err := GetThread("bob@example.net")
	require.NoError(t, err)
	require.Equal(t, "plans", got.Subject)
	require.Len(t, got.Recipients, 2)
	require.NotZero(t, got.CreatedTS)
}

func TestAppendMessageBumpsRecipientUnread(t *testing.T) {
	openStore(t)
	require.NoError(t, SaveThread(models.ThreadRecord{
		ID: "bob@example.net",
		Recipients: []models.Identity{
			{Address: "alice@example.net"},
			{Address: "bob@example.net"},
		},
	}))

	id, err := AppendMessage("bob@example.net", models.Message{
		Conversation: "bob@example.net",
		Sender:       "alice@example.net",
		Body:         "hi",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id, "ids are assigned when the caller omits them")

	counts, err := UnreadCounts("bob@example.net")
	require.NoError(t, err)
	require.Equal(t, map[string]int{"bob@example.net": 1}, counts)
}

func TestAppendMessageMergesSenderIntoRecipients(t *testing.T) {
	openStore(t)
	_, err := AppendMessage("bob@example.net", models.Message{
		Conversation: "bob@example.net",
		Sender:       "alice@example.net",
		Body:         "hi",
	})
	require.NoError(t, err)

	_, err = AppendMessage("bob@example.net", models.Message{
		Conversation: "bob@example.net",
		Sender:       "bob@example.net",
		Body:         "hey",
	})
	require.NoError(t, err)

	rec, err := GetThread("bob@example.net")
	require.NoError(t, err)
	require.Len(t, rec.Recipients, 2)

	// the reply now counts as unread for the first sender
	counts, err := UnreadCounts("bob@example.net")
	require.NoError(t, err)
	require.Equal(t, 1, counts["alice@example.net"])
}

func TestAppendMessageCreatesThread(t *testing.T) {
	openStore(t)
	_, err := AppendMessage("carol@example.net", models.Message{
		Conversation: "carol@example.net",
		Sender:       "alice@example.net",
		Body:         "first contact",
	})
	require.NoError(t, err)

	rec, err := GetThread("carol@example.net")
	require.NoError(t, err)
	require.Equal(t, "carol@example.net", rec.ID)
}

func TestListMessagesOrderedWithLimit(t *testing.T) {
	openStore(t)
	for i, b := range []string{"a", "b", "c"} {
		_, err := AppendMessage("bob@example.net", models.Message{
			Conversation: "bob@example.net",
			Sender:       "alice@example.net",
			Body:         b,
			TS:           int64(100 + i),
		})
		require.NoError(t, err)
	}
	msgs, err := ListMessages("bob@example.net", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, "a", msgs[0].Body)
	require.Equal(t, "c", msgs[2].Body)

	tail, err := ListMessages("bob@example.net", 2)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	require.Equal(t, "b", tail[0].Body)
}

func TestMarkReadResetsCounter(t *testing.T) {
	openStore(t)
	require.NoError(t, SaveThread(models.ThreadRecord{
		ID:         "bob@example.net",
		Recipients: []models.Identity{{Address: "alice@example.net"}, {Address: "bob@example.net"}},
	}))
	for i := 0; i < 2; i++ {
		_, err := AppendMessage("bob@example.net", models.Message{Conversation: "bob@example.net", Sender: "bob@example.net", Body: "x"})
		require.NoError(t, err)
	}
	require.NoError(t, MarkRead("bob@example.net", "alice@example.net"))
	counts, err := UnreadCounts("bob@example.net")
	require.NoError(t, err)
	require.Equal(t, 0, counts["alice@example.net"])
}

func TestLoadThreadHydratesEverything(t *testing.T) {
	openStore(t)
	require.NoError(t, SaveThread(models.ThreadRecord{
		ID:         "bob@example.net",
		Subject:    "plans",
		Recipients: []models.Identity{{Address: "alice@example.net"}, {Address: "bob@example.net"}},
	}))
	_, err := AppendMessage("bob@example.net", models.Message{Conversation: "bob@example.net", Sender: "bob@example.net", Body: "hi"})
	require.NoError(t, err)

	snap, err := LoadThread("bob@example.net")
	require.NoError(t, err)
	require.Equal(t, "plans", snap.Record.Subject)
	require.Len(t, snap.Messages, 1)
	require.Equal(t, 1, snap.Unread["alice@example.net"])
}

func TestDeleteThreadTombstones(t *testing.T) {
	openStore(t)
	require.NoError(t, SaveThread(models.ThreadRecord{
		ID:         "bob@example.net",
		Recipients: []models.Identity{{Address: "alice@example.net"}, {Address: "bob@example.net"}},
	}))
	_, err := AppendMessage("bob@example.net", models.Message{Conversation: "bob@example.net", Sender: "bob@example.net", Body: "hi"})
	require.NoError(t, err)

	require.NoError(t, DeleteThread("bob@example.net"))

	_, err = LoadThread("bob@example.net")
	require.ErrorIs(t, err, ErrThreadDeleted)

	_, err = AppendMessage("bob@example.net", models.Message{Conversation: "bob@example.net", Sender: "bob@example.net", Body: "late"})
	require.ErrorIs(t, err, ErrThreadDeleted)

	counts, err := UnreadCounts("bob@example.net")
	require.NoError(t, err)
	require.Empty(t, counts)
}
