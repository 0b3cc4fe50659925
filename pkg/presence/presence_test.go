package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"parley/pkg/conversation"
	"parley/pkg/models"
	"parley/pkg/notify"
)

func setup(t *testing.T) (*Machine, *conversation.Registry, chan notify.Event) {
	t.Helper()
	reg := conversation.NewRegistry(0)
	bus := notify.NewBus(16)
	t.Cleanup(bus.Close)
	events := make(chan notify.Event, 16)
	bus.SubscribeAll(func(ev notify.Event) { events <- ev })
	m := NewMachine(reg, bus)
	m.BindSelf(models.Identity{Address: "alice@example.net"}, "alice")
	return m, reg, events
}

func nextEvent(t *testing.T, events chan notify.Event) notify.Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return nil
	}
}

func noEvent(t *testing.T, events chan notify.Event) {
	t.Helper()
	select {
	case ev := <-events:
		t.Fatalf("unexpected notification: %v", ev.Kind())
	case <-time.After(50 * time.Millisecond):
	}
}

func TestJoinOpensRoomAndNotifies(t *testing.T) {
	m, reg, events := setup(t)
	m.Apply(models.PresenceEvent{
		Conversation: "room@muc",
		Actor:        models.Identity{Address: "room@muc/bob", Role: models.RoleParticipant},
		Action:       models.ActionJoin,
	})

	ev := nextEvent(t, events)
	joined, ok := ev.(notify.RoomJoined)
	require.True(t, ok, "expected RoomJoined, got %T", ev)
	require.Equal(t, "room@muc", joined.Room)
	require.Equal(t, "room@muc/bob", joined.Identity.Address)

	conv, ok := reg.Get("room@muc")
	require.True(t, ok)
	require.Equal(t, 1, conv.Roster().Len())
}

func TestDuplicateJoinUpdatesInPlace(t *testing.T) {
	m, reg, events := setup(t)
	m.Apply(models.PresenceEvent{
		Conversation: "room@muc",
		Actor:        models.Identity{Address: "room@muc/bob", Role: models.RoleParticipant},
		Action:       models.ActionJoin,
	})
	nextEvent(t, events) // RoomJoined

	m.Apply(models.PresenceEvent{
		Conversation: "room@muc",
		Actor:        models.Identity{Address: "room@muc/bob", Role: models.RoleModerator},
		Action:       models.ActionJoin,
	})
	ev := nextEvent(t, events)
	changed, ok := ev.(notify.PresenceChanged)
	require.True(t, ok, "expected PresenceChanged, got %T", ev)
	require.Equal(t, models.RoleParticipant, changed.Previous.Role)
	require.Equal(t, models.RoleModerator, changed.Updated.Role)

	conv, _ := reg.Get("room@muc")
	require.Equal(t, 1, conv.Roster().Len())
	id, _ := conv.Roster().Get("room@muc/bob")
	require.Equal(t, models.RoleModerator, id.Role)
}

func TestSelfJoinBindsViewer(t *testing.T) {
	m, reg, events := setup(t)
	m.Apply(models.PresenceEvent{
		Conversation: "room@muc",
		Actor:        models.Identity{Address: "room@muc/alice"},
		Action:       models.ActionJoin,
	})
	nextEvent(t, events)
	conv, _ := reg.Get("room@muc")
	require.Equal(t, "room@muc/alice", conv.Viewer())
}

func TestLeaveRemovesAndNotifies(t *testing.T) {
	m, reg, events := setup(t)
	m.Apply(models.PresenceEvent{Conversation: "room@muc", Actor: models.Identity{Address: "room@muc/bob"}, Action: models.ActionJoin})
	nextEvent(t, events)

	m.Apply(models.PresenceEvent{Conversation: "room@muc", Actor: models.Identity{Address: "room@muc/bob"}, Action: models.ActionLeave})
	ev := nextEvent(t, events)
	left, ok := ev.(notify.RoomLeft)
	require.True(t, ok, "expected RoomLeft, got %T", ev)
	require.Equal(t, "room@muc/bob", left.Identity.Address)

	conv, _ := reg.Get("room@muc")
	require.Equal(t, 0, conv.Roster().Len())
}

func TestKickCarriesModeratorAndReason(t *testing.T) {
	m, _, events := setup(t)
	m.Apply(models.PresenceEvent{Conversation: "room@muc", Actor: models.Identity{Address: "room@muc/bob"}, Action: models.ActionJoin})
	nextEvent(t, events)

	m.Apply(models.PresenceEvent{
		Conversation:    "room@muc",
		Actor:           models.Identity{Address: "room@muc/bob"},
		Action:          models.ActionKick,
		Reason:          "flooding",
		ActingModerator: "room@muc/alice",
	})
	ev := nextEvent(t, events)
	kicked, ok := ev.(notify.RoomKicked)
	require.True(t, ok, "expected RoomKicked, got %T", ev)
	require.Equal(t, "flooding", kicked.Reason)
	require.Equal(t, "room@muc/alice", kicked.ActingModerator)
}

func TestBanNotifies(t *testing.T) {
	m, _, events := setup(t)
	m.Apply(models.PresenceEvent{Conversation: "room@muc", Actor: models.Identity{Address: "room@muc/bob"}, Action: models.ActionJoin})
	nextEvent(t, events)

	m.Apply(models.PresenceEvent{Conversation: "room@muc", Actor: models.Identity{Address: "room@muc/bob"}, Action: models.ActionBan})
	ev := nextEvent(t, events)
	_, ok := ev.(notify.RoomBanned)
	require.True(t, ok, "expected RoomBanned, got %T", ev)
}

func TestExitForOpenThreadIsNoop(t *testing.T) {
	m, reg, events := setup(t)
	reg.GetOrCreate("bob@example.net", models.KindThread)

	// a 1:1 peer going offline; its bare address matches the open thread
	m.Apply(models.PresenceEvent{
		Conversation: "bob@example.net",
		Actor:        models.Identity{Address: "bob@example.net/home"},
		Action:       models.ActionLeave,
	})
	noEvent(t, events)
	conv, ok := reg.Get("bob@example.net")
	require.True(t, ok)
	require.Equal(t, models.KindThread, conv.Kind())
}

func TestExitUnknownRoomIsNoop(t *testing.T) {
	m, reg, events := setup(t)
	m.Apply(models.PresenceEvent{Conversation: "never@muc", Actor: models.Identity{Address: "never@muc/bob"}, Action: models.ActionLeave})
	noEvent(t, events)
	require.Equal(t, 0, reg.Len())
}

func TestExitAbsentMemberIsNoop(t *testing.T) {
	m, _, events := setup(t)
	m.Apply(models.PresenceEvent{Conversation: "room@muc", Actor: models.Identity{Address: "room@muc/bob"}, Action: models.ActionJoin})
	nextEvent(t, events)

	m.Apply(models.PresenceEvent{Conversation: "room@muc", Actor: models.Identity{Address: "room@muc/carol"}, Action: models.ActionLeave})
	noEvent(t, events)
}

func TestMissingAddressDropped(t *testing.T) {
	m, reg, events := setup(t)
	m.Apply(models.PresenceEvent{Conversation: "room@muc", Action: models.ActionJoin})
	noEvent(t, events)
	require.Equal(t, 0, reg.Len())
}

func TestSelfLeaveClosesRoom(t *testing.T) {
	m, reg, events := setup(t)
	m.Apply(models.PresenceEvent{Conversation: "room@muc", Actor: models.Identity{Address: "room@muc/alice"}, Action: models.ActionJoin})
	nextEvent(t, events)

	m.Apply(models.PresenceEvent{Conversation: "room@muc", Actor: models.Identity{Address: "room@muc/alice"}, Action: models.ActionLeave})
	nextEvent(t, events)
	_, ok := reg.Get("room@muc")
	require.False(t, ok)
}

func TestOtherLeaveKeepsRoomOpen(t *testing.T) {
	m, reg, events := setup(t)
	m.Apply(models.PresenceEvent{Conversation: "room@muc", Actor: models.Identity{Address: "room@muc/alice"}, Action: models.ActionJoin})
	nextEvent(t, events)
	m.Apply(models.PresenceEvent{Conversation: "room@muc", Actor: models.Identity{Address: "room@muc/bob"}, Action: models.ActionJoin})
	nextEvent(t, events)

	m.Apply(models.PresenceEvent{Conversation: "room@muc", Actor: models.Identity{Address: "room@muc/bob"}, Action: models.ActionLeave})
	nextEvent(t, events)
	_, ok := reg.Get("room@muc")
	require.True(t, ok)
}
