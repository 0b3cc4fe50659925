package notify

import "parley/pkg/models"

// EventKind names one notification the engine can emit.
type EventKind string

const (
	KindRoomJoined              EventKind = "room_joined"
	KindRoomLeft                EventKind = "room_left"
	KindRoomKicked              EventKind = "room_kicked"
	KindRoomBanned              EventKind = "room_banned"
	KindPresenceChanged         EventKind = "presence_changed"
	KindMessageReceived         EventKind = "message_received"
	KindSubjectChanged          EventKind = "subject_changed"
	KindConnectionStatusChanged EventKind = "connection_status_changed"
)

// Event is a tagged notification payload. Each kind has its own struct so
// handlers can switch exhaustively instead of probing optional fields.
type Event interface {
	Kind() EventKind
}

// RoomJoined: a new participant entered the room.
type RoomJoined struct {
	Room     string          `json:"room"`
	Identity models.Identity `json:"identity"`
}

func (RoomJoined) Kind() EventKind { return KindRoomJoined }

// RoomLeft: a participant left the room.
type RoomLeft struct {
	Room     string          `json:"room"`
	Identity models.Identity `json:"identity"`
}

func (RoomLeft) Kind() EventKind { return KindRoomLeft }

// RoomKicked: a participant was removed by a moderator.
type RoomKicked struct {
	Room            string          `json:"room"`
	Identity        models.Identity `json:"identity"`
	ActingModerator string          `json:"acting_moderator,omitempty"`
	Reason          string          `json:"reason,omitempty"`
}

func (RoomKicked) Kind() EventKind { return KindRoomKicked }

// RoomBanned: a participant was banned (outcast) from the room.
type RoomBanned struct {
	Room            string          `json:"room"`
	Identity        models.Identity `json:"identity"`
	ActingModerator string          `json:"acting_moderator,omitempty"`
	Reason          string          `json:"reason,omitempty"`
}

func (RoomBanned) Kind() EventKind { return KindRoomBanned }

// PresenceChanged: an already-present participant changed role or
// affiliation; carries both the previous and updated identity so callers
// can tell "new participant" from "attribute update".
type PresenceChanged struct {
	Room     string          `json:"room"`
	Previous models.Identity `json:"previous"`
	Updated  models.Identity `json:"updated"`
}

func (PresenceChanged) Kind() EventKind { return KindPresenceChanged }

// MessageReceived: a message was appended to a conversation's history.
type MessageReceived struct {
	Conversation string         `json:"conversation"`
	Message      models.Message `json:"message"`
	Replayed     bool           `json:"replayed,omitempty"`
}

func (MessageReceived) Kind() EventKind { return KindMessageReceived }

// SubjectChanged: a room's subject was replaced.
type SubjectChanged struct {
	Conversation string `json:"conversation"`
	Subject      string `json:"subject"`
	Previous     string `json:"previous,omitempty"`
	Actor        string `json:"actor,omitempty"`
}

func (SubjectChanged) Kind() EventKind { return KindSubjectChanged }

// ConnectionStatusChanged: the transport connection state moved.
type ConnectionStatusChanged struct {
	State models.ConnState `json:"state"`
}

func (ConnectionStatusChanged) Kind() EventKind { return KindConnectionStatusChanged }
