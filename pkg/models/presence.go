package models

// PresenceAction is a roster transition for one identity in one conversation.
type PresenceAction string

const (
	ActionJoin  PresenceAction = "join"
	ActionLeave PresenceAction = "leave"
	ActionKick  PresenceAction = "kick"
	ActionBan   PresenceAction = "ban"
)

// PresenceEvent is transient input to the presence state machine; it is
// never stored.
type PresenceEvent struct {
	Conversation    string
	Actor           Identity
	Action          PresenceAction
	Reason          string
	ActingModerator string
}
