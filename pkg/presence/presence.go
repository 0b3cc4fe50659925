package presence

import (
	"parley/pkg/conversation"
	"parley/pkg/logger"
	"parley/pkg/models"
	"parley/pkg/notify"
)

// Machine applies join/leave/kick/ban events to room rosters and emits the
// matching notifications. States per (conversation, address) are implicit:
// an address is Present exactly when it sits in the roster.
type Machine struct {
	registry *conversation.Registry
	bus      *notify.Bus

	// self is the local viewer; selfNick is the viewer's room nickname.
	// Join/leave of self additionally drives conversation lifecycle.
	self     models.Identity
	selfNick string
}

func NewMachine(registry *conversation.Registry, bus *notify.Bus) *Machine {
	return &Machine{registry: registry, bus: bus}
}

// BindSelf records the local viewer used for self-vs-other disambiguation.
func (m *Machine) BindSelf(self models.Identity, nick string) {
	m.self = self
	m.selfNick = nick
}

// Apply processes one presence event. Malformed events are dropped with a
// log line; events for unknown conversations or absent addresses are
// benign no-ops. Nothing here panics or propagates an error back to the
// transport: the session must survive bad stanzas.
func (m *Machine) Apply(ev models.PresenceEvent) {
	if ev.Actor.Address == "" {
		logger.Warn("presence_missing_address", "conversation", ev.Conversation, "action", string(ev.Action))
		return
	}
	switch ev.Action {
	case models.ActionJoin:
		m.applyJoin(ev)
	case models.ActionLeave, models.ActionKick, models.ActionBan:
		m.applyExit(ev)
	default:
		logger.Warn("presence_unknown_action", "conversation", ev.Conversation, "action", string(ev.Action))
	}
}

func (m *Machine) applyJoin(ev models.PresenceEvent) {
	conv, created, err := m.registry.GetOrCreate(ev.Conversation, models.KindRoom)
	if err != nil {
		// presence addressed at a private thread id; drop rather than coerce
		logger.Warn("presence_kind_mismatch", "conversation", ev.Conversation, "error", err)
		return
	}
	if created {
		logger.Info("room_opened", "room", ev.Conversation)
	}
	prev, present := conv.Roster().Get(ev.Actor.Address)
	conv.Roster().Add(ev.Actor)
	if present {
		// duplicate join: attribute update in place, never a join storm
		m.bus.Publish(notify.PresenceChanged{Room: ev.Conversation, Previous: prev, Updated: ev.Actor})
		return
	}
	if conv.Viewer() == "" && m.isSelf(ev.Actor) {
		conv.BindViewer(ev.Actor.Address)
	}
	m.bus.Publish(notify.RoomJoined{Room: ev.Conversation, Identity: ev.Actor})
}

func (m *Machine) applyExit(ev models.PresenceEvent) {
	conv, ok := m.registry.Get(ev.Conversation)
	if !ok {
		// duplicate or late exit for a room that was never opened
		return
	}
	if conv.Kind() != models.KindRoom {
		// unavailable presence from a 1:1 peer whose thread is open;
		// threads have no roster to leave
		return
	}
	id, present := conv.Roster().Get(ev.Actor.Address)
	if !present {
		return
	}
	conv.Roster().Remove(ev.Actor.Address)
	switch ev.Action {
	case models.ActionKick:
		m.bus.Publish(notify.RoomKicked{
			Room:            ev.Conversation,
			Identity:        id,
			ActingModerator: ev.ActingModerator,
			Reason:          ev.Reason,
		})
	case models.ActionBan:
		m.bus.Publish(notify.RoomBanned{
			Room:            ev.Conversation,
			Identity:        id,
			ActingModerator: ev.ActingModerator,
			Reason:          ev.Reason,
		})
	default:
		m.bus.Publish(notify.RoomLeft{Room: ev.Conversation, Identity: id})
	}
	// self leaving (or being kicked/banned) tears the room down; other
	// participants leaving keep the conversation open
	if ev.Actor.Address == conv.Viewer() {
		m.registry.Close(ev.Conversation)
		logger.Info("room_closed", "room", ev.Conversation, "action", string(ev.Action))
	}
}

func (m *Machine) isSelf(actor models.Identity) bool {
	if m.self.Address != "" && actor.Address == m.self.Address {
		return true
	}
	if m.selfNick == "" {
		return false
	}
	return models.OccupantNick(actor.Address) == m.selfNick || actor.DisplayName == m.selfNick
}
