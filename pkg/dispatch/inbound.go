package dispatch

import (
	"parley/pkg/logger"
	"parley/pkg/models"
	"parley/pkg/notify"
	"parley/pkg/telemetry"
)

// HandleInbound classifies one transport envelope and routes it. It never
// returns an error to the transport: malformed envelopes are dropped with
// a log line and a counter, unrecognized kinds are ignored.
func (d *Dispatcher) HandleInbound(env models.Envelope) {
	telemetry.InboundEnvelopes.WithLabelValues(string(env.Kind)).Inc()
	switch env.Kind {
	case models.EnvelopePresence:
		d.inboundPresence(env)
	case models.EnvelopeMessage:
		d.inboundMessage(env)
	case models.EnvelopeIQ:
		d.inboundIQ(env)
	default:
		logger.Debug("envelope_ignored", "kind", string(env.Kind), "from", env.From)
	}
}

func (d *Dispatcher) inboundPresence(env models.Envelope) {
	if env.From == "" {
		telemetry.MalformedEnvelopes.Inc()
		logger.Warn("presence_dropped_missing_from")
		return
	}
	d.machine.Apply(presenceEvent(env))
}

// presenceEvent maps an envelope onto a presence transition. Kick and ban
// are recognized only by their status codes; an unavailable presence
// without one degrades to a plain leave.
func presenceEvent(env models.Envelope) models.PresenceEvent {
	actor := models.Identity{
		Address:     env.From,
		DisplayName: env.Nick,
		Role:        env.Role,
		Affiliation: env.Affiliation,
	}
	if actor.DisplayName == "" {
		actor.DisplayName = models.OccupantNick(env.From)
	}
	if actor.Role == "" {
		actor.Role = models.RoleParticipant
	}
	if actor.Affiliation == "" {
		actor.Affiliation = models.AffiliationNone
	}
	ev := models.PresenceEvent{
		Conversation:    models.Bare(env.From),
		Actor:           actor,
		Reason:          env.Reason,
		ActingModerator: env.Actor,
	}
	if env.Type != models.PresenceUnavailable {
		ev.Action = models.ActionJoin
		return ev
	}
	switch env.StatusCode {
	case models.StatusKicked:
		ev.Action = models.ActionKick
	case models.StatusBanned:
		ev.Action = models.ActionBan
	default:
		ev.Action = models.ActionLeave
	}
	return ev
}

func (d *Dispatcher) inboundMessage(env models.Envelope) {
	if env.From == "" {
		telemetry.MalformedEnvelopes.Inc()
		logger.Warn("message_dropped_missing_from")
		return
	}
	convID := models.Bare(env.From)
	groupchat := env.Type == string(models.MessageGroupchat)

	// inbound traffic from ignored senders is filtered here, not in the
	// conversation
	if !groupchat && d.privacy.IsIgnored(convID) {
		logger.Debug("message_dropped_ignored_sender", "from", env.From)
		return
	}

	// a groupchat envelope with a subject and no body is a subject change
	if groupchat && env.Subject != "" && env.Body == "" {
		d.inboundSubject(env, convID)
		return
	}
	if env.Body == "" {
		telemetry.MalformedEnvelopes.Inc()
		logger.Warn("message_dropped_empty_body", "from", env.From)
		return
	}

	kind := models.KindThread
	msgKind := models.MessageChat
	if groupchat {
		kind = models.KindRoom
		msgKind = models.MessageGroupchat
	}
	conv, _, err := d.reg.GetOrCreate(convID, kind)
	if err != nil {
		logger.Warn("message_kind_mismatch", "conversation", convID, "error", err)
		return
	}
	if kind == models.KindThread {
		conv.BindViewer(d.self.Address)
		conv.EnsureRecipient(d.self)
		conv.EnsureRecipient(models.Identity{Address: convID, DisplayName: models.OccupantNick(env.From)})
	}

	msg := models.Message{
		Conversation: convID,
		Sender:       env.From,
		Body:         env.Body,
		Subject:      env.Subject,
		Kind:         msgKind,
	}
	if kind == models.KindThread {
		msg.Sender = convID
	}

	replayed := env.DelayTS > 0
	if replayed {
		// replayed/offline history keeps its original timestamp and does
		// not count as new
		msg.TS = env.DelayTS
		err = conv.AppendHistory(msg)
	} else {
		err = conv.AppendMessage(msg)
	}
	if err != nil {
		logger.Warn("message_append_failed", "conversation", convID, "error", err)
		return
	}
	telemetry.MessagesAppended.WithLabelValues(string(msgKind)).Inc()

	if !replayed && kind == models.KindThread && d.persist != nil {
		if _, perr := d.persist.AppendMessage(convID, msg); perr != nil {
			logger.Error("persist_append_failed", "thread", convID, "error", perr)
		} else if conv.Focused() {
			// the viewer is looking at the thread, so the in-memory counter
			// stayed at zero; keep the persisted counter in step
			if viewer := conv.Viewer(); viewer != "" {
				if merr := d.persist.MarkRead(convID, viewer); merr != nil {
					logger.Error("persist_mark_read_failed", "thread", convID, "error", merr)
				}
			}
		}
	}
	d.bus.Publish(notify.MessageReceived{Conversation: convID, Message: msg, Replayed: replayed})
}

func (d *Dispatcher) inboundSubject(env models.Envelope, convID string) {
	conv, _, err := d.reg.GetOrCreate(convID, models.KindRoom)
	if err != nil {
		logger.Warn("subject_kind_mismatch", "conversation", convID, "error", err)
		return
	}
	prev := conv.SetSubject(env.Subject)
	// record the change in history without touching unread counters
	_ = conv.AppendHistory(models.Message{
		Conversation: convID,
		Sender:       env.From,
		Subject:      env.Subject,
		Kind:         models.MessageSubject,
	})
	d.bus.Publish(notify.SubjectChanged{
		Conversation: convID,
		Subject:      env.Subject,
		Previous:     prev,
		Actor:        env.From,
	})
}

func (d *Dispatcher) inboundIQ(env models.Envelope) {
	switch env.Namespace {
	case models.IQPrivacy:
		if env.Type == models.IQError {
			logger.Warn("privacy_list_error", "from", env.From)
			return
		}
		logger.Debug("privacy_list_synced", "entries", len(env.PrivacyList))
	case models.IQDisco:
		logger.Debug("disco_info", "from", env.From)
	default:
		logger.Debug("iq_ignored", "namespace", env.Namespace, "from", env.From)
	}
}
