package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"parley/pkg/conversation"
	"parley/pkg/logger"
	"parley/pkg/models"
	"parley/pkg/notify"
	"parley/pkg/telemetry"
	"parley/pkg/validation"
)

// SendMessage validates and sends one message. Room chat is NOT locally
// echoed (the server echoes it back); private thread chat IS echoed and
// persisted immediately (the server does not echo 1:1 chat). The asymmetry
// compensates for the transport's behavior and must hold exactly.
func (d *Dispatcher) SendMessage(ctx context.Context, to string, kind models.MessageKind, body string) (models.Message, error) {
	body = strings.TrimSpace(body)
	if err := validation.Body(body); err != nil {
		if errors.Is(err, validation.ErrBodyRequired) {
			return models.Message{}, ErrEmptyBody
		}
		return models.Message{}, err
	}
	convID := models.Bare(to)
	if kind == models.MessageChat && d.privacy.IsIgnored(convID) {
		telemetry.BlockedSends.Inc()
		return models.Message{}, ErrBlocked
	}
	if !d.connected() {
		return models.Message{}, ErrNotConnected
	}
	if !d.limiter.Allow() {
		return models.Message{}, ErrRateLimited
	}

	msg := models.Message{
		ID:           uuid.NewString(),
		Conversation: convID,
		Sender:       d.self.Address,
		Body:         body,
		TS:           time.Now().UTC().UnixNano(),
		Kind:         kind,
	}
	env := models.Envelope{
		From: d.self.Address,
		To:   to,
		Kind: models.EnvelopeMessage,
		Type: string(kind),
		Body: body,
	}
	if err := d.tr.Send(ctx, env); err != nil {
		return models.Message{}, fmt.Errorf("send message: %w", err)
	}
	telemetry.OutboundSends.WithLabelValues("message").Inc()

	if kind != models.MessageChat {
		// groupchat comes back from the server; appending here would
		// double it
		return msg, nil
	}

	conv, _, err := d.reg.GetOrCreate(convID, models.KindThread)
	if err != nil {
		return msg, err
	}
	conv.BindViewer(d.self.Address)
	conv.EnsureRecipient(d.self)
	conv.EnsureRecipient(models.Identity{Address: convID})
	if err := conv.AppendMessage(msg); err != nil {
		return msg, err
	}
	telemetry.MessagesAppended.WithLabelValues(string(kind)).Inc()
	d.bus.Publish(notify.MessageReceived{Conversation: convID, Message: msg})
	if d.persist != nil {
		if _, perr := d.persist.AppendMessage(convID, msg); perr != nil {
			// the in-memory echo stands; retry policy belongs to the caller
			return msg, fmt.Errorf("persist message: %w", perr)
		}
	}
	return msg, nil
}

// JoinRoom opens the room locally and announces the viewer to it. The
// roster fills from the presence the server sends back.
func (d *Dispatcher) JoinRoom(ctx context.Context, roomID string) error {
	if !d.connected() {
		return ErrNotConnected
	}
	if _, _, err := d.reg.GetOrCreate(roomID, models.KindRoom); err != nil {
		return err
	}
	// disco precedes the join, mirroring the disco+join sequencing of the
	// underlying protocol
	disco := models.Envelope{
		From:      d.self.Address,
		To:        roomID,
		Kind:      models.EnvelopeIQ,
		Type:      "get",
		Namespace: models.IQDisco,
	}
	if err := d.tr.Send(ctx, disco); err != nil {
		return fmt.Errorf("join disco: %w", err)
	}
	join := models.Envelope{
		From: d.self.Address,
		To:   roomID + "/" + d.nick,
		Kind: models.EnvelopePresence,
		Nick: d.nick,
	}
	if err := d.tr.Send(ctx, join); err != nil {
		return fmt.Errorf("join presence: %w", err)
	}
	telemetry.OutboundSends.WithLabelValues("join").Inc()
	return nil
}

// LeaveRoom announces the departure and tears the room down locally.
func (d *Dispatcher) LeaveRoom(ctx context.Context, roomID string) error {
	conv, ok := d.reg.Get(roomID)
	if !ok {
		return ErrUnknownConversation
	}
	env := models.Envelope{
		From: d.self.Address,
		To:   roomID + "/" + d.nick,
		Kind: models.EnvelopePresence,
		Type: models.PresenceUnavailable,
	}
	if err := d.tr.Send(ctx, env); err != nil {
		return fmt.Errorf("leave presence: %w", err)
	}
	telemetry.OutboundSends.WithLabelValues("leave").Inc()
	self := conv.Viewer()
	if self == "" {
		self = roomID + "/" + d.nick
	}
	d.machine.Apply(models.PresenceEvent{
		Conversation: roomID,
		Actor:        models.Identity{Address: self},
		Action:       models.ActionLeave,
	})
	return nil
}

// Kick removes target from the room. The viewer must hold moderator
// authority in that room.
func (d *Dispatcher) Kick(ctx context.Context, roomID, targetNick, reason string) error {
	if err := d.requireModerator(roomID); err != nil {
		return err
	}
	env := models.Envelope{
		From:   d.self.Address,
		To:     roomID,
		Kind:   models.EnvelopeIQ,
		Type:   models.IQSet,
		Nick:   targetNick,
		Role:   models.RoleNone,
		Reason: reason,
	}
	if err := d.tr.Send(ctx, env); err != nil {
		return fmt.Errorf("kick: %w", err)
	}
	telemetry.OutboundSends.WithLabelValues("kick").Inc()
	return nil
}

// Ban outcasts target from the room. The viewer must hold moderator
// authority in that room.
func (d *Dispatcher) Ban(ctx context.Context, roomID, targetNick, reason string) error {
	if err := d.requireModerator(roomID); err != nil {
		return err
	}
	env := models.Envelope{
		From:        d.self.Address,
		To:          roomID,
		Kind:        models.EnvelopeIQ,
		Type:        models.IQSet,
		Nick:        targetNick,
		Affiliation: models.AffiliationOutcast,
		Reason:      reason,
	}
	if err := d.tr.Send(ctx, env); err != nil {
		return fmt.Errorf("ban: %w", err)
	}
	telemetry.OutboundSends.WithLabelValues("ban").Inc()
	return nil
}

// SetSubject proposes a new room subject; the change lands when the server
// echoes it back as a subject message.
func (d *Dispatcher) SetSubject(ctx context.Context, roomID, subject string) error {
	if err := d.requireModerator(roomID); err != nil {
		return err
	}
	env := models.Envelope{
		From:    d.self.Address,
		To:      roomID,
		Kind:    models.EnvelopeMessage,
		Type:    string(models.MessageGroupchat),
		Subject: subject,
	}
	if err := d.tr.Send(ctx, env); err != nil {
		return fmt.Errorf("set subject: %w", err)
	}
	telemetry.OutboundSends.WithLabelValues("subject").Inc()
	return nil
}

func (d *Dispatcher) requireModerator(roomID string) error {
	conv, ok := d.reg.Get(roomID)
	if !ok {
		return ErrUnknownConversation
	}
	viewer := conv.Viewer()
	if viewer == "" {
		return ErrUnauthorized
	}
	id, ok := conv.Roster().Get(viewer)
	if !ok || !id.CanModerate() {
		return ErrUnauthorized
	}
	return nil
}

// Ignore adds address to the viewer's privacy list and resyncs the full
// list toward the transport. Every resync carries the complete list;
// the transport never sees increments.
func (d *Dispatcher) Ignore(ctx context.Context, address string) error {
	d.privacy.Ignore(models.Bare(address))
	return d.resyncPrivacy(ctx)
}

// Unignore removes address from the viewer's privacy list and resyncs.
func (d *Dispatcher) Unignore(ctx context.Context, address string) error {
	d.privacy.Unignore(models.Bare(address))
	return d.resyncPrivacy(ctx)
}

func (d *Dispatcher) resyncPrivacy(ctx context.Context) error {
	env := models.Envelope{
		From:        d.self.Address,
		Kind:        models.EnvelopeIQ,
		Type:        models.IQSet,
		Namespace:   models.IQPrivacy,
		PrivacyList: d.privacy.Addresses(),
	}
	if err := d.tr.Send(ctx, env); err != nil {
		return fmt.Errorf("privacy resync: %w", err)
	}
	telemetry.OutboundSends.WithLabelValues("privacy").Inc()
	return nil
}

// OpenThread opens (or hydrates from persistence) the private thread with
// peer. Opening a thread with an ignored address is refused.
func (d *Dispatcher) OpenThread(peer models.Identity) (*conversation.Conversation, error) {
	if d.privacy.IsIgnored(models.Bare(peer.Address)) {
		telemetry.BlockedSends.Inc()
		return nil, ErrBlocked
	}
	id := models.Bare(peer.Address)
	if d.persist != nil {
		if snap, err := d.persist.LoadThread(id); err == nil {
			conv, herr := d.reg.Hydrate(snap)
			if herr == nil {
				conv.BindViewer(d.self.Address)
				conv.EnsureRecipient(d.self)
				conv.EnsureRecipient(peer)
				return conv, nil
			}
			logger.Warn("thread_hydrate_failed", "thread", id, "error", herr)
		}
	}
	conv, _, err := d.reg.GetOrCreate(id, models.KindThread)
	if err != nil {
		return nil, err
	}
	conv.BindViewer(d.self.Address)
	conv.EnsureRecipient(d.self)
	conv.EnsureRecipient(peer)
	return conv, nil
}

// MarkRead zeroes recipient's unread counter and records it in
// persistence for threads.
func (d *Dispatcher) MarkRead(convID, recipient string) error {
	conv, ok := d.reg.Get(convID)
	if !ok {
		return ErrUnknownConversation
	}
	conv.MarkRead(recipient)
	if conv.Kind() == models.KindThread && d.persist != nil {
		if err := d.persist.MarkRead(convID, recipient); err != nil {
			return fmt.Errorf("persist mark read: %w", err)
		}
	}
	return nil
}

// DeleteThread closes the thread locally and delegates deletion to
// persistence; the caller owns retry policy on failure.
func (d *Dispatcher) DeleteThread(id string) error {
	if conv, ok := d.reg.Get(id); ok && conv.Kind() != models.KindThread {
		return fmt.Errorf("%w: %s is not a thread", conversation.ErrKindMismatch, id)
	}
	d.reg.Close(id)
	if d.persist != nil {
		if err := d.persist.DeleteThread(id); err != nil {
			return fmt.Errorf("delete thread: %w", err)
		}
	}
	return nil
}

// Focus marks convID as the conversation the viewer is looking at and
// clears its unread state ("mark read on view").
func (d *Dispatcher) Focus(convID string) error {
	conv, ok := d.reg.Get(convID)
	if !ok {
		return ErrUnknownConversation
	}
	conv.Focus()
	if conv.Kind() == models.KindThread && d.persist != nil {
		if err := d.persist.MarkRead(convID, d.self.Address); err != nil {
			return fmt.Errorf("persist mark read: %w", err)
		}
	}
	return nil
}

// Blur clears the focus flag.
func (d *Dispatcher) Blur(convID string) {
	if conv, ok := d.reg.Get(convID); ok {
		conv.Blur()
	}
}
