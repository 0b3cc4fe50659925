package dispatch

import "errors"

// Typed refusals surfaced to outbound callers. Malformed inbound traffic is
// never an error; it is dropped at the boundary.
var (
	// ErrBlocked: the intended recipient is on the viewer's ignore list.
	ErrBlocked = errors.New("recipient ignored")
	// ErrUnauthorized: the acting identity lacks moderator authority.
	ErrUnauthorized = errors.New("not authorized")
	// ErrNotConnected: the transport has no live connection.
	ErrNotConnected = errors.New("not connected")
	// ErrEmptyBody: the trimmed message body is empty.
	ErrEmptyBody = errors.New("empty message body")
	// ErrRateLimited: the per-session send limiter refused the send.
	ErrRateLimited = errors.New("send rate exceeded")
	// ErrUnknownConversation: the command names a conversation that is not open.
	ErrUnknownConversation = errors.New("unknown conversation")
)
