package models

// MessageKind classifies an entry in a conversation's history.
type MessageKind string

const (
	MessageChat      MessageKind = "chat"
	MessageGroupchat MessageKind = "groupchat"
	MessageSubject   MessageKind = "subject"
	MessageInfo      MessageKind = "info"
	MessageError     MessageKind = "error"
)

// Message is one immutable entry in a conversation history. TS is the
// dateSent timestamp in nanoseconds; histories are kept non-decreasing in TS.
type Message struct {
	ID           string      `json:"id"`
	Conversation string      `json:"conversation"`
	Sender       string      `json:"sender,omitempty"`
	Subject      string      `json:"subject,omitempty"`
	Body         string      `json:"body,omitempty"`
	TS           int64       `json:"ts"`
	Kind         MessageKind `json:"kind,omitempty"`
}

// ConversationKind distinguishes the two conversation shapes.
type ConversationKind string

const (
	KindRoom   ConversationKind = "room"
	KindThread ConversationKind = "thread"
)
