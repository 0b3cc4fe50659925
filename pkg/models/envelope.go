package models

// EnvelopeKind is the coarse transport-level classification of an envelope.
type EnvelopeKind string

const (
	EnvelopePresence EnvelopeKind = "presence"
	EnvelopeMessage  EnvelopeKind = "message"
	EnvelopeIQ       EnvelopeKind = "iq"
)

// Status codes carried on presence envelopes. These are the two magic
// values the engine special-cases; they stay named here and never appear
// as bare literals inside state-machine logic.
const (
	StatusKicked = "307"
	StatusBanned = "301"
)

// Presence and message type values used on the wire.
const (
	PresenceUnavailable = "unavailable"
	IQSet               = "set"
	IQResult            = "result"
	IQError             = "error"
	IQPrivacy           = "privacy"
	IQDisco             = "disco"
)

// Envelope is one unit of transport communication, abstracted away from
// any concrete wire format. Unknown kinds are ignored by the dispatcher.
type Envelope struct {
	From string       `json:"from"`
	To   string       `json:"to,omitempty"`
	Kind EnvelopeKind `json:"kind"`
	// Type refines Kind: presence "unavailable", message "chat"/"groupchat",
	// iq "set"/"result"/"error".
	Type    string `json:"type,omitempty"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body,omitempty"`
	// StatusCode disambiguates kick (307) and ban (301) on unavailable
	// presence; empty otherwise.
	StatusCode string `json:"status_code,omitempty"`
	// Actor and Reason accompany kick/ban presence.
	Actor  string `json:"actor,omitempty"`
	Reason string `json:"reason,omitempty"`
	// Role/Affiliation/Nick describe the occupant a presence refers to.
	Role        Role        `json:"role,omitempty"`
	Affiliation Affiliation `json:"affiliation,omitempty"`
	Nick        string      `json:"nick,omitempty"`
	// DelayTS is set (ns) on replayed/offline messages.
	DelayTS int64 `json:"delay_ts,omitempty"`
	// Namespace refines iq envelopes (privacy, disco).
	Namespace string `json:"namespace,omitempty"`
	// PrivacyList carries the full ignore list on privacy resync envelopes;
	// resync is full-replace, never incremental.
	PrivacyList []string `json:"privacy_list,omitempty"`
}

// ConnState is the transport connection state.
type ConnState string

const (
	ConnConnecting   ConnState = "connecting"
	ConnConnected    ConnState = "connected"
	ConnDisconnected ConnState = "disconnected"
	ConnAuthFailed   ConnState = "authfailed"
)
