package models

// Role is a participant's live role inside a room.
type Role string

const (
	RoleNone        Role = "none"
	RoleParticipant Role = "participant"
	RoleModerator   Role = "moderator"
)

// Affiliation is a participant's persistent standing with a room.
type Affiliation string

const (
	AffiliationNone    Affiliation = "none"
	AffiliationMember  Affiliation = "member"
	AffiliationOwner   Affiliation = "owner"
	AffiliationOutcast Affiliation = "outcast"
)

// Identity describes one participant as last seen on the wire. Identities
// are built on first presence/message sighting and discarded with their
// roster entry; there is no identity store in the engine.
type Identity struct {
	Address     string            `json:"address"`
	DisplayName string            `json:"display_name,omitempty"`
	Role        Role              `json:"role,omitempty"`
	Affiliation Affiliation       `json:"affiliation,omitempty"`
	CustomData  map[string]string `json:"custom_data,omitempty"`
}

// CanModerate reports whether this identity carries kick/ban/subject
// authority (moderator role or owner affiliation).
func (i Identity) CanModerate() bool {
	return i.Role == RoleModerator || i.Affiliation == AffiliationOwner
}
