package models

import "strings"

// Bare strips the resource part of an address
// ("room@host/nick" -> "room@host").
func Bare(address string) string {
	if i := strings.Index(address, "/"); i >= 0 {
		return address[:i]
	}
	return address
}

// OccupantNick returns the resource part of an occupant address
// ("room@host/nick" -> "nick"); empty when the address is bare.
func OccupantNick(address string) string {
	if i := strings.LastIndex(address, "/"); i >= 0 {
		return address[i+1:]
	}
	return ""
}
