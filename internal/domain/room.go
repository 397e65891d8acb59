package domain

import "strings"

// RoomID derives the canonical identifier for a two-party conversation.
// The two usernames are sorted lexicographically and joined with "_", so
// RoomID(a, b) == RoomID(b, a). The same value is used as the wire-level
// room key, so the derivation must stay byte-identical on every call.
func RoomID(userA, userB string) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return userA + "_" + userB
}

// PeerOf returns the other participant of a room, given the local username.
func PeerOf(roomID, self string) string {
	for _, u := range strings.Split(roomID, "_") {
		if u != self {
			return u
		}
	}
	return ""
}
