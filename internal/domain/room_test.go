package domain

import "testing"

func TestRoomIDSymmetry(t *testing.T) {
	tests := []struct {
		a, b, want string
	}{
		{"alice", "bob", "alice_bob"},
		{"bob", "alice", "alice_bob"},
		{"zed", "amy", "amy_zed"},
		{"amy", "zed", "amy_zed"},
	}

	for _, tt := range tests {
		if got := RoomID(tt.a, tt.b); got != tt.want {
			t.Errorf("RoomID(%q, %q) = %q, want %q", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRoomIDDistinct(t *testing.T) {
	if RoomID("alice", "bob") == RoomID("alice", "carol") {
		t.Error("rooms with different participants must have different ids")
	}
}

func TestPeerOf(t *testing.T) {
	roomID := RoomID("alice", "bob")

	if got := PeerOf(roomID, "alice"); got != "bob" {
		t.Errorf("PeerOf(%q, alice) = %q, want bob", roomID, got)
	}
	if got := PeerOf(roomID, "bob"); got != "alice" {
		t.Errorf("PeerOf(%q, bob) = %q, want alice", roomID, got)
	}
}
