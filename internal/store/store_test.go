package store

import (
	"fmt"
	"testing"

	"github.com/nkalandia/chatlink/internal/domain"
)

func TestAddMessageAppendsInCallOrder(t *testing.T) {
	c := NewChat()

	for i := 0; i < 5; i++ {
		// Timestamps deliberately run backwards; arrival order wins.
		c.AddMessage(&domain.Message{
			ID:        fmt.Sprintf("m%d", i),
			RoomID:    "alice_bob",
			Sender:    "bob",
			Timestamp: int64(100 - i),
		})
	}

	msgs := c.Messages("alice_bob")
	if len(msgs) != 5 {
		t.Fatalf("log length = %d, want 5", len(msgs))
	}
	for i, msg := range msgs {
		if want := fmt.Sprintf("m%d", i); msg.ID != want {
			t.Errorf("msgs[%d].ID = %q, want %q", i, msg.ID, want)
		}
	}
}

func TestAddMessageCreatesLogLazily(t *testing.T) {
	c := NewChat()

	if c.HasLog("alice_bob") {
		t.Fatal("log should not exist before first message")
	}
	c.AddMessage(&domain.Message{ID: "m1", RoomID: "alice_bob"})
	if !c.HasLog("alice_bob") {
		t.Fatal("log should exist after first message")
	}
}

func TestUpdateMessageReactionsFullReplace(t *testing.T) {
	c := NewChat()
	c.AddMessage(&domain.Message{
		ID:        "m1",
		RoomID:    "alice_bob",
		Reactions: []domain.Reaction{{User: "u1", Emoji: "👍"}},
	})

	updated := []domain.Reaction{
		{User: "u1", Emoji: "👍"},
		{User: "u2", Emoji: "❤️"},
	}
	if !c.UpdateMessageReactions("m1", updated) {
		t.Fatal("expected a match for m1")
	}

	got := c.Messages("alice_bob")[0].Reactions
	if len(got) != 2 {
		t.Fatalf("reactions length = %d, want 2 (replace, not union)", len(got))
	}
	if got[0] != updated[0] || got[1] != updated[1] {
		t.Errorf("reactions = %v, want %v", got, updated)
	}
}

func TestUpdateMessageReactionsUnknownID(t *testing.T) {
	c := NewChat()
	c.AddMessage(&domain.Message{ID: "m1", RoomID: "alice_bob"})

	if c.UpdateMessageReactions("missing", []domain.Reaction{{User: "u1", Emoji: "👍"}}) {
		t.Error("update for an unknown id must report no match")
	}
	if len(c.Messages("alice_bob")[0].Reactions) != 0 {
		t.Error("unmatched update must not touch other messages")
	}
}

func TestMarkRoomSeen(t *testing.T) {
	c := NewChat()
	c.AddMessage(&domain.Message{ID: "m1", RoomID: "alice_bob"})
	c.AddMessage(&domain.Message{ID: "m2", RoomID: "alice_bob"})
	c.AddMessage(&domain.Message{ID: "m3", RoomID: "alice_carol"})

	c.MarkRoomSeen("alice_bob")
	c.MarkRoomSeen("alice_bob") // idempotent

	for _, msg := range c.Messages("alice_bob") {
		if !msg.Seen {
			t.Errorf("message %s not marked seen", msg.ID)
		}
	}
	if c.Messages("alice_carol")[0].Seen {
		t.Error("other rooms must not be affected")
	}
}

func TestUnreadAccounting(t *testing.T) {
	c := NewChat()

	if n := c.UnreadCount("alice_bob"); n != 0 {
		t.Fatalf("initial unread = %d, want 0", n)
	}

	c.IncrementUnread("alice_bob")
	c.IncrementUnread("alice_bob")
	if n := c.UnreadCount("alice_bob"); n != 2 {
		t.Fatalf("unread = %d, want 2", n)
	}

	c.ClearUnread("alice_bob")
	if n := c.UnreadCount("alice_bob"); n != 0 {
		t.Fatalf("unread after clear = %d, want 0", n)
	}

	// Clearing an absent counter is a no-op, never negative.
	c.ClearUnread("alice_bob")
	if n := c.UnreadCount("alice_bob"); n != 0 {
		t.Fatalf("unread after double clear = %d, want 0", n)
	}

	counts := c.UnreadCounts()
	if len(counts) != 0 {
		t.Errorf("cleared counters must not appear in snapshot: %v", counts)
	}
}

func TestBeginHistoryLoadGuards(t *testing.T) {
	c := NewChat()

	if !c.BeginHistoryLoad("alice_bob") {
		t.Fatal("first call should issue a fetch")
	}
	if c.BeginHistoryLoad("alice_bob") {
		t.Fatal("second call while loading must be suppressed")
	}

	c.FinishHistoryLoad("alice_bob", []*domain.Message{{ID: "m1", RoomID: "alice_bob"}}, true)

	if c.LoadingHistory("alice_bob") {
		t.Error("loading flag must clear on finish")
	}
	if c.BeginHistoryLoad("alice_bob") {
		t.Error("a room with a log must never fetch again")
	}
	if got := len(c.Messages("alice_bob")); got != 1 {
		t.Errorf("log length = %d, want 1", got)
	}
}

func TestFinishHistoryLoadFailureLeavesLogAbsent(t *testing.T) {
	c := NewChat()

	c.BeginHistoryLoad("alice_bob")
	c.FinishHistoryLoad("alice_bob", nil, false)

	if c.HasLog("alice_bob") {
		t.Error("failed fetch must leave the log absent")
	}
	if !c.BeginHistoryLoad("alice_bob") {
		t.Error("failed fetch must be retryable")
	}
}

func TestSetOnlineUsersReplacesWholesale(t *testing.T) {
	c := NewChat()

	c.SetOnlineUsers([]string{"bob", "carol"})
	c.SetOnlineUsers([]string{"dave"})

	got := c.OnlineUsers()
	if len(got) != 1 || got[0] != "dave" {
		t.Errorf("online users = %v, want [dave]", got)
	}
}

func TestRemovePendingRequest(t *testing.T) {
	c := NewChat()
	c.SetFriends(domain.FriendList{
		Friends: []domain.Friend{{ID: "f1", Username: "bob"}},
		PendingRequests: []domain.Friend{
			{ID: "r1", Username: "carol"},
			{ID: "r2", Username: "dave"},
		},
	})

	c.RemovePendingRequest("r1")

	list := c.Friends()
	if len(list.PendingRequests) != 1 || list.PendingRequests[0].ID != "r2" {
		t.Errorf("pending = %v, want only r2", list.PendingRequests)
	}
	if len(list.Friends) != 1 {
		t.Errorf("friends list must be untouched: %v", list.Friends)
	}
}

func TestMessagesReturnsCopies(t *testing.T) {
	c := NewChat()
	c.AddMessage(&domain.Message{ID: "m1", RoomID: "alice_bob", Body: "hi"})

	snapshot := c.Messages("alice_bob")
	snapshot[0].Body = "mutated"
	snapshot[0].Reactions = append(snapshot[0].Reactions, domain.Reaction{User: "x", Emoji: "y"})

	if got := c.Messages("alice_bob")[0]; got.Body != "hi" || len(got.Reactions) != 0 {
		t.Error("snapshot mutation leaked into the store")
	}
}

func TestReset(t *testing.T) {
	c := NewChat()
	c.AddMessage(&domain.Message{ID: "m1", RoomID: "alice_bob"})
	c.IncrementUnread("alice_bob")
	c.SetCurrentRoom("alice_bob")
	c.SetOnlineUsers([]string{"bob"})
	c.SetTyping("alice_bob", true)

	c.Reset()

	if c.HasLog("alice_bob") || c.UnreadCount("alice_bob") != 0 ||
		c.CurrentRoom() != "" || len(c.OnlineUsers()) != 0 || c.Typing("alice_bob") {
		t.Error("reset must drop all state")
	}
}
