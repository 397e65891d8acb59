// Package store owns all mutable chat state. Every mutation goes through a
// named action method; readers get copies, never aliases of internal state.
package store

import (
	"sync"

	"github.com/nkalandia/chatlink/internal/domain"
)

// Chat is the single-writer state container for the synchronization core:
// per-room message logs, unread counters, presence, typing flags, the friend
// lists and the active-room pointer.
type Chat struct {
	mu sync.RWMutex

	messagesByRoom map[string][]*domain.Message
	unreadCounts   map[string]int
	onlineUsers    []string
	currentRoom    string
	loadingHistory map[string]bool
	typingStatus   map[string]bool
	friends        domain.FriendList
}

func NewChat() *Chat {
	return &Chat{
		messagesByRoom: make(map[string][]*domain.Message),
		unreadCounts:   make(map[string]int),
		loadingHistory: make(map[string]bool),
		typingStatus:   make(map[string]bool),
	}
}

// Reset drops all state, for logout.
func (c *Chat) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messagesByRoom = make(map[string][]*domain.Message)
	c.unreadCounts = make(map[string]int)
	c.onlineUsers = nil
	c.currentRoom = ""
	c.loadingHistory = make(map[string]bool)
	c.typingStatus = make(map[string]bool)
	c.friends = domain.FriendList{}
}

// AddMessage appends a message to its room's log in arrival order, lazily
// creating the log. Appends are unconditional; the log never reorders.
func (c *Chat) AddMessage(msg *domain.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messagesByRoom[msg.RoomID] = append(c.messagesByRoom[msg.RoomID], msg)
}

// UpdateMessageReactions replaces the reaction list of the message with the
// given id. The id is globally unique, so at most one message changes.
// Returns false when no loaded log contains the message.
func (c *Chat) UpdateMessageReactions(messageID string, reactions []domain.Reaction) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, log := range c.messagesByRoom {
		for _, msg := range log {
			if msg.ID == messageID {
				msg.Reactions = append([]domain.Reaction(nil), reactions...)
				return true
			}
		}
	}
	return false
}

// MarkRoomSeen marks every message currently in the room's log as seen.
// Idempotent; a room with no log is a no-op.
func (c *Chat) MarkRoomSeen(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, msg := range c.messagesByRoom[roomID] {
		msg.Seen = true
	}
}

// Messages returns a snapshot copy of a room's log, nil if none exists.
func (c *Chat) Messages(roomID string) []*domain.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	log, ok := c.messagesByRoom[roomID]
	if !ok {
		return nil
	}
	out := make([]*domain.Message, len(log))
	for i, msg := range log {
		m := *msg
		m.Reactions = append([]domain.Reaction(nil), msg.Reactions...)
		out[i] = &m
	}
	return out
}

// HasLog reports whether a log exists for the room (even an empty one).
func (c *Chat) HasLog(roomID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.messagesByRoom[roomID]
	return ok
}

// BeginHistoryLoad marks the room as loading and reports whether a history
// fetch should be issued. Returns false when a log already exists or a fetch
// is already in flight, so concurrent callers never duplicate requests.
func (c *Chat) BeginHistoryLoad(roomID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.messagesByRoom[roomID]; ok {
		return false
	}
	if c.loadingHistory[roomID] {
		return false
	}
	c.loadingHistory[roomID] = true
	return true
}

// FinishHistoryLoad clears the loading flag and, on success, installs the
// fetched log. On failure the log stays absent so a later open retries.
func (c *Chat) FinishHistoryLoad(roomID string, msgs []*domain.Message, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.loadingHistory, roomID)
	if ok {
		log := make([]*domain.Message, len(msgs))
		copy(log, msgs)
		c.messagesByRoom[roomID] = log
	}
}

// LoadingHistory reports whether a history fetch is in flight for the room.
func (c *Chat) LoadingHistory(roomID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.loadingHistory[roomID]
}

// SetOnlineUsers replaces the presence set wholesale. The caller filters out
// the local user before handing the snapshot over.
func (c *Chat) SetOnlineUsers(users []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onlineUsers = append([]string(nil), users...)
}

func (c *Chat) OnlineUsers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]string(nil), c.onlineUsers...)
}

func (c *Chat) SetCurrentRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.currentRoom = roomID
}

func (c *Chat) CurrentRoom() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.currentRoom
}

func (c *Chat) SetTyping(roomID string, isTyping bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.typingStatus[roomID] = isTyping
}

func (c *Chat) Typing(roomID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.typingStatus[roomID]
}

// IncrementUnread bumps the room's unread counter and returns the new count.
func (c *Chat) IncrementUnread(roomID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.unreadCounts[roomID]++
	return c.unreadCounts[roomID]
}

// ClearUnread resets a room's unread counter. Clearing an absent counter is
// a no-op; counts never go negative.
func (c *Chat) ClearUnread(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.unreadCounts, roomID)
}

func (c *Chat) UnreadCount(roomID string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.unreadCounts[roomID]
}

// UnreadCounts returns a snapshot of every non-zero unread counter.
func (c *Chat) UnreadCounts() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]int, len(c.unreadCounts))
	for room, n := range c.unreadCounts {
		out[room] = n
	}
	return out
}

// SetFriends replaces both relationship lists wholesale.
func (c *Chat) SetFriends(list domain.FriendList) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.friends = domain.FriendList{
		Friends:         append([]domain.Friend(nil), list.Friends...),
		PendingRequests: append([]domain.Friend(nil), list.PendingRequests...),
	}
}

// RemovePendingRequest drops a pending request by id, the optimistic local
// mutation after a successful decline.
func (c *Chat) RemovePendingRequest(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pending := c.friends.PendingRequests[:0]
	for _, req := range c.friends.PendingRequests {
		if req.ID != id {
			pending = append(pending, req)
		}
	}
	c.friends.PendingRequests = pending
}

func (c *Chat) Friends() domain.FriendList {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return domain.FriendList{
		Friends:         append([]domain.Friend(nil), c.friends.Friends...),
		PendingRequests: append([]domain.Friend(nil), c.friends.PendingRequests...),
	}
}
