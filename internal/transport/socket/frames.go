package socket

import (
	"encoding/json"

	"github.com/nkalandia/chatlink/internal/domain"
)

// Wire event names, shared with the chat server.
const (
	wireChatMessage    = "chat message"
	wireOnlineUsers    = "online users"
	wireJoinRoom       = "join room"
	wireTyping         = "typing"
	wireUserTyping     = "user_typing"
	wireMessagesRead   = "messages_read"
	wireMessagesSeen   = "messages_seen_update"
	wireReaction       = "message_reaction"
	wireReactionUpdate = "message_reaction_update"
	wireFriendRequest  = "friend_request"
	wireFriendAccepted = "friend_accepted"
)

// frame is the envelope for every websocket message in both directions.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type chatMessagePayload struct {
	RoomID string `json:"roomId"`
	Body   string `json:"msg"`
	To     string `json:"to,omitempty"`
}

type typingPayload struct {
	RoomID   string `json:"roomId"`
	IsTyping bool   `json:"isTyping"`
	Sender   string `json:"sender"`
	To       string `json:"to,omitempty"`
}

type messagesReadPayload struct {
	RoomID string `json:"roomId"`
	Reader string `json:"reader"`
}

type reactionPayload struct {
	MessageID string `json:"messageId"`
	RoomID    string `json:"roomId"`
	Emoji     string `json:"emoji"`
	User      string `json:"user"`
}

type reactionUpdatePayload struct {
	MessageID string            `json:"messageId"`
	Reactions []domain.Reaction `json:"reactions"`
}

type seenUpdatePayload struct {
	RoomID string `json:"roomId"`
}

// Typed events delivered to registered handlers.

type ChatMessageEvent struct {
	Message *domain.Message
}

type OnlineUsersEvent struct {
	Users []string
}

type TypingEvent struct {
	RoomID   string
	IsTyping bool
	Sender   string
}

type ReactionUpdateEvent struct {
	MessageID string
	Reactions []domain.Reaction
}

type SeenUpdateEvent struct {
	RoomID string
}

type FriendRequestEvent struct{}

type FriendAcceptedEvent struct{}

type ConnectedEvent struct{}

type DisconnectedEvent struct {
	Reason string
}
