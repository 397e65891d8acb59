package cli

import (
	"time"

	"github.com/nkalandia/chatlink/internal/domain"
)

// Mode represents the CLI operation mode
type Mode string

const (
	ModeInteractive Mode = "interactive"
	ModeHeadless    Mode = "headless"
)

// Request represents a JSON request in headless mode
type Request struct {
	ID      string                 `json:"id,omitempty"`
	Command string                 `json:"command"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// Response represents a JSON response in headless mode
type Response struct {
	ID      string      `json:"id,omitempty"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Event represents a real-time event in headless mode
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// MessageInfo represents message information for responses
type MessageInfo struct {
	ID        string            `json:"id"`
	RoomID    string            `json:"room_id"`
	Sender    string            `json:"sender"`
	Body      string            `json:"body"`
	Timestamp int64             `json:"timestamp"`
	Seen      bool              `json:"seen"`
	Reactions []domain.Reaction `json:"reactions,omitempty"`
}

// FriendInfo represents one relationship entry for responses
type FriendInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ConnectionStatus represents connection status for responses
type ConnectionStatus struct {
	Connected bool   `json:"connected"`
	LoggedIn  bool   `json:"logged_in"`
	Username  string `json:"username,omitempty"`
	Status    string `json:"status"`
}

func messageToInfo(msg *domain.Message) MessageInfo {
	return MessageInfo{
		ID:        msg.ID,
		RoomID:    msg.RoomID,
		Sender:    msg.Sender,
		Body:      msg.Body,
		Timestamp: msg.Timestamp,
		Seen:      msg.Seen,
		Reactions: msg.Reactions,
	}
}

func friendsToInfo(friends []domain.Friend) []FriendInfo {
	out := make([]FriendInfo, len(friends))
	for i, f := range friends {
		out[i] = FriendInfo{ID: f.ID, Username: f.Username}
	}
	return out
}
