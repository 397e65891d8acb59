package domain

// Reaction is one user's emoji reaction to one message. The server owns the
// aggregate reaction state; clients replace the full list per update and
// never merge deltas locally.
type Reaction struct {
	User  string `json:"user"`
	Emoji string `json:"emoji"`
}

// Message is one chat message. ID is server-assigned and is the only valid
// identity for dedup and updates; Timestamp is advisory only, arrival order
// is authoritative for ordering.
type Message struct {
	ID        string     `json:"_id"`
	RoomID    string     `json:"roomId"`
	Sender    string     `json:"sender"`
	Body      string     `json:"msg"`
	Timestamp int64      `json:"timestamp"`
	Seen      bool       `json:"seen,omitempty"`
	Reactions []Reaction `json:"reactions,omitempty"`
}
