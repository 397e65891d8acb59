package socket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/nkalandia/chatlink/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024

	sendBufferSize = 256
)

var (
	ErrNoToken      = errors.New("socket: no credential, connection refused")
	ErrNotConnected = errors.New("socket: not connected")
)

// EventHandler receives decoded inbound events. Handlers run on the read
// pump goroutine, so events are delivered one at a time in arrival order.
type EventHandler = func(evt interface{})

// Client is the bidirectional event channel to the chat server. It owns the
// only live connection handle; reconnecting tears down the previous
// connection before dialing again.
type Client struct {
	url string
	log zerolog.Logger

	handlersMu sync.RWMutex
	handlers   []EventHandler

	mu   sync.Mutex
	conn *wsConn
}

// wsConn bundles the per-connection state so a reconnect can never cross
// wires with a stale pump.
type wsConn struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (w *wsConn) close() {
	w.closeOnce.Do(func() {
		close(w.done)
		w.conn.Close()
	})
}

func NewClient(url string, log zerolog.Logger) *Client {
	return &Client{
		url: url,
		log: log,
	}
}

// AddEventHandler registers a handler for all inbound events.
func (c *Client) AddEventHandler(handler EventHandler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.handlers = append(c.handlers, handler)
}

// Connect dials the server, authenticating with the session token. An
// already-open connection is torn down first so the client never holds two
// authenticated sessions at once.
func (c *Client) Connect(ctx context.Context, token, clientID string) error {
	if token == "" {
		c.log.Warn().Msg("no token found, connection refused")
		return ErrNoToken
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.close()
		c.conn = nil
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	if clientID != "" {
		header.Set("X-Client-ID", clientID)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, header)
	if err != nil {
		return err
	}

	ws := &wsConn{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
	c.conn = ws

	go c.readPump(ws)
	go c.writePump(ws)

	c.log.Info().Str("url", c.url).Msg("connected")
	c.dispatch(ConnectedEvent{})
	return nil
}

// Disconnect closes the current connection, if any. Idempotent.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.close()
		c.conn = nil
	}
}

// IsConnected reports whether a connection is currently open.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return false
	}
	select {
	case <-c.conn.done:
		return false
	default:
		return true
	}
}

// readPump decodes inbound frames and hands typed events to the handlers.
// It runs in its own goroutine per connection.
func (c *Client) readPump(ws *wsConn) {
	defer func() {
		ws.close()
		c.dispatch(DisconnectedEvent{Reason: "connection closed"})
	}()

	ws.conn.SetReadLimit(maxMessageSize)
	ws.conn.SetReadDeadline(time.Now().Add(pongWait))
	ws.conn.SetPongHandler(func(string) error {
		ws.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := ws.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("read error")
			}
			return
		}

		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			c.log.Debug().Err(err).Msg("dropping malformed frame")
			continue
		}

		evt, err := decodeEvent(f)
		if err != nil {
			c.log.Debug().Err(err).Str("event", f.Event).Msg("dropping frame payload")
			continue
		}
		if evt == nil {
			c.log.Debug().Str("event", f.Event).Msg("dropping unknown frame")
			continue
		}

		c.dispatch(evt)
	}
}

// writePump owns all writes to the connection, including keepalive pings.
// It runs in its own goroutine per connection.
func (c *Client) writePump(ws *wsConn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.close()
	}()

	for {
		select {
		case <-ws.done:
			return

		case msg := <-ws.send:
			ws.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			ws.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func decodeEvent(f frame) (interface{}, error) {
	switch f.Event {
	case wireChatMessage:
		var msg domain.Message
		if err := json.Unmarshal(f.Data, &msg); err != nil {
			return nil, err
		}
		return ChatMessageEvent{Message: &msg}, nil

	case wireOnlineUsers:
		var users []string
		if err := json.Unmarshal(f.Data, &users); err != nil {
			return nil, err
		}
		return OnlineUsersEvent{Users: users}, nil

	case wireUserTyping:
		var p typingPayload
		if err := json.Unmarshal(f.Data, &p); err != nil {
			return nil, err
		}
		return TypingEvent{RoomID: p.RoomID, IsTyping: p.IsTyping, Sender: p.Sender}, nil

	case wireReactionUpdate:
		var p reactionUpdatePayload
		if err := json.Unmarshal(f.Data, &p); err != nil {
			return nil, err
		}
		return ReactionUpdateEvent{MessageID: p.MessageID, Reactions: p.Reactions}, nil

	case wireMessagesSeen:
		var p seenUpdatePayload
		if err := json.Unmarshal(f.Data, &p); err != nil {
			return nil, err
		}
		return SeenUpdateEvent{RoomID: p.RoomID}, nil

	case wireFriendRequest:
		return FriendRequestEvent{}, nil

	case wireFriendAccepted:
		return FriendAcceptedEvent{}, nil
	}

	return nil, nil
}

func (c *Client) dispatch(evt interface{}) {
	c.handlersMu.RLock()
	handlers := c.handlers
	c.handlersMu.RUnlock()

	for _, h := range handlers {
		h(evt)
	}
}

// emit marshals a frame and queues it on the current connection.
func (c *Client) emit(event string, data interface{}) error {
	f := frame{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		f.Data = raw
	}

	msg, err := json.Marshal(f)
	if err != nil {
		return err
	}

	c.mu.Lock()
	ws := c.conn
	c.mu.Unlock()

	if ws == nil {
		return ErrNotConnected
	}

	select {
	case ws.send <- msg:
		return nil
	case <-ws.done:
		return ErrNotConnected
	}
}

// SendChatMessage emits a chat message to the room's other participant.
func (c *Client) SendChatMessage(roomID, body, to string) error {
	return c.emit(wireChatMessage, chatMessagePayload{RoomID: roomID, Body: body, To: to})
}

// JoinRoom subscribes this connection to a room's events. The payload is the
// bare room id, as the server expects.
func (c *Client) JoinRoom(roomID string) error {
	return c.emit(wireJoinRoom, roomID)
}

// SendTyping emits the local user's typing state for a room.
func (c *Client) SendTyping(roomID string, isTyping bool, sender, to string) error {
	return c.emit(wireTyping, typingPayload{RoomID: roomID, IsTyping: isTyping, Sender: sender, To: to})
}

// SendReadSignal tells the server every message in the room has been viewed.
func (c *Client) SendReadSignal(roomID, reader string) error {
	return c.emit(wireMessagesRead, messagesReadPayload{RoomID: roomID, Reader: reader})
}

// SendReaction emits an emoji reaction to a single message.
func (c *Client) SendReaction(messageID, roomID, emoji, user string) error {
	return c.emit(wireReaction, reactionPayload{MessageID: messageID, RoomID: roomID, Emoji: emoji, User: user})
}
