package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nkalandia/chatlink/internal/domain"
	"github.com/nkalandia/chatlink/internal/session"
	"github.com/nkalandia/chatlink/internal/store"
	"github.com/nkalandia/chatlink/internal/transport/rest"
	"github.com/nkalandia/chatlink/internal/transport/socket"
)

var (
	ErrNotAuthenticated = errors.New("service: not authenticated")
	ErrNoActiveRoom     = errors.New("service: no active room")
)

// Channel is the bidirectional event channel to the server.
type Channel interface {
	Connect(ctx context.Context, token, clientID string) error
	Disconnect()
	IsConnected() bool
	AddEventHandler(handler func(evt interface{}))
	SendChatMessage(roomID, body, to string) error
	JoinRoom(roomID string) error
	SendTyping(roomID string, isTyping bool, sender, to string) error
	SendReadSignal(roomID, reader string) error
	SendReaction(messageID, roomID, emoji, user string) error
}

// API is the request/response half of the remote channel.
type API interface {
	Login(ctx context.Context, username, password string) (*rest.Credentials, error)
	Register(ctx context.Context, username, password string) (*domain.ActionResult, error)
	FetchHistory(ctx context.Context, roomID string) ([]*domain.Message, error)
	FetchFriends(ctx context.Context) (*domain.FriendList, error)
	SendFriendRequest(ctx context.Context, toUsername string) (*domain.ActionResult, error)
	AcceptFriendRequest(ctx context.Context, fromUserID string) (*domain.ActionResult, error)
	DeclineFriendRequest(ctx context.Context, fromUserID string) (*domain.ActionResult, error)
}

type ChatServiceConfig struct {
	// TypingIdle is how long after the last keystroke the "stopped typing"
	// signal fires. Defaults to 1.5s.
	TypingIdle time.Duration
}

// ChatService is the synchronization core. It owns all reconciliation of
// server-pushed events and REST responses against the chat state, and is the
// only writer of that state.
type ChatService struct {
	identity *session.Holder
	sessions session.Store
	channel  Channel
	api      API
	state    *store.Chat
	eventBus domain.EventBus
	config   ChatServiceConfig
	log      zerolog.Logger

	typingMu     sync.Mutex
	typingTimer  *time.Timer
	typingActive bool
}

func NewChatService(
	identity *session.Holder,
	sessions session.Store,
	channel Channel,
	api API,
	state *store.Chat,
	eventBus domain.EventBus,
	config ChatServiceConfig,
	log zerolog.Logger,
) *ChatService {
	if config.TypingIdle <= 0 {
		config.TypingIdle = 1500 * time.Millisecond
	}
	s := &ChatService{
		identity: identity,
		sessions: sessions,
		channel:  channel,
		api:      api,
		state:    state,
		eventBus: eventBus,
		config:   config,
		log:      log,
	}
	channel.AddEventHandler(s.handleEvent)
	return s
}

// --- lifecycle ---

// Login authenticates against the server, persists the session slot and
// brings the channel up. A connect failure leaves the user logged in but
// offline; Connect retries it.
func (s *ChatService) Login(ctx context.Context, username, password string) error {
	creds, err := s.api.Login(ctx, username, password)
	if err != nil {
		return err
	}

	sess := &session.Session{
		Username: creds.Username,
		Token:    creds.Token,
		ClientID: uuid.NewString(),
	}
	s.identity.Set(sess)
	s.state.Reset()

	if err := s.sessions.Save(ctx, sess); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist session")
	}

	if err := s.Connect(ctx); err != nil {
		s.log.Warn().Err(err).Msg("connect after login failed")
	}

	if err := s.RefreshFriends(ctx); err != nil {
		s.log.Warn().Err(err).Msg("initial friends fetch failed")
	}

	return nil
}

// Register creates an account. The caller logs in afterwards, as the server
// does not hand out a token on registration.
func (s *ChatService) Register(ctx context.Context, username, password string) (*domain.ActionResult, error) {
	return s.api.Register(ctx, username, password)
}

// Resume restores a persisted session, if one exists, and brings the channel
// up. Returns false when no valid session is stored.
func (s *ChatService) Resume(ctx context.Context) (bool, error) {
	sess, err := s.sessions.Load(ctx)
	if err != nil {
		return false, err
	}
	if !sess.Valid() {
		return false, nil
	}

	s.identity.Set(sess)

	if err := s.Connect(ctx); err != nil {
		s.log.Warn().Err(err).Msg("connect on resume failed")
	}
	if err := s.RefreshFriends(ctx); err != nil {
		s.log.Warn().Err(err).Msg("friends fetch on resume failed")
	}
	return true, nil
}

// Logout tears down the channel, clears the persisted slot and drops all
// state. In-flight requests against the old connection resolve on their own.
func (s *ChatService) Logout(ctx context.Context) {
	s.channel.Disconnect()

	if err := s.sessions.Clear(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear session slot")
	}
	s.identity.Clear()
	s.state.Reset()
}

// Connect brings the channel up for the current session. Without a
// credential the user simply stays offline.
func (s *ChatService) Connect(ctx context.Context) error {
	sess := s.identity.Get()
	if !sess.Valid() {
		s.log.Warn().Msg("no credential, staying offline")
		return ErrNotAuthenticated
	}
	return s.channel.Connect(ctx, sess.Token, sess.ClientID)
}

func (s *ChatService) Disconnect() {
	s.channel.Disconnect()
}

func (s *ChatService) IsConnected() bool {
	return s.channel.IsConnected()
}

func (s *ChatService) LoggedIn() bool {
	return s.identity.Get().Valid()
}

func (s *ChatService) Username() string {
	return s.identity.Username()
}

// --- inbound reconciliation ---

// handleEvent is invoked by the channel's read pump, one event at a time.
func (s *ChatService) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case socket.ChatMessageEvent:
		s.handleChatMessage(v.Message)

	case socket.OnlineUsersEvent:
		s.handleOnlineUsers(v.Users)

	case socket.TypingEvent:
		s.handleTyping(v)

	case socket.ReactionUpdateEvent:
		s.handleReactionUpdate(v)

	case socket.SeenUpdateEvent:
		s.state.MarkRoomSeen(v.RoomID)
		s.eventBus.Publish(domain.MessagesSeenEvent{RoomID: v.RoomID, EventTime: time.Now()})

	case socket.FriendRequestEvent, socket.FriendAcceptedEvent:
		// Relationship state is server-authoritative; refetch both lists.
		go func() {
			if err := s.RefreshFriends(context.Background()); err != nil {
				s.log.Warn().Err(err).Msg("friends refresh after event failed")
			}
		}()

	case socket.ConnectedEvent:
		s.eventBus.Publish(domain.ConnectionStatusEvent{Connected: true, EventTime: time.Now()})

	case socket.DisconnectedEvent:
		s.eventBus.Publish(domain.ConnectionStatusEvent{Connected: false, Reason: v.Reason, EventTime: time.Now()})
	}
}

func (s *ChatService) handleChatMessage(msg *domain.Message) {
	s.state.AddMessage(msg)

	self := s.identity.Username()
	activeRoom := s.state.CurrentRoom()
	fromOther := self != "" && msg.Sender != self

	if fromOther && msg.RoomID != activeRoom {
		count := s.state.IncrementUnread(msg.RoomID)
		s.eventBus.Publish(domain.UnreadUpdatedEvent{RoomID: msg.RoomID, Count: count, EventTime: time.Now()})
	}

	if fromOther && msg.RoomID == activeRoom {
		// Receiver is looking at the room; acknowledge without user action.
		if err := s.channel.SendReadSignal(msg.RoomID, self); err != nil {
			s.log.Warn().Err(err).Str("room", msg.RoomID).Msg("read signal failed")
		}
	}

	s.eventBus.Publish(domain.MessageReceivedEvent{Message: msg, EventTime: time.Now()})
}

func (s *ChatService) handleOnlineUsers(users []string) {
	self := s.identity.Username()

	// Presence snapshots include the caller; never show ourselves online.
	filtered := make([]string, 0, len(users))
	for _, u := range users {
		if u != self {
			filtered = append(filtered, u)
		}
	}

	s.state.SetOnlineUsers(filtered)
	s.eventBus.Publish(domain.PresenceUpdatedEvent{OnlineUsers: filtered, EventTime: time.Now()})
}

func (s *ChatService) handleTyping(evt socket.TypingEvent) {
	// The server reflects our own typing events back; ignore them.
	if evt.Sender == s.identity.Username() {
		return
	}
	s.state.SetTyping(evt.RoomID, evt.IsTyping)
	s.eventBus.Publish(domain.TypingUpdatedEvent{RoomID: evt.RoomID, IsTyping: evt.IsTyping, EventTime: time.Now()})
}

func (s *ChatService) handleReactionUpdate(evt socket.ReactionUpdateEvent) {
	if !s.state.UpdateMessageReactions(evt.MessageID, evt.Reactions) {
		// No loaded log contains the message; drop the update.
		s.log.Debug().Str("message_id", evt.MessageID).Msg("reaction update for unknown message dropped")
		return
	}
	s.eventBus.Publish(domain.ReactionUpdatedEvent{MessageID: evt.MessageID, Reactions: evt.Reactions, EventTime: time.Now()})
}

// --- actions ---

// OpenRoom makes the conversation with targetUser the active room: joins it,
// sends a read receipt, clears its unread counter and loads history if none
// is present yet. The three side effects happen before this returns.
func (s *ChatService) OpenRoom(targetUser string) (string, error) {
	self := s.identity.Username()
	if self == "" {
		return "", ErrNotAuthenticated
	}

	roomID := domain.RoomID(self, targetUser)
	s.state.SetCurrentRoom(roomID)

	if err := s.channel.JoinRoom(roomID); err != nil {
		s.log.Warn().Err(err).Str("room", roomID).Msg("join room failed")
	}
	if err := s.channel.SendReadSignal(roomID, self); err != nil {
		s.log.Warn().Err(err).Str("room", roomID).Msg("read signal failed")
	}
	s.state.ClearUnread(roomID)

	s.eventBus.Publish(domain.RoomOpenedEvent{RoomID: roomID, Peer: targetUser, EventTime: time.Now()})
	s.eventBus.Publish(domain.UnreadUpdatedEvent{RoomID: roomID, Count: 0, EventTime: time.Now()})

	s.LoadHistory(roomID)

	return roomID, nil
}

// LoadHistory fetches a room's message log once. Calls for a room whose log
// exists or is already loading are no-ops, so concurrent opens never issue
// duplicate requests. A failed fetch leaves the log absent and retryable.
func (s *ChatService) LoadHistory(roomID string) {
	if !s.state.BeginHistoryLoad(roomID) {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		msgs, err := s.api.FetchHistory(ctx, roomID)
		if err != nil {
			s.log.Warn().Err(err).Str("room", roomID).Msg("history fetch failed")
			s.state.FinishHistoryLoad(roomID, nil, false)
			return
		}

		s.state.FinishHistoryLoad(roomID, msgs, true)
		s.eventBus.Publish(domain.HistoryLoadedEvent{RoomID: roomID, Count: len(msgs), EventTime: time.Now()})
	}()
}

// SendMessage emits a chat message to the active room. Any pending typing
// episode ends synchronously first, so the peer's indicator never lingers
// after the message lands.
func (s *ChatService) SendMessage(body string) error {
	self := s.identity.Username()
	if self == "" {
		return ErrNotAuthenticated
	}
	roomID := s.state.CurrentRoom()
	if roomID == "" {
		return ErrNoActiveRoom
	}

	s.stopTypingEpisode()

	return s.channel.SendChatMessage(roomID, body, domain.PeerOf(roomID, self))
}

// NotifyTyping signals a keystroke in the active room's composer. Every call
// emits "is typing" and re-arms the idle timer; when the timer fires with no
// further keystrokes, "stopped typing" goes out exactly once.
func (s *ChatService) NotifyTyping() {
	self := s.identity.Username()
	roomID := s.state.CurrentRoom()
	if self == "" || roomID == "" {
		return
	}

	if err := s.channel.SendTyping(roomID, true, self, domain.PeerOf(roomID, self)); err != nil {
		s.log.Warn().Err(err).Msg("typing signal failed")
		return
	}

	s.typingMu.Lock()
	defer s.typingMu.Unlock()

	s.typingActive = true
	if s.typingTimer != nil {
		s.typingTimer.Stop()
	}
	s.typingTimer = time.AfterFunc(s.config.TypingIdle, s.stopTypingEpisode)
}

// stopTypingEpisode emits "stopped typing" once per episode, whether the
// idle timer fired or a send cut the episode short.
func (s *ChatService) stopTypingEpisode() {
	s.typingMu.Lock()
	if !s.typingActive {
		s.typingMu.Unlock()
		return
	}
	s.typingActive = false
	if s.typingTimer != nil {
		s.typingTimer.Stop()
		s.typingTimer = nil
	}
	s.typingMu.Unlock()

	self := s.identity.Username()
	roomID := s.state.CurrentRoom()
	if self == "" || roomID == "" {
		return
	}
	if err := s.channel.SendTyping(roomID, false, self, domain.PeerOf(roomID, self)); err != nil {
		s.log.Warn().Err(err).Msg("stop-typing signal failed")
	}
}

// React emits an emoji reaction to a message in the active room. The server
// answers with the aggregate reaction list for everyone in the room.
func (s *ChatService) React(messageID, emoji string) error {
	self := s.identity.Username()
	if self == "" {
		return ErrNotAuthenticated
	}
	roomID := s.state.CurrentRoom()
	if roomID == "" {
		return ErrNoActiveRoom
	}
	return s.channel.SendReaction(messageID, roomID, emoji, self)
}

// RefreshFriends replaces both relationship lists wholesale from the server.
// On failure the existing lists stay untouched.
func (s *ChatService) RefreshFriends(ctx context.Context) error {
	list, err := s.api.FetchFriends(ctx)
	if err != nil {
		return err
	}
	s.state.SetFriends(*list)
	s.eventBus.Publish(domain.FriendsUpdatedEvent{Friends: *list, EventTime: time.Now()})
	return nil
}

func (s *ChatService) SendFriendRequest(ctx context.Context, toUsername string) (*domain.ActionResult, error) {
	return s.api.SendFriendRequest(ctx, toUsername)
}

// AcceptRequest accepts a pending request. An accept changes both lists, so
// a full refresh follows rather than a local patch.
func (s *ChatService) AcceptRequest(ctx context.Context, fromUserID string) (*domain.ActionResult, error) {
	result, err := s.api.AcceptFriendRequest(ctx, fromUserID)
	if err != nil {
		return nil, err
	}
	if result.Success {
		if err := s.RefreshFriends(ctx); err != nil {
			s.log.Warn().Err(err).Msg("friends refresh after accept failed")
		}
	}
	return result, nil
}

// DeclineRequest declines a pending request and removes it locally; a
// decline touches nothing else, so no refetch is needed.
func (s *ChatService) DeclineRequest(ctx context.Context, fromUserID string) (*domain.ActionResult, error) {
	result, err := s.api.DeclineFriendRequest(ctx, fromUserID)
	if err != nil {
		return nil, err
	}
	if result.Success {
		s.state.RemovePendingRequest(fromUserID)
		s.eventBus.Publish(domain.FriendsUpdatedEvent{Friends: s.state.Friends(), EventTime: time.Now()})
	}
	return result, nil
}

// --- reads ---

func (s *ChatService) Messages(roomID string) []*domain.Message {
	return s.state.Messages(roomID)
}

func (s *ChatService) CurrentRoom() string {
	return s.state.CurrentRoom()
}

func (s *ChatService) OnlineUsers() []string {
	return s.state.OnlineUsers()
}

func (s *ChatService) UnreadCount(roomID string) int {
	return s.state.UnreadCount(roomID)
}

func (s *ChatService) UnreadCounts() map[string]int {
	return s.state.UnreadCounts()
}

func (s *ChatService) Typing(roomID string) bool {
	return s.state.Typing(roomID)
}

func (s *ChatService) Friends() domain.FriendList {
	return s.state.Friends()
}

// SubscribeEvents exposes the state-change event stream to the front end.
func (s *ChatService) SubscribeEvents(eventTypes []domain.EventType) <-chan domain.Event {
	return s.eventBus.Subscribe(eventTypes)
}

func (s *ChatService) UnsubscribeEvents(ch <-chan domain.Event) {
	s.eventBus.Unsubscribe(ch)
}
