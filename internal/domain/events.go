package domain

import (
	"sync"
	"time"
)

type EventType string

const (
	EventTypeMessageReceived  EventType = "message.received"
	EventTypeMessagesSeen     EventType = "messages.seen"
	EventTypeReactionUpdated  EventType = "reaction.updated"
	EventTypePresenceUpdated  EventType = "presence.updated"
	EventTypeTypingUpdated    EventType = "typing.updated"
	EventTypeUnreadUpdated    EventType = "unread.updated"
	EventTypeFriendsUpdated   EventType = "friends.updated"
	EventTypeRoomOpened       EventType = "room.opened"
	EventTypeHistoryLoaded    EventType = "history.loaded"
	EventTypeConnectionStatus EventType = "connection.status"
)

type Event interface {
	Type() EventType
	Timestamp() time.Time
}

type MessageReceivedEvent struct {
	Message   *Message
	EventTime time.Time
}

func (e MessageReceivedEvent) Type() EventType      { return EventTypeMessageReceived }
func (e MessageReceivedEvent) Timestamp() time.Time { return e.EventTime }

type MessagesSeenEvent struct {
	RoomID    string
	EventTime time.Time
}

func (e MessagesSeenEvent) Type() EventType      { return EventTypeMessagesSeen }
func (e MessagesSeenEvent) Timestamp() time.Time { return e.EventTime }

type ReactionUpdatedEvent struct {
	MessageID string
	Reactions []Reaction
	EventTime time.Time
}

func (e ReactionUpdatedEvent) Type() EventType      { return EventTypeReactionUpdated }
func (e ReactionUpdatedEvent) Timestamp() time.Time { return e.EventTime }

type PresenceUpdatedEvent struct {
	OnlineUsers []string
	EventTime   time.Time
}

func (e PresenceUpdatedEvent) Type() EventType      { return EventTypePresenceUpdated }
func (e PresenceUpdatedEvent) Timestamp() time.Time { return e.EventTime }

type TypingUpdatedEvent struct {
	RoomID    string
	IsTyping  bool
	EventTime time.Time
}

func (e TypingUpdatedEvent) Type() EventType      { return EventTypeTypingUpdated }
func (e TypingUpdatedEvent) Timestamp() time.Time { return e.EventTime }

type UnreadUpdatedEvent struct {
	RoomID    string
	Count     int
	EventTime time.Time
}

func (e UnreadUpdatedEvent) Type() EventType      { return EventTypeUnreadUpdated }
func (e UnreadUpdatedEvent) Timestamp() time.Time { return e.EventTime }

type FriendsUpdatedEvent struct {
	Friends   FriendList
	EventTime time.Time
}

func (e FriendsUpdatedEvent) Type() EventType      { return EventTypeFriendsUpdated }
func (e FriendsUpdatedEvent) Timestamp() time.Time { return e.EventTime }

type RoomOpenedEvent struct {
	RoomID    string
	Peer      string
	EventTime time.Time
}

func (e RoomOpenedEvent) Type() EventType      { return EventTypeRoomOpened }
func (e RoomOpenedEvent) Timestamp() time.Time { return e.EventTime }

type HistoryLoadedEvent struct {
	RoomID    string
	Count     int
	EventTime time.Time
}

func (e HistoryLoadedEvent) Type() EventType      { return EventTypeHistoryLoaded }
func (e HistoryLoadedEvent) Timestamp() time.Time { return e.EventTime }

type ConnectionStatusEvent struct {
	Connected bool
	Reason    string
	EventTime time.Time
}

func (e ConnectionStatusEvent) Type() EventType      { return EventTypeConnectionStatus }
func (e ConnectionStatusEvent) Timestamp() time.Time { return e.EventTime }

// EventBus provides pub/sub for domain events
type EventBus interface {
	Publish(event Event)
	Subscribe(eventTypes []EventType) <-chan Event
	Unsubscribe(ch <-chan Event)
}

// SimpleEventBus is a basic in-memory implementation of EventBus
type SimpleEventBus struct {
	mu          sync.RWMutex
	subscribers map[<-chan Event]subscription
}

type subscription struct {
	ch         chan Event
	eventTypes map[EventType]bool
}

func NewEventBus() *SimpleEventBus {
	return &SimpleEventBus{
		subscribers: make(map[<-chan Event]subscription),
	}
}

func (b *SimpleEventBus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		if len(sub.eventTypes) == 0 || sub.eventTypes[event.Type()] {
			select {
			case sub.ch <- event:
			default:
				// Channel full, skip this subscriber
			}
		}
	}
}

func (b *SimpleEventBus) Subscribe(eventTypes []EventType) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 100)
	typeMap := make(map[EventType]bool)
	for _, t := range eventTypes {
		typeMap[t] = true
	}

	b.subscribers[ch] = subscription{
		ch:         ch,
		eventTypes: typeMap,
	}

	return ch
}

func (b *SimpleEventBus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subscribers[ch]; ok {
		close(sub.ch)
		delete(b.subscribers, ch)
	}
}
