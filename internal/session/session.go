package session

import (
	"context"
	"sync"
)

// Session is the authenticated local identity. It exists iff both Username
// and Token are present; without it the client stays offline and every
// request is refused.
type Session struct {
	Username string
	Token    string
	ClientID string
}

func (s *Session) Valid() bool {
	return s != nil && s.Username != "" && s.Token != ""
}

// Store persists the session slot between runs. The slot's lifecycle is owned
// by the host environment, not by the synchronization core.
type Store interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Clear(ctx context.Context) error
}

// Holder is the in-memory identity context for the running process. It
// supplies the current username and token to every other component.
type Holder struct {
	mu sync.RWMutex
	s  *Session
}

func NewHolder() *Holder {
	return &Holder{}
}

func (h *Holder) Set(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.s = s
}

func (h *Holder) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.s = nil
}

// Get returns the current session, or nil when logged out.
func (h *Holder) Get() *Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.s
}

func (h *Holder) Username() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.s == nil {
		return ""
	}
	return h.s.Username
}

func (h *Holder) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.s == nil {
		return ""
	}
	return h.s.Token
}
