package chat

import (
	"errors"
	"sync"
)

// ErrConversationNotFound is returned when a caller references a
// conversation slot outside the archived list.
var ErrConversationNotFound = errors.New("conversation not found")

// DefaultTier applies until a session selects one explicitly.
const DefaultTier = "Free"

// Session bundles one caller's conversations and tier selection. State is
// scoped to the session; different sessions never share conversation
// state, so each session carries its own lock.
type Session struct {
	ID string

	mu          sync.Mutex
	tier        string
	active      Conversation
	previous    []Conversation
	activeIndex int // -1 when the active conversation has no archived slot
}

func newSession(id string) *Session {
	return &Session{
		ID:          id,
		tier:        DefaultTier,
		active:      NewConversation(),
		activeIndex: -1,
	}
}

func (s *Session) Tier() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tier
}

// SetTier records the session's tier selection. Per-session, not
// per-request: once set, later messages reuse it.
func (s *Session) SetTier(tier string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tier = tier
}

// StartNewConversation archives the active conversation if it holds more
// than the system message, then activates a fresh one. The fresh
// conversation takes a slot in the archived list immediately, so it shows
// up in history and can be switched back to.
func (s *Session) StartNewConversation() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.archiveActiveLocked()

	s.active = NewConversation()
	s.previous = append(s.previous, s.active.Clone())
	s.activeIndex = len(s.previous) - 1
}

func (s *Session) archiveActiveLocked() {
	if s.active.Trivial() {
		return
	}
	if s.activeIndex >= 0 && s.activeIndex < len(s.previous) {
		s.previous[s.activeIndex] = s.active.Clone()
		return
	}
	for _, c := range s.previous {
		if c.Equal(s.active) {
			return
		}
	}
	s.previous = append(s.previous, s.active.Clone())
}

// AppendMessage adds a message to the active conversation, creating a
// system-seeded one lazily if the session has none, and mirrors the change
// into the conversation's archived slot when it has one.
func (s *Session) AppendMessage(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		s.active = NewConversation()
	}
	s.active = append(s.active, Message{Role: role, Content: content})
	if s.activeIndex >= 0 && s.activeIndex < len(s.previous) {
		s.previous[s.activeIndex] = s.active.Clone()
	}
}

// SwitchActive makes the archived conversation at index the active one. The
// target is deep-copied so edits to the revived conversation only reach
// the archive through the usual mirroring.
func (s *Session) SwitchActive(index int) (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.previous) {
		return nil, ErrConversationNotFound
	}

	s.active = s.previous[index].Clone()
	s.activeIndex = index
	return s.active.Clone(), nil
}

// History returns a copy of the active conversation.
func (s *Session) History() Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active.Clone()
}

// PreviousChats returns a deep copy of the archived conversation list.
func (s *Session) PreviousChats() []Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Conversation, len(s.previous))
	for i, c := range s.previous {
		out[i] = c.Clone()
	}
	return out
}

// Reset clears the session's conversations, tier selection, and active
// pointer. Other sessions are unaffected.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tier = DefaultTier
	s.active = NewConversation()
	s.previous = nil
	s.activeIndex = -1
}
