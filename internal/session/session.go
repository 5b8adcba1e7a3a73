package session

import (
	"sync"
	"time"

	"maitred/internal/cart"
	"maitred/internal/dialogue"
	"maitred/internal/i18n"
)

// Session is one diner's private state
type Session struct {
	ID           string
	Cart         *cart.Cart
	Conversation *dialogue.Conversation
	CreatedAt    time.Time

	mu       sync.Mutex
	language i18n.Language
	lastSeen time.Time
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:           id,
		Cart:         cart.New(),
		Conversation: dialogue.NewConversation(),
		CreatedAt:    now,
		language:     i18n.Default,
		lastSeen:     now,
	}
}

// Language is the UI language chosen for the session
func (s *Session) Language() i18n.Language {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

// SetLanguage records the UI language
func (s *Session) SetLanguage(l i18n.Language) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.language = l
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
