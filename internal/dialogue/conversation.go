package dialogue

import (
	"context"
	"sync"
	"time"
)

// Transcript roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Entry is one transcript message
type Entry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is the dialogue state of one session. Only the Engine mutates it.
type Conversation struct {
	mu              sync.Mutex
	transcript      []Entry
	needs           NeedTracker
	recommendations []int
	pending         bool

	// generation changes on Clear; responses issued under an older one are dropped
	generation uint64
	inFlight   bool
	cancel     context.CancelFunc
}

// NewConversation returns an empty conversation
func NewConversation() *Conversation {
	return &Conversation{}
}

// State is a consistent copy of the conversation
type State struct {
	Transcript      []Entry     `json:"transcript"`
	Needs           NeedTracker `json:"needs"`
	Recommendations []int       `json:"recommendations"`
	Pending         bool        `json:"pending"`
	InFlight        bool        `json:"in_flight"`
}

// State returns a consistent copy of the conversation
func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Transcript:      append([]Entry{}, c.transcript...),
		Needs:           c.needs.clone(),
		Recommendations: append([]int{}, c.recommendations...),
		Pending:         c.pending,
		InFlight:        c.inFlight,
	}
}

// Recommendations returns the active recommendation set
func (c *Conversation) Recommendations() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int{}, c.recommendations...)
}

func (c *Conversation) appendLocked(role, content string, at time.Time) {
	c.transcript = append(c.transcript, Entry{Role: role, Content: content, Timestamp: at})
}
