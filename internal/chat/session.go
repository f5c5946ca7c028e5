package chat

import (
	"sync"
	"sync/atomic"
)

// Session is one open conversation: its transcript, its input buffer and the
// pending flag that keeps a second send out while a reply is outstanding.
type Session struct {
	owner   string
	pending atomic.Bool

	mu       sync.Mutex
	messages []Message
	input    string
}

func newSession(owner string, messages []Message) *Session {
	return &Session{owner: owner, messages: messages}
}

func (s *Session) Owner() string { return s.owner }

// Pending reports whether a reply is outstanding.
func (s *Session) Pending() bool { return s.pending.Load() }

// Messages returns a copy of the transcript.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func (s *Session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

func (s *Session) SetInput(text string) {
	s.mu.Lock()
	s.input = text
	s.mu.Unlock()
}

// appendMessage appends m and returns the full sequence to persist.
func (s *Session) appendMessage(m Message) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) clearInput() {
	s.SetInput("")
}

func (s *Session) reset() {
	s.mu.Lock()
	s.messages = nil
	s.mu.Unlock()
}
