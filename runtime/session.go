// Package runtime owns the in-process fan-out: sessions, topics and publish.
// It carries no chat business logic or domain rules.
package runtime

import (
	"sync"

	"github.com/google/uuid"
)

// Sink receives the frames published on topics a session subscribed to.
// Implementations must not block: the transport decides what to do with a
// slow consumer.
type Sink interface {
	Send(frame []byte)
}

// Session represents one persistent connection. It owns its principal and its
// topic subscriptions; there is no hidden global session registry beyond the
// broker's topic index.
type Session struct {
	ID   string
	sink Sink

	mu        sync.RWMutex
	principal string
	username  string
	topics    map[string]struct{}
}

func NewSession(sink Sink) *Session {
	return &Session{
		ID:     uuid.NewString(),
		sink:   sink,
		topics: make(map[string]struct{}),
	}
}

// BindPrincipal attaches the authenticated subject for the lifetime of the
// session. Set once, at handshake.
func (s *Session) BindPrincipal(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.principal = username
}

func (s *Session) Principal() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.principal, s.principal != ""
}

// BindUsername records the chat identity announced by chat.addUser. This is
// the transport-owned binding the presence tracker reads on disconnect.
func (s *Session) BindUsername(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = username
}

func (s *Session) Username() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username, s.username != ""
}

func (s *Session) addTopic(topic string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics[topic] = struct{}{}
}

func (s *Session) removeTopic(topic string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.topics, topic)
}

// Topics returns a snapshot of the session's subscriptions.
func (s *Session) Topics() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	topics := make([]string, 0, len(s.topics))
	for topic := range s.topics {
		topics = append(topics, topic)
	}
	return topics
}

func (s *Session) send(frame []byte) {
	s.sink.Send(frame)
}
