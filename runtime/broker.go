package runtime

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Frame is the envelope written to subscribed sessions. A single connection
// multiplexes every topic it subscribed to, so each frame names its topic.
type Frame struct {
	Topic string `json:"topic"`
	Event string `json:"event"`
	Body  any    `json:"body"`
}

// Frame event names.
const (
	MessageEvent      = "message"
	StatusUpdateEvent = "statusUpdate"
	ErrorEvent        = "error"
)

// Broker fans frames out to the sessions subscribed to a topic.
//
// Publishing is fire-and-forget and at-least-once for currently subscribed
// sessions only: there is no replay for sessions joining later, no
// acknowledgement path, and no retry. It is safe for concurrent use.
type Broker struct {
	mu     sync.RWMutex
	log    *slog.Logger
	topics map[string]map[*Session]struct{}
}

func NewBroker(log *slog.Logger) *Broker {
	return &Broker{
		log:    log,
		topics: make(map[string]map[*Session]struct{}),
	}
}

// Subscribe attaches a session to a topic. The topic entry is initialized on
// the fly; subscribing twice is a no-op.
func (b *Broker) Subscribe(session *Session, topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.topics[topic]; !ok {
		b.topics[topic] = make(map[*Session]struct{})
	}
	b.topics[topic][session] = struct{}{}
	session.addTopic(topic)
}

// Unsubscribe detaches a session from one topic. Empty topic entries are
// removed to prevent the map from growing over time.
func (b *Broker) Unsubscribe(session *Session, topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unsubscribeLocked(session, topic)
}

// Drop detaches a session from every topic it subscribed to. Called by the
// transport when the connection terminates, whatever the reason.
func (b *Broker) Drop(session *Session) {
	topics := session.Topics()
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, topic := range topics {
		b.unsubscribeLocked(session, topic)
	}
}

func (b *Broker) unsubscribeLocked(session *Session, topic string) {
	if members, ok := b.topics[topic]; ok {
		delete(members, session)
		if len(members) == 0 {
			delete(b.topics, topic)
		}
	}
	session.removeTopic(topic)
}

// Publish marshals the body once and hands the frame to every subscriber of
// the topic. A topic without subscribers is not an error.
func (b *Broker) Publish(topic, event string, body any) {
	frame, err := json.Marshal(Frame{Topic: topic, Event: event, Body: body})
	if err != nil {
		b.log.Error("Dropping unmarshalable frame", "topic", topic, "event", event, "err", err)
		return
	}

	b.mu.RLock()
	sessions := make([]*Session, 0, len(b.topics[topic]))
	for session := range b.topics[topic] {
		sessions = append(sessions, session)
	}
	b.mu.RUnlock()

	for _, session := range sessions {
		session.send(frame)
	}
}

// SendTo writes a frame to a single session, bypassing topics. Used for
// per-session error reporting.
func (b *Broker) SendTo(session *Session, event string, body any) {
	frame, err := json.Marshal(Frame{Event: event, Body: body})
	if err != nil {
		b.log.Error("Dropping unmarshalable frame", "event", event, "err", err)
		return
	}
	session.send(frame)
}
