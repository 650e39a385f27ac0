package domain

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	ChatMessage  MessageType = "CHAT"
	JoinMessage  MessageType = "JOIN"
	LeaveMessage MessageType = "LEAVE"
)

type MessageStatus string

const (
	StatusSent      MessageStatus = "SENT"
	StatusDelivered MessageStatus = "DELIVERED"
	StatusRead      MessageStatus = "READ"
)

// rank orders the delivery lifecycle. An unknown status ranks below SENT so
// it can never shadow a legitimate state.
func (s MessageStatus) rank() int {
	switch s {
	case StatusSent:
		return 1
	case StatusDelivered:
		return 2
	case StatusRead:
		return 3
	}
	return 0
}

// CanAdvanceTo reports whether moving to next respects the one-directional
// SENT -> DELIVERED -> READ lifecycle. Re-applying the current status is not
// an advancement.
func (s MessageStatus) CanAdvanceTo(next MessageStatus) bool {
	return next.rank() > s.rank()
}

// Message is a persisted chat event. RoomID is nil for public broadcasts.
// The room, once set, never changes; Status is mutated only by the delivery
// status engine and never regresses.
type Message struct {
	ID        uuid.UUID     `json:"id"`
	RoomID    *uuid.UUID    `json:"chatRoomId,omitempty"`
	Sender    string        `json:"senderUsername"`
	Content   string        `json:"content,omitempty"`
	Type      MessageType   `json:"type"`
	Status    MessageStatus `json:"status"`
	Lang      string        `json:"lang,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// StatusUpdate is a wire-only event, emitted when a batch of messages moved
// to a new status. It is never persisted. The order of MessageIDs carries no
// meaning; consumers must not rely on it.
type StatusUpdate struct {
	ChatRoomID uuid.UUID     `json:"chatRoomId"`
	MessageIDs []uuid.UUID   `json:"messageIds"`
	NewStatus  MessageStatus `json:"newStatus"`
}
