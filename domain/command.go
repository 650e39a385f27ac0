package domain

import "github.com/google/uuid"

// Inbound command payloads carried by the persistent connection.
// ChatRoomID and Recipient are mutually exclusive addressing modes; the
// payload validator in the auth package enforces the exclusion.

type SendMessageCommand struct {
	Content        string      `json:"content"`
	SenderUsername string      `json:"senderUsername" validate:"required"`
	ChatRoomID     *uuid.UUID  `json:"chatRoomId,omitempty"`
	Recipient      string      `json:"recipient,omitempty"`
	Type           MessageType `json:"type" validate:"required,oneof=CHAT JOIN LEAVE"`
}

type AddUserCommand struct {
	SenderUsername string `json:"senderUsername" validate:"required"`
}

type ReadMessagesCommand struct {
	ChatRoomID     uuid.UUID `json:"chatRoomId" validate:"required"`
	ReaderUsername string    `json:"readerUsername" validate:"required"`
}
