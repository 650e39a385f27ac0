package services

import (
	"log/slog"

	"talkify/auth"
	"talkify/domain"
	"talkify/repositories"
	"talkify/runtime"

	"github.com/google/uuid"
)

// StatusService owns the SENT -> DELIVERED -> READ lifecycle. Every
// transition runs as one guarded batch per room, so replays and races
// degrade into empty batches instead of regressions.
type StatusService struct {
	rooms    repositories.IRoomRepository
	messages repositories.IMessageRepository
	broker   Publisher
	log      *slog.Logger
}

func NewStatusService(rooms repositories.IRoomRepository, messages repositories.IMessageRepository, broker Publisher, log *slog.Logger) *StatusService {
	return &StatusService{rooms: rooms, messages: messages, broker: broker, log: log}
}

// DeliverPending promotes to DELIVERED every SENT message addressed to the
// user, one batch per room, and notifies each room that actually changed.
// Called when a user comes online; running it twice is harmless.
func (s *StatusService) DeliverPending(username string) error {
	rooms, err := s.rooms.FindByParticipant(username)
	if err != nil {
		return err
	}

	for _, room := range rooms {
		ids, err := s.messages.AdvanceStatus(room.ID, username,
			[]domain.MessageStatus{domain.StatusSent}, domain.StatusDelivered)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			continue
		}
		s.publish(room.ID, ids, domain.StatusDelivered)
	}
	return nil
}

// MarkRead acknowledges a room: every message in it not sent by the reader
// jumps to READ, whether or not it ever was DELIVERED.
func (s *StatusService) MarkRead(cmd domain.ReadMessagesCommand) error {
	if err := auth.ValidateReadMessages(cmd); err != nil {
		return err
	}
	if _, err := s.rooms.FindByID(cmd.ChatRoomID); err != nil {
		return err
	}

	ids, err := s.messages.AdvanceStatus(cmd.ChatRoomID, cmd.ReaderUsername,
		[]domain.MessageStatus{domain.StatusSent, domain.StatusDelivered}, domain.StatusRead)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		s.publish(cmd.ChatRoomID, ids, domain.StatusRead)
	}
	return nil
}

func (s *StatusService) publish(roomID uuid.UUID, ids []uuid.UUID, to domain.MessageStatus) {
	s.broker.Publish(runtime.RoomTopic(roomID), runtime.StatusUpdateEvent, domain.StatusUpdate{
		ChatRoomID: roomID,
		MessageIDs: ids,
		NewStatus:  to,
	})
	s.log.Debug("status batch advanced",
		slog.String("chatRoomId", roomID.String()),
		slog.Int("count", len(ids)),
		slog.String("newStatus", string(to)))
}
