package services

import (
	stderrors "errors"
	"log/slog"
	"time"

	"talkify/auth"
	"talkify/domain"
	"talkify/errors"
	"talkify/moderation"
	"talkify/repositories"
	"talkify/runtime"
	"talkify/search"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ChatService routes inbound messages: resolve the destination, moderate and
// enrich the content, persist, then fan out. Persistence always happens
// before the publish so a crash can lose a notification but never a message.
type ChatService struct {
	users     repositories.IUserRepository
	rooms     repositories.IRoomRepository
	messages  repositories.IMessageRepository
	index     search.IMessageIndex
	moderator *moderation.Moderator
	broker    Publisher
	log       *slog.Logger
}

func NewChatService(
	users repositories.IUserRepository,
	rooms repositories.IRoomRepository,
	messages repositories.IMessageRepository,
	index search.IMessageIndex,
	moderator *moderation.Moderator,
	broker Publisher,
	log *slog.Logger,
) *ChatService {
	return &ChatService{
		users:     users,
		rooms:     rooms,
		messages:  messages,
		index:     index,
		moderator: moderator,
		broker:    broker,
		log:       log,
	}
}

// destination is the resolved target of one message: at most one room plus
// the topics the frame fans out to.
type destination struct {
	room   *domain.Room
	topics []string
}

func (s *ChatService) SendMessage(cmd domain.SendMessageCommand) (domain.Message, error) {
	if err := auth.ValidateSendMessage(cmd); err != nil {
		return domain.Message{}, err
	}

	if _, err := s.users.GetOrCreate(cmd.SenderUsername); err != nil {
		return domain.Message{}, err
	}

	dest, err := s.resolve(cmd)
	if err != nil {
		return domain.Message{}, err
	}

	message := domain.Message{
		ID:        uuid.New(),
		Sender:    cmd.SenderUsername,
		Type:      cmd.Type,
		Status:    domain.StatusSent,
		Timestamp: time.Now().UTC(),
	}
	if dest.room != nil {
		message.RoomID = &dest.room.ID
	}

	if cmd.Type == domain.ChatMessage {
		message.Content, message.Lang = s.enrich(cmd.Content)
		message.Status = s.initialStatus(dest.room, cmd.SenderUsername)
	}

	if err := s.messages.Save(message); err != nil {
		return domain.Message{}, err
	}

	if s.index != nil {
		if err := s.index.Index(message); err != nil {
			s.log.Warn("failed to index message",
				slog.String("id", message.ID.String()), slog.Any("error", err))
		}
	}

	for _, topic := range dest.topics {
		s.broker.Publish(topic, runtime.MessageEvent, message)
	}
	return message, nil
}

// resolve maps the mutually exclusive addressing modes to a destination.
// An unknown room id falls back to the public broadcast instead of failing;
// clients with a stale room list keep working, they just go public.
func (s *ChatService) resolve(cmd domain.SendMessageCommand) (destination, error) {
	switch {
	case cmd.Recipient != "":
		room, err := s.rooms.GetOrCreatePair(cmd.SenderUsername, cmd.Recipient)
		if err != nil {
			return destination{}, err
		}
		return destination{
			room: &room,
			topics: []string{
				runtime.UserTopic(cmd.Recipient),
				runtime.UserTopic(cmd.SenderUsername),
			},
		}, nil

	case cmd.ChatRoomID != nil:
		room, err := s.rooms.FindByID(*cmd.ChatRoomID)
		if stderrors.Is(err, errors.ErrRoomNotFound) {
			s.log.Debug("unknown room, falling back to public",
				slog.String("chatRoomId", cmd.ChatRoomID.String()))
			return destination{topics: []string{runtime.PublicTopic}}, nil
		}
		if err != nil {
			return destination{}, err
		}
		return destination{room: &room, topics: []string{runtime.RoomTopic(room.ID)}}, nil

	default:
		return destination{topics: []string{runtime.PublicTopic}}, nil
	}
}

// enrich censors the content and tags its language when detection is
// confident enough to be useful.
func (s *ChatService) enrich(content string) (censored string, lang string) {
	var found []string
	censored, found = s.moderator.Censor(content)
	if len(found) > 0 {
		s.log.Warn("censored message content", slog.Any("words", found))
	}

	if info := whatlanggo.Detect(content); info.IsReliable() {
		lang = info.Lang.Iso6393()
	}
	return censored, lang
}

// initialStatus short-circuits the SENT state for one-to-one conversations
// whose counterpart is currently online. Group and public messages always
// start at SENT and are promoted by the delivery sweep.
func (s *ChatService) initialStatus(room *domain.Room, sender string) domain.MessageStatus {
	if room == nil || room.GroupChat {
		return domain.StatusSent
	}
	online := lo.SomeBy(room.OtherParticipants(sender), func(username string) bool {
		user, err := s.users.Get(username)
		return err == nil && user.Online
	})
	if online {
		return domain.StatusDelivered
	}
	return domain.StatusSent
}

// History pages through persisted messages, newest first. A nil roomID reads
// the public feed.
func (s *ChatService) History(roomID *uuid.UUID, cursor *string) ([]domain.Message, *string, error) {
	if roomID == nil {
		return s.messages.FindPublic(cursor)
	}
	if _, err := s.rooms.FindByID(*roomID); err != nil {
		return nil, nil, err
	}
	return s.messages.FindByRoom(*roomID, cursor)
}

// OneOnOne returns the single room shared by two users, creating it on first
// contact.
func (s *ChatService) OneOnOne(user1, user2 string) (domain.Room, error) {
	return s.rooms.GetOrCreatePair(user1, user2)
}

func (s *ChatService) Users() ([]domain.User, error) {
	return s.users.List()
}
