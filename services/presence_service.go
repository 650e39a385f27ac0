package services

import (
	"log/slog"
	"time"

	"talkify/domain"
	"talkify/repositories"
)

// PresenceService tracks who is reachable right now. Connect and Disconnect
// are driven by the websocket transport; everything in between is inferred.
type PresenceService struct {
	users repositories.IUserRepository
	chat  *ChatService
	log   *slog.Logger
}

func NewPresenceService(users repositories.IUserRepository, chat *ChatService, log *slog.Logger) *PresenceService {
	return &PresenceService{users: users, chat: chat, log: log}
}

// Connect marks the user online, creating the record on first sight.
func (s *PresenceService) Connect(username string) (domain.User, error) {
	user, err := s.users.GetOrCreate(username)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.users.SetOnline(username); err != nil {
		return domain.User{}, err
	}
	user.Online = true
	return user, nil
}

// Disconnect marks the user offline, stamps the last-seen instant and
// announces the departure on the public feed. Sessions that never bound a
// username disconnect silently.
func (s *PresenceService) Disconnect(username string) {
	if username == "" {
		return
	}

	if err := s.users.SetOffline(username, time.Now().UTC()); err != nil {
		s.log.Error("failed to mark user offline",
			slog.String("username", username), slog.Any("error", err))
	}

	if _, err := s.chat.SendMessage(domain.SendMessageCommand{
		SenderUsername: username,
		Type:           domain.LeaveMessage,
	}); err != nil {
		s.log.Error("failed to announce departure",
			slog.String("username", username), slog.Any("error", err))
	}
}
