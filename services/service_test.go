package services

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"talkify/moderation"
	"talkify/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

type frameRecord struct {
	Topic string
	Event string
	Body  any
}

// recordingBroker captures published frames instead of fanning them out.
type recordingBroker struct {
	mu     sync.Mutex
	frames []frameRecord
}

func (b *recordingBroker) Publish(topic, event string, body any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = append(b.frames, frameRecord{Topic: topic, Event: event, Body: body})
}

func (b *recordingBroker) byEvent(event string) []frameRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []frameRecord
	for _, frame := range b.frames {
		if frame.Event == event {
			out = append(out, frame)
		}
	}
	return out
}

func (b *recordingBroker) onTopic(topic string) []frameRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []frameRecord
	for _, frame := range b.frames {
		if frame.Topic == topic {
			out = append(out, frame)
		}
	}
	return out
}

func (b *recordingBroker) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = nil
}

type fixture struct {
	users    *repositories.UserRepository
	rooms    *repositories.RoomRepository
	messages repositories.MessageRepository
	broker   *recordingBroker
	chat     *ChatService
	presence *PresenceService
	status   *StatusService
	authSvc  *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	opts := badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	log := slog.Default()
	moderator, err := moderation.NewModerator([]string{"darn"}, '*')
	require.NoError(t, err)

	f := &fixture{
		users:    repositories.NewUserRepository(db),
		rooms:    repositories.NewRoomRepository(db),
		messages: repositories.NewMessageRepository(db, log, nil),
		broker:   &recordingBroker{},
	}
	f.chat = NewChatService(f.users, f.rooms, f.messages, nil, &moderator, f.broker, log)
	f.presence = NewPresenceService(f.users, f.chat, log)
	f.status = NewStatusService(f.rooms, f.messages, f.broker, log)
	f.authSvc = NewAuthService(f.users, time.Hour, log)
	return f
}
