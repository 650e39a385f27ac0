package search

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"talkify/domain"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func Test_Query_Parsing(t *testing.T) {
	req := require.New(t)

	query := NewQuery("invoice unpaid --room 42 --limit 25")
	req.Equal("invoice unpaid", query.Terms)
	req.Equal("42", query.RoomID)
	req.Equal(25, query.Limit)

	query = NewQuery("hello")
	req.Equal("hello", query.Terms)
	req.Empty(query.RoomID)
	req.Equal(defaultLimit, query.Limit)
}

func Test_Index_And_Search_RoundTrip(t *testing.T) {
	req := require.New(t)
	index, err := OpenMessageIndex(t.TempDir(), slog.Default())
	req.NoError(err)
	defer index.Close()

	roomA, roomB := uuid.New(), uuid.New()
	messages := []domain.Message{
		{ID: uuid.New(), RoomID: &roomA, Sender: "alice", Content: "the invoice is unpaid", Type: domain.ChatMessage, Status: domain.StatusSent, Timestamp: time.Now().UTC()},
		{ID: uuid.New(), RoomID: &roomB, Sender: "bob", Content: "invoice settled yesterday", Type: domain.ChatMessage, Status: domain.StatusSent, Timestamp: time.Now().UTC()},
		{ID: uuid.New(), Sender: "clara", Content: "totally unrelated", Type: domain.ChatMessage, Status: domain.StatusSent, Timestamp: time.Now().UTC()},
	}
	for _, msg := range messages {
		req.NoError(index.Index(msg))
	}

	hits, err := index.Search(context.Background(), NewQuery("invoice"))
	req.NoError(err)
	req.Len(hits, 2)

	senders := lo.Map(hits, func(h Hit, _ int) string { return h.Sender })
	req.ElementsMatch([]string{"alice", "bob"}, senders)

	// Restricted to one room
	hits, err = index.Search(context.Background(), NewQuery("invoice --room "+roomA.String()))
	req.NoError(err)
	req.Len(hits, 1)
	req.Equal("alice", hits[0].Sender)
}

func Test_Synthetic_Messages_Are_Not_Indexed(t *testing.T) {
	req := require.New(t)
	index, err := OpenMessageIndex(t.TempDir(), slog.Default())
	req.NoError(err)
	defer index.Close()

	join := domain.Message{ID: uuid.New(), Sender: "alice", Type: domain.JoinMessage, Status: domain.StatusSent, Timestamp: time.Now().UTC()}
	req.NoError(index.Index(join))

	hits, err := index.Search(context.Background(), NewQuery("alice"))
	req.NoError(err)
	req.Empty(hits)
}
