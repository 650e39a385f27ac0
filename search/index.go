// Package search maintains a full-text index over chat messages.
// The index is a sidecar: the badger store stays the source of truth and a
// lost index entry only degrades search results.
package search

import (
	"context"
	"log/slog"

	"talkify/domain"

	"github.com/blugelabs/bluge"
)

// publicRoom is the room field value indexed for messages without a room.
const publicRoom = "public"

type IMessageIndex interface {
	Index(message domain.Message) error
	Search(ctx context.Context, query *Query) ([]Hit, error)
	Close() error
}

type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

// Hit is one search result, rebuilt from the stored index fields.
type Hit struct {
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
	Sender    string `json:"senderUsername"`
	Room      string `json:"chatRoomId"`
}

func OpenMessageIndex(path string, log *slog.Logger) (*MessageIndex, error) {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(path))
	if err != nil {
		return nil, err
	}
	return &MessageIndex{writer: writer, log: log}, nil
}

// Index upserts one message. Synthetic JOIN/LEAVE messages carry no content
// and are skipped.
func (i *MessageIndex) Index(message domain.Message) error {
	if message.Content == "" {
		return nil
	}

	room := publicRoom
	if message.RoomID != nil {
		room = message.RoomID.String()
	}

	doc := bluge.NewDocument(message.ID.String())
	doc.AddField(bluge.NewTextField("content", message.Content).StoreValue())
	doc.AddField(bluge.NewKeywordField("sender", message.Sender).StoreValue())
	doc.AddField(bluge.NewKeywordField("room", room).StoreValue())
	doc.AddField(bluge.NewDateTimeField("at", message.Timestamp))

	return i.writer.Update(doc.ID(), doc)
}

func (i *MessageIndex) Search(ctx context.Context, query *Query) ([]Hit, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = reader.Close()
	}()

	match := bluge.NewMatchQuery(query.Terms)
	match.SetField("content")

	var blugeQuery bluge.Query = match
	if query.RoomID != "" {
		term := bluge.NewTermQuery(query.RoomID)
		term.SetField("room")
		boolean := bluge.NewBooleanQuery()
		boolean.AddMust(match)
		boolean.AddMust(term)
		blugeQuery = boolean
	}

	request := bluge.NewTopNSearch(query.Limit, blugeQuery)
	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var hits []Hit
	next, err := iterator.Next()
	for err == nil && next != nil {
		var hit Hit
		err = next.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.MessageID = string(value)
			case "content":
				hit.Content = string(value)
			case "sender":
				hit.Sender = string(value)
			case "room":
				hit.Room = string(value)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
		next, err = iterator.Next()
	}
	if err != nil {
		return nil, err
	}
	return hits, nil
}

func (i *MessageIndex) Close() error {
	return i.writer.Close()
}
