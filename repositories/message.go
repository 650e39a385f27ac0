//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	goerrors "errors"
	"fmt"
	"log/slog"

	"talkify/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// publicSegment is the key segment used for messages without a room.
const publicSegment = "public"

// advanceAttempts bounds the retries on transaction conflicts. Badger aborts
// a serializable transaction when a concurrent writer touched the same keys;
// re-running the guarded scan is always safe because it only ever selects
// rows still in a "from" state.
const advanceAttempts = 3

type IMessageRepository interface {
	Save(message domain.Message) error
	FindByRoom(roomID uuid.UUID, cursor *string) ([]domain.Message, *string, error)
	FindPublic(cursor *string) ([]domain.Message, *string, error)
	AdvanceStatus(roomID uuid.UUID, excludeSender string, from []domain.MessageStatus, to domain.MessageStatus) ([]uuid.UUID, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

func segment(roomID *uuid.UUID) string {
	if roomID == nil {
		return publicSegment
	}
	return roomID.String()
}

// messageKey is formatted as "msg:{segment}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
func messageKey(m domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s",
		segment(m.RoomID),
		m.Timestamp.UnixNano(),
		m.ID,
	))
}

// Save persists a message. Every persisted message must carry a sender; this
// is the store-side backstop behind the router's validation.
func (m MessageRepository) Save(message domain.Message) error {
	if message.Sender == "" {
		return fmt.Errorf("message %s has no sender", message.ID)
	}
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(message), data)
	})
}

func (m MessageRepository) FindByRoom(roomID uuid.UUID, cursor *string) ([]domain.Message, *string, error) {
	return m.findBySegment(roomID.String(), cursor)
}

func (m MessageRepository) FindPublic(cursor *string) ([]domain.Message, *string, error) {
	return m.findBySegment(publicSegment, cursor)
}

// findBySegment retrieves messages for a segment using a reverse prefix scan,
// newest first. Thanks to the padded timestamp in the key, messages are
// naturally sorted by time. It stops once the configured limitMessages is
// reached and returns a cursor usable to fetch the next page.
func (m MessageRepository) findBySegment(seg string, cursor *string) ([]domain.Message, *string, error) {
	var messages []domain.Message
	var lastKey string
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", seg)
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past the newest possible key, then walk backwards
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(messages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", *m.limitMessages))
				break
			}
			item := it.Item()
			// Memorize cursor part of the actual key
			lastKey = string(item.Key()[prefixLen:])
			err := item.Value(func(value []byte) error {
				var message domain.Message
				if err := json.Unmarshal(value, &message); err != nil {
					return err
				}
				messages = append(messages, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if lastKey == "" {
		// Exhausted page, nothing to resume from
		return messages, nil, nil
	}
	return messages, &lastKey, nil
}

// AdvanceStatus applies one guarded filter-then-update batch over a room:
// every message whose sender differs from excludeSender and whose status is
// one of "from" is moved to "to", inside a single transaction. Rows already
// past "to" are untouched, which makes concurrent deliver/read batches
// commutative. Returns the ids that actually moved.
func (m MessageRepository) AdvanceStatus(roomID uuid.UUID, excludeSender string,
	from []domain.MessageStatus, to domain.MessageStatus) ([]uuid.UUID, error) {
	var advanced []uuid.UUID
	var err error
	for attempt := 0; attempt < advanceAttempts; attempt++ {
		advanced, err = m.advanceOnce(roomID, excludeSender, from, to)
		if !goerrors.Is(err, badger.ErrConflict) {
			return advanced, err
		}
		m.log.Debug("Status batch conflicted, retrying",
			"room", roomID, "to", to, "attempt", attempt+1)
	}
	return nil, err
}

func (m MessageRepository) advanceOnce(roomID uuid.UUID, excludeSender string,
	from []domain.MessageStatus, to domain.MessageStatus) ([]uuid.UUID, error) {
	var advanced []uuid.UUID
	err := m.db.Update(func(txn *badger.Txn) error {
		advanced = advanced[:0]
		prefix := []byte(fmt.Sprintf("msg:%s:", roomID))
		options := badger.DefaultIteratorOptions
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)

			var message domain.Message
			err := item.Value(func(value []byte) error {
				return json.Unmarshal(value, &message)
			})
			if err != nil {
				return err
			}

			if message.Sender == excludeSender {
				continue
			}
			if !lo.Contains(from, message.Status) || !message.Status.CanAdvanceTo(to) {
				continue
			}

			message.Status = to
			data, err := json.Marshal(message)
			if err != nil {
				return err
			}
			if err := txn.Set(key, data); err != nil {
				return err
			}
			advanced = append(advanced, message.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return advanced, nil
}
