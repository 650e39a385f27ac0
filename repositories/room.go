//go:generate go run go.uber.org/mock/mockgen -source=room.go -destination=../mocks/mock_room_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	goerrors "errors"
	"strings"

	"talkify/domain"
	"talkify/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IRoomRepository interface {
	Create(room domain.Room) error
	FindByID(id uuid.UUID) (domain.Room, error)
	FindByParticipant(username string) ([]domain.Room, error)
	GetOrCreatePair(user1, user2 string) (domain.Room, error)
}

// RoomRepository stores rooms with two secondary indexes:
//   - "roompair:{a}:{b}" (sorted usernames) -> room id, for idempotent
//     one-to-one room lookup
//   - "roomuser:{username}:{id}" -> marker, for participant scans
type RoomRepository struct {
	db *badger.DB
}

func NewRoomRepository(db *badger.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

func roomKey(id uuid.UUID) []byte {
	return []byte("room:" + id.String())
}

func pairKey(user1, user2 string) []byte {
	a, b := user1, user2
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return []byte("roompair:" + a + ":" + b)
}

func participantKey(username string, id uuid.UUID) []byte {
	return []byte("roomuser:" + username + ":" + id.String())
}

func (r RoomRepository) Create(room domain.Room) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return writeRoom(txn, room)
	})
}

func writeRoom(txn *badger.Txn, room domain.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	if err := txn.Set(roomKey(room.ID), data); err != nil {
		return err
	}
	for _, p := range room.Participants {
		if err := txn.Set(participantKey(p, room.ID), nil); err != nil {
			return err
		}
	}
	if !room.GroupChat && len(room.Participants) == 2 {
		key := pairKey(room.Participants[0], room.Participants[1])
		if err := txn.Set(key, []byte(room.ID.String())); err != nil {
			return err
		}
	}
	return nil
}

func (r RoomRepository) FindByID(id uuid.UUID) (domain.Room, error) {
	var room domain.Room
	err := r.db.View(func(txn *badger.Txn) error {
		return readRoom(txn, id, &room)
	})
	if goerrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Room{}, errors.ErrRoomNotFound
	}
	return room, err
}

func readRoom(txn *badger.Txn, id uuid.UUID, room *domain.Room) error {
	item, err := txn.Get(roomKey(id))
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, room)
	})
}

func (r RoomRepository) FindByParticipant(username string) ([]domain.Room, error) {
	var rooms []domain.Room
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefixStr := "roomuser:" + username + ":"
		prefix := []byte(prefixStr)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			rawID := strings.TrimPrefix(string(it.Item().Key()), prefixStr)
			id, err := uuid.Parse(rawID)
			if err != nil {
				return err
			}
			var room domain.Room
			if err := readRoom(txn, id, &room); err != nil {
				return err
			}
			rooms = append(rooms, room)
		}
		return nil
	})
	return rooms, err
}

// GetOrCreatePair returns the one-to-one room for an unordered username pair,
// creating it on first use. Both orders of arguments resolve to the same room.
func (r RoomRepository) GetOrCreatePair(user1, user2 string) (domain.Room, error) {
	if user1 == user2 {
		return domain.Room{}, errors.ErrSamePairUser
	}
	var room domain.Room
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(pairKey(user1, user2))
		if err == nil {
			return item.Value(func(val []byte) error {
				id, err := uuid.Parse(string(val))
				if err != nil {
					return err
				}
				return readRoom(txn, id, &room)
			})
		}
		if !goerrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		room = domain.NewPairRoom(user1, user2)
		return writeRoom(txn, room)
	})
	return room, err
}
