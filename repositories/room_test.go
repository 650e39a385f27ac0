package repositories

import (
	"testing"

	"talkify/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_Pair_Room_Is_Idempotent_And_Unordered(t *testing.T) {
	req := require.New(t)
	repository := NewRoomRepository(openTestDB(t))

	first, err := repository.GetOrCreatePair("alice", "bob")
	req.NoError(err)
	req.False(first.GroupChat)
	req.Len(first.Participants, 2)

	// Same pair, both argument orders, always the same room
	again, err := repository.GetOrCreatePair("alice", "bob")
	req.NoError(err)
	req.Equal(first.ID, again.ID)

	flipped, err := repository.GetOrCreatePair("bob", "alice")
	req.NoError(err)
	req.Equal(first.ID, flipped.ID)
}

func Test_Pair_Room_Rejects_Same_User(t *testing.T) {
	repository := NewRoomRepository(openTestDB(t))
	_, err := repository.GetOrCreatePair("alice", "alice")
	require.ErrorIs(t, err, errors.ErrSamePairUser)
}

func Test_Find_Rooms_By_Participant(t *testing.T) {
	req := require.New(t)
	repository := NewRoomRepository(openTestDB(t))

	withBob, err := repository.GetOrCreatePair("alice", "bob")
	req.NoError(err)
	_, err = repository.GetOrCreatePair("bob", "clara")
	req.NoError(err)

	rooms, err := repository.FindByParticipant("alice")
	req.NoError(err)
	req.Len(rooms, 1)
	req.Equal(withBob.ID, rooms[0].ID)

	rooms, err = repository.FindByParticipant("bob")
	req.NoError(err)
	req.Len(rooms, 2)

	rooms, err = repository.FindByParticipant("nobody")
	req.NoError(err)
	req.Empty(rooms)
}

func Test_Unknown_Room_Lookup(t *testing.T) {
	repository := NewRoomRepository(openTestDB(t))
	_, err := repository.FindByID(uuid.New())
	require.ErrorIs(t, err, errors.ErrRoomNotFound)
}
