package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Status_Lifecycle_Is_One_Directional(t *testing.T) {
	req := require.New(t)

	req.True(StatusSent.CanAdvanceTo(StatusDelivered))
	req.True(StatusSent.CanAdvanceTo(StatusRead))
	req.True(StatusDelivered.CanAdvanceTo(StatusRead))

	// No regression, no self transition
	req.False(StatusDelivered.CanAdvanceTo(StatusSent))
	req.False(StatusRead.CanAdvanceTo(StatusDelivered))
	req.False(StatusRead.CanAdvanceTo(StatusSent))
	req.False(StatusSent.CanAdvanceTo(StatusSent))
	req.False(StatusRead.CanAdvanceTo(StatusRead))
}

func Test_Unknown_Status_Never_Wins(t *testing.T) {
	req := require.New(t)
	var unknown MessageStatus = "GARBAGE"

	req.False(StatusSent.CanAdvanceTo(unknown))
	req.True(unknown.CanAdvanceTo(StatusSent))
}

func Test_Pair_Room_Participants(t *testing.T) {
	req := require.New(t)
	room := NewPairRoom("alice", "bob")

	req.False(room.GroupChat)
	req.Len(room.Participants, 2)
	req.True(room.HasParticipant("alice"))
	req.True(room.HasParticipant("bob"))
	req.False(room.HasParticipant("mallory"))
	req.Equal([]string{"bob"}, room.OtherParticipants("alice"))
}
