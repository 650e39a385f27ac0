package domain

import (
	"time"

	"github.com/google/uuid"
)

// Room groups participants behind a single destination.
// Participants are identifiers, not embedded users, and the set is fixed at
// creation: there is no add/remove operation. A non-group room holds exactly
// two participants for its entire lifetime.
type Room struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name,omitempty"`
	GroupChat    bool      `json:"groupChat"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewPairRoom builds a one-to-one room for two distinct usernames.
func NewPairRoom(user1, user2 string) Room {
	return Room{
		ID:           uuid.New(),
		GroupChat:    false,
		Participants: []string{user1, user2},
		CreatedAt:    time.Now().UTC(),
	}
}

func (r Room) HasParticipant(username string) bool {
	for _, p := range r.Participants {
		if p == username {
			return true
		}
	}
	return false
}

// OtherParticipants returns every participant except the given username.
func (r Room) OtherParticipants(username string) []string {
	var others []string
	for _, p := range r.Participants {
		if p != username {
			others = append(others, p)
		}
	}
	return others
}
