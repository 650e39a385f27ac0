package runtime

import "github.com/google/uuid"

// Topic addressing glue. One public destination, one destination per room,
// and one per username for peer-addressed delivery.

const PublicTopic = "topic/public"

func RoomTopic(id uuid.UUID) string {
	return "topic/chatrooms/" + id.String()
}

func UserTopic(username string) string {
	return "topic/user/" + username
}
