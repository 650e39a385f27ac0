package errors

import "fmt"

var (
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrRoomNotFound       = fmt.Errorf("room not found")
	ErrSamePairUser       = fmt.Errorf("a one-to-one room needs two distinct users")
	ErrAmbiguousTarget    = fmt.Errorf("chatRoomId and recipient are mutually exclusive")
	ErrEmptyContent       = fmt.Errorf("a chat message needs a content")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrUnauthenticated    = fmt.Errorf("authentication required")
)
