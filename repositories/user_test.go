package repositories

import (
	"testing"
	"time"

	"talkify/domain"
	"talkify/errors"

	"github.com/stretchr/testify/require"
)

func Test_GetOrCreate_Is_Lazy_And_Stable(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	user, err := repository.GetOrCreate("alice")
	req.NoError(err)
	req.Equal("alice", user.Username)
	req.False(user.Online)
	req.Nil(user.LastSeen)

	same, err := repository.GetOrCreate("alice")
	req.NoError(err)
	req.Equal(user.ID, same.ID)
}

func Test_Create_Rejects_Taken_Username(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	req.NoError(repository.Create(domain.NewUser("alice")))
	req.ErrorIs(repository.Create(domain.NewUser("alice")), errors.ErrUserAlreadyExists)
}

func Test_Presence_Flags(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	_, err := repository.GetOrCreate("alice")
	req.NoError(err)

	req.NoError(repository.SetOnline("alice"))
	user, err := repository.Get("alice")
	req.NoError(err)
	req.True(user.Online)

	lastSeen := time.Now().UTC().Truncate(time.Second)
	req.NoError(repository.SetOffline("alice", lastSeen))
	user, err = repository.Get("alice")
	req.NoError(err)
	req.False(user.Online)
	req.NotNil(user.LastSeen)
	req.Equal(lastSeen, *user.LastSeen)
}

func Test_Presence_On_Unknown_User(t *testing.T) {
	repository := NewUserRepository(openTestDB(t))
	require.ErrorIs(t, repository.SetOnline("ghost"), errors.ErrUserNotFound)
}

func Test_List_Users(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openTestDB(t))

	_, err := repository.GetOrCreate("alice")
	req.NoError(err)
	_, err = repository.GetOrCreate("bob")
	req.NoError(err)

	users, err := repository.List()
	req.NoError(err)
	req.Len(users, 2)
}
