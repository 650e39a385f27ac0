package services

import (
	"testing"

	"talkify/auth"
	"talkify/errors"

	"github.com/stretchr/testify/require"
)

const strongPassword = "Str0ng&Secret!42"

func Test_Register_Then_Login(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	firstToken, user, err := f.authSvc.Register(auth.CredentialsRequest{Username: "alice", Password: strongPassword})
	req.NoError(err)
	req.Equal("alice", user.Username)

	claims, err := auth.ValidateToken(firstToken)
	req.NoError(err)
	req.Equal("alice", claims.Username)

	token, logged, err := f.authSvc.Login("alice", strongPassword)
	req.NoError(err)
	req.Equal(user.ID, logged.ID)

	claims, err = auth.ValidateToken(token)
	req.NoError(err)
	req.Equal("alice", claims.Username)
}

func Test_Register_Duplicate_Is_Rejected(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	creds := auth.CredentialsRequest{Username: "alice", Password: strongPassword}
	_, _, err := f.authSvc.Register(creds)
	req.NoError(err)

	_, _, err = f.authSvc.Register(creds)
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func Test_Login_Failures_Are_Indistinguishable(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	_, _, err := f.authSvc.Register(auth.CredentialsRequest{Username: "alice", Password: strongPassword})
	req.NoError(err)

	// Unknown user
	_, _, err = f.authSvc.Login("nobody", strongPassword)
	req.ErrorIs(err, errors.ErrInvalidCredentials)

	// Wrong password
	_, _, err = f.authSvc.Login("alice", "Wr0ng&Secret!42")
	req.ErrorIs(err, errors.ErrInvalidCredentials)

	// Lazily created user, no credentials on record
	_, err = f.users.GetOrCreate("ghost")
	req.NoError(err)
	_, _, err = f.authSvc.Login("ghost", strongPassword)
	req.ErrorIs(err, errors.ErrInvalidCredentials)
}
