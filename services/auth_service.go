package services

import (
	"fmt"
	"log/slog"
	"time"

	"talkify/auth"
	"talkify/domain"
	"talkify/errors"
	"talkify/repositories"
)

type AuthService struct {
	users         repositories.IUserRepository
	tokenDuration time.Duration
	log           *slog.Logger
}

func NewAuthService(users repositories.IUserRepository, tokenDuration time.Duration, log *slog.Logger) *AuthService {
	return &AuthService{users: users, tokenDuration: tokenDuration, log: log}
}

// Register creates a credentialed account and mints its first token.
// Accounts created lazily by the message flow have no password hash and
// cannot log in until registered.
func (s *AuthService) Register(req auth.CredentialsRequest) (string, domain.User, error) {
	if err := auth.ValidateCredentials(req); err != nil {
		return "", domain.User{}, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := domain.NewUser(req.Username)
	user.PasswordHash = hash
	if err := s.users.Create(user); err != nil {
		return "", domain.User{}, err
	}

	token, err := auth.GenerateToken(user.Username, s.tokenDuration)
	if err != nil {
		s.log.Error("failed to generate token", slog.Any("error", err))
		return "", domain.User{}, errors.ErrTokenGeneration
	}

	s.log.Info("user registered", slog.String("username", user.Username))
	return token, user, nil
}

// Login verifies the credentials and mints a session token. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(username, password string) (string, domain.User, error) {
	user, err := s.users.Get(username)
	if err != nil {
		return "", domain.User{}, errors.ErrInvalidCredentials
	}
	if user.PasswordHash == "" {
		return "", domain.User{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", domain.User{}, errors.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.Username, s.tokenDuration)
	if err != nil {
		s.log.Error("failed to generate token", slog.Any("error", err))
		return "", domain.User{}, errors.ErrTokenGeneration
	}
	return token, user, nil
}
