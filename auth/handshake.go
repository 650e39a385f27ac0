package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"talkify/domain"
	"talkify/errors"
)

// UserDirectory resolves a token subject to a known user.
type UserDirectory interface {
	Get(username string) (domain.User, error)
}

// Handshake authenticates the connection-establishment request, before any
// subscribe or publish is permitted on the session.
//
// With required=false it reproduces the legacy posture: every failure
// (missing header, malformed token, expiry, signature mismatch, unknown
// subject) is swallowed and the connection proceeds unauthenticated. The
// default posture is required=true, which rejects the handshake instead.
type Handshake struct {
	users    UserDirectory
	required bool
	log      *slog.Logger
}

func NewHandshake(users UserDirectory, required bool, log *slog.Logger) Handshake {
	return Handshake{users: users, required: required, log: log}
}

// Authenticate extracts and validates the bearer token of an upgrade request
// and returns the principal to bind to the session. An empty principal with a
// nil error means the permissive mode let an unauthenticated session through.
func (h Handshake) Authenticate(r *http.Request) (string, error) {
	token := bearerToken(r)
	if token == "" {
		return h.deny(fmt.Errorf("%w: no bearer token", errors.ErrUnauthenticated))
	}

	claims, err := ValidateToken(token)
	if err != nil {
		return h.deny(fmt.Errorf("%w: %v", errors.ErrUnauthenticated, err))
	}
	if claims.Username == "" {
		return h.deny(fmt.Errorf("%w: token has no subject", errors.ErrUnauthenticated))
	}

	if _, err := h.users.Get(claims.Username); err != nil {
		return h.deny(fmt.Errorf("%w: unknown subject %q", errors.ErrUnauthenticated, claims.Username))
	}

	return claims.Username, nil
}

func (h Handshake) deny(err error) (string, error) {
	if h.required {
		return "", err
	}
	h.log.Debug("Handshake failed, proceeding unauthenticated", "err", err)
	return "", nil
}

// bearerToken reads the Authorization header, falling back to the "token"
// query parameter since browser WebSocket clients cannot set headers.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
