// Package handlers exposes the REST side of the service: account
// management and read-only views over users, rooms and messages. Everything
// real-time goes through the websocket transport instead.
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"talkify/auth"
	"talkify/search"
	"talkify/services"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type API struct {
	authSvc   *services.AuthService
	chat      *services.ChatService
	index     search.IMessageIndex
	handshake auth.Handshake
	log       *slog.Logger
}

func NewAPI(authSvc *services.AuthService, chat *services.ChatService, index search.IMessageIndex, handshake auth.Handshake, log *slog.Logger) *API {
	return &API{authSvc: authSvc, chat: chat, index: index, handshake: handshake, log: log}
}

func (a *API) Routes(router *mux.Router) {
	router.HandleFunc("/api/auth/register", a.register).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", a.login).Methods(http.MethodPost)
	router.HandleFunc("/api/users", a.authenticated(a.listUsers)).Methods(http.MethodGet)
	router.HandleFunc("/api/messages", a.authenticated(a.listMessages)).Methods(http.MethodGet)
	router.HandleFunc("/api/messages/search", a.authenticated(a.searchMessages)).Methods(http.MethodGet)
	router.HandleFunc("/api/chatrooms/1on1", a.authenticated(a.oneOnOne)).Methods(http.MethodGet)
}

// authenticated gates a read endpoint behind the same handshake as the
// websocket upgrade, so the permissive mode behaves identically on both
// surfaces.
func (a *API) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := a.handshake.Authenticate(r); err != nil {
			respondJSON(w, http.StatusUnauthorized, errorBody{Error: "authentication required"})
			return
		}
		next(w, r)
	}
}

type loginResponse struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req auth.CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "malformed body"})
		return
	}

	token, user, err := a.authSvc.Register(req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, loginResponse{Token: token, User: user})
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req auth.CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "malformed body"})
		return
	}

	token, user, err := a.authSvc.Login(req.Username, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.chat.Users()
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

type messagesResponse struct {
	Messages   any     `json:"messages"`
	NextCursor *string `json:"nextCursor,omitempty"`
}

// listMessages pages newest-first. Without a chatRoomId it reads the public
// feed.
func (a *API) listMessages(w http.ResponseWriter, r *http.Request) {
	var roomID *uuid.UUID
	if raw := r.URL.Query().Get("chatRoomId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid chatRoomId"})
			return
		}
		roomID = &id
	}

	var cursor *string
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		cursor = &raw
	}

	messages, next, err := a.chat.History(roomID, cursor)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, messagesResponse{Messages: messages, NextCursor: next})
}

func (a *API) searchMessages(w http.ResponseWriter, r *http.Request) {
	if a.index == nil {
		respondJSON(w, http.StatusServiceUnavailable, errorBody{Error: "search is disabled"})
		return
	}

	raw := r.URL.Query().Get("q")
	if raw == "" {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "q is required"})
		return
	}

	hits, err := a.index.Search(r.Context(), search.NewQuery(raw))
	if err != nil {
		a.log.Error("search failed", slog.Any("error", err))
		respondError(w, fmt.Errorf("search failed"))
		return
	}
	respondJSON(w, http.StatusOK, hits)
}

// oneOnOne resolves (or lazily creates) the single room two users share.
func (a *API) oneOnOne(w http.ResponseWriter, r *http.Request) {
	user1 := r.URL.Query().Get("user1")
	user2 := r.URL.Query().Get("user2")
	if user1 == "" || user2 == "" {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "user1 and user2 are required"})
		return
	}

	room, err := a.chat.OneOnOne(user1, user2)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, room)
}
