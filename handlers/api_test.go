package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"talkify/auth"
	"talkify/domain"
	"talkify/moderation"
	"talkify/repositories"
	"talkify/search"
	"talkify/services"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	server *httptest.Server
	chat   *services.ChatService
}

// nopPublisher drops frames; the REST surface never fans out.
type nopPublisher struct{}

func (nopPublisher) Publish(string, string, any) {}

func newAPIFixture(t *testing.T, authRequired bool) *apiFixture {
	t.Helper()

	opts := badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	log := slog.Default()
	users := repositories.NewUserRepository(db)
	rooms := repositories.NewRoomRepository(db)
	messages := repositories.NewMessageRepository(db, log, nil)

	moderator, err := moderation.NewModerator([]string{"darn"}, '*')
	require.NoError(t, err)

	index, err := search.OpenMessageIndex(t.TempDir(), log)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, index.Close())
	})

	chat := services.NewChatService(users, rooms, messages, index, &moderator, nopPublisher{}, log)
	authSvc := services.NewAuthService(users, time.Hour, log)
	handshake := auth.NewHandshake(users, authRequired, log)

	router := mux.NewRouter()
	NewAPI(authSvc, chat, index, handshake, log).Routes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &apiFixture{server: server, chat: chat}
}

func (f *apiFixture) post(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(f.server.URL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func (f *apiFixture) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(f.server.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

const strongPassword = "Str0ng&Secret!42"

func Test_Register_And_Login(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t, false)

	creds := auth.CredentialsRequest{Username: "alice", Password: strongPassword}

	resp := f.post(t, "/api/auth/register", creds)
	req.Equal(http.StatusCreated, resp.StatusCode)
	registered := decode[map[string]json.RawMessage](t, resp)
	req.Contains(registered, "token")
	req.Contains(registered, "user")

	resp = f.post(t, "/api/auth/register", creds)
	req.Equal(http.StatusConflict, resp.StatusCode)

	resp = f.post(t, "/api/auth/login", creds)
	req.Equal(http.StatusOK, resp.StatusCode)
	login := decode[map[string]json.RawMessage](t, resp)
	req.Contains(login, "token")

	resp = f.post(t, "/api/auth/login", auth.CredentialsRequest{Username: "alice", Password: "Wr0ng&Secret!42"})
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func Test_Register_Rejects_Weak_Password(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t, false)

	resp := f.post(t, "/api/auth/register", auth.CredentialsRequest{Username: "alice", Password: "short"})
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func Test_List_Users(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t, false)

	_, err := f.chat.SendMessage(domain.SendMessageCommand{
		Content: "hi", SenderUsername: "alice", Type: domain.ChatMessage,
	})
	req.NoError(err)

	resp := f.get(t, "/api/users")
	req.Equal(http.StatusOK, resp.StatusCode)
	users := decode[[]domain.User](t, resp)
	req.Len(users, 1)
	req.Equal("alice", users[0].Username)
}

func Test_List_Messages(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t, false)

	_, err := f.chat.SendMessage(domain.SendMessageCommand{
		Content: "public note", SenderUsername: "alice", Type: domain.ChatMessage,
	})
	req.NoError(err)
	private, err := f.chat.SendMessage(domain.SendMessageCommand{
		Content: "private note", SenderUsername: "alice", Recipient: "bob", Type: domain.ChatMessage,
	})
	req.NoError(err)

	resp := f.get(t, "/api/messages")
	req.Equal(http.StatusOK, resp.StatusCode)
	feed := decode[messagesResponse](t, resp)
	raw, _ := json.Marshal(feed.Messages)
	var publicFeed []domain.Message
	req.NoError(json.Unmarshal(raw, &publicFeed))
	req.Len(publicFeed, 1)
	req.Equal("public note", publicFeed[0].Content)

	resp = f.get(t, "/api/messages?chatRoomId="+private.RoomID.String())
	req.Equal(http.StatusOK, resp.StatusCode)

	resp = f.get(t, "/api/messages?chatRoomId=not-a-uuid")
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func Test_List_Messages_Unknown_Room(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t, false)

	resp := f.get(t, "/api/messages?chatRoomId=6fa459ea-ee8a-3ca4-894e-db77e160355e")
	req.Equal(http.StatusNotFound, resp.StatusCode)
}

func Test_OneOnOne_Room(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t, false)

	resp := f.get(t, "/api/chatrooms/1on1?user1=alice&user2=bob")
	req.Equal(http.StatusOK, resp.StatusCode)
	room := decode[domain.Room](t, resp)
	req.ElementsMatch([]string{"alice", "bob"}, room.Participants)

	// Idempotent across the REST surface too
	resp = f.get(t, "/api/chatrooms/1on1?user1=bob&user2=alice")
	req.Equal(http.StatusOK, resp.StatusCode)
	again := decode[domain.Room](t, resp)
	req.Equal(room.ID, again.ID)

	resp = f.get(t, "/api/chatrooms/1on1?user1=alice&user2=alice")
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func Test_Search_Messages(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t, false)

	_, err := f.chat.SendMessage(domain.SendMessageCommand{
		Content: "the quarterly invoice is ready", SenderUsername: "alice", Type: domain.ChatMessage,
	})
	req.NoError(err)

	resp := f.get(t, "/api/messages/search?q=invoice")
	req.Equal(http.StatusOK, resp.StatusCode)
	hits := decode[[]search.Hit](t, resp)
	req.Len(hits, 1)
	req.Equal("alice", hits[0].Sender)

	resp = f.get(t, "/api/messages/search")
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func Test_Reads_Require_Auth_In_Strict_Mode(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t, true)

	resp := f.get(t, "/api/users")
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	// Register and login stay open
	resp = f.post(t, "/api/auth/register", auth.CredentialsRequest{Username: "alice", Password: strongPassword})
	req.Equal(http.StatusCreated, resp.StatusCode)
}
