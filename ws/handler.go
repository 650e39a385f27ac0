// Package ws is the websocket transport: it upgrades HTTP requests,
// authenticates them, and maps the inbound command envelope onto the
// services.
package ws

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"talkify/auth"
	"talkify/domain"
	"talkify/runtime"
	"talkify/services"

	"github.com/gorilla/websocket"
)

// Command is the inbound envelope. Every frame a client sends carries an
// action plus an action-specific payload.
type Command struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

const (
	ActionSendMessage  = "chat.sendMessage"
	ActionAddUser      = "chat.addUser"
	ActionReadMessages = "chat.readMessages"
	ActionSubscribe    = "subscribe"
	ActionUnsubscribe  = "unsubscribe"
)

type subscribePayload struct {
	Topic string `json:"topic"`
}

type Handler struct {
	upgrader   websocket.Upgrader
	handshake  auth.Handshake
	broker     *runtime.Broker
	chat       *services.ChatService
	presence   *services.PresenceService
	status     *services.StatusService
	bufferSize int
	log        *slog.Logger
}

func NewHandler(
	handshake auth.Handshake,
	broker *runtime.Broker,
	chat *services.ChatService,
	presence *services.PresenceService,
	status *services.StatusService,
	bufferSize int,
	log *slog.Logger,
) *Handler {
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		handshake:  handshake,
		broker:     broker,
		chat:       chat,
		presence:   presence,
		status:     status,
		bufferSize: bufferSize,
		log:        log,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	principal, err := h.handshake.Authenticate(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := newClient(conn, h.bufferSize, h.log)
	session := runtime.NewSession(client)
	if principal != "" {
		session.BindPrincipal(principal)
	}

	h.log.Debug("session opened",
		slog.String("session", session.ID),
		slog.String("remote", conn.RemoteAddr().String()))

	go client.writePump()
	client.readPump(func(raw []byte) {
		h.dispatch(session, raw)
	})

	// The read loop ended: the connection is gone.
	h.broker.Drop(session)
	if username, ok := session.Username(); ok {
		h.presence.Disconnect(username)
	}
	client.close()
	h.log.Debug("session closed", slog.String("session", session.ID))
}

func (h *Handler) dispatch(session *runtime.Session, raw []byte) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		h.broker.SendTo(session, runtime.ErrorEvent, "malformed command")
		return
	}

	var err error
	switch cmd.Action {
	case ActionSubscribe:
		err = h.subscribe(session, cmd.Payload)
	case ActionUnsubscribe:
		err = h.unsubscribe(session, cmd.Payload)
	case ActionAddUser:
		err = h.addUser(session, cmd.Payload)
	case ActionSendMessage:
		err = h.sendMessage(session, cmd.Payload)
	case ActionReadMessages:
		err = h.readMessages(session, cmd.Payload)
	default:
		err = fmt.Errorf("unknown action %q", cmd.Action)
	}

	if err != nil {
		h.log.Debug("command rejected",
			slog.String("action", cmd.Action), slog.Any("error", err))
		h.broker.SendTo(session, runtime.ErrorEvent, err.Error())
	}
}

// identity reconciles the username claimed in a payload with the
// authenticated principal. An authenticated session may omit the username
// but may never impersonate another one.
func (h *Handler) identity(session *runtime.Session, claimed string) (string, error) {
	principal, ok := session.Principal()
	if !ok {
		return claimed, nil
	}
	if claimed != "" && claimed != principal {
		return "", fmt.Errorf("username %q does not match the session principal", claimed)
	}
	return principal, nil
}

func (h *Handler) subscribe(session *runtime.Session, payload json.RawMessage) error {
	var sub subscribePayload
	if err := json.Unmarshal(payload, &sub); err != nil {
		return err
	}
	if sub.Topic == "" {
		return fmt.Errorf("topic is required")
	}
	h.broker.Subscribe(session, sub.Topic)
	return nil
}

func (h *Handler) unsubscribe(session *runtime.Session, payload json.RawMessage) error {
	var sub subscribePayload
	if err := json.Unmarshal(payload, &sub); err != nil {
		return err
	}
	if sub.Topic == "" {
		return fmt.Errorf("topic is required")
	}
	h.broker.Unsubscribe(session, sub.Topic)
	return nil
}

// addUser is the join flow: bind the username to the session, mark the user
// online, subscribe them to their private topic, announce the arrival and
// flush their pending deliveries.
func (h *Handler) addUser(session *runtime.Session, payload json.RawMessage) error {
	var cmd domain.AddUserCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return err
	}

	username, err := h.identity(session, cmd.SenderUsername)
	if err != nil {
		return err
	}
	cmd.SenderUsername = username
	if err := auth.ValidateAddUser(cmd); err != nil {
		return err
	}

	if _, err := h.presence.Connect(username); err != nil {
		return err
	}
	session.BindUsername(username)
	h.broker.Subscribe(session, runtime.UserTopic(username))

	if _, err := h.chat.SendMessage(domain.SendMessageCommand{
		SenderUsername: username,
		Type:           domain.JoinMessage,
	}); err != nil {
		return err
	}
	return h.status.DeliverPending(username)
}

func (h *Handler) sendMessage(session *runtime.Session, payload json.RawMessage) error {
	var cmd domain.SendMessageCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return err
	}

	username, err := h.identity(session, cmd.SenderUsername)
	if err != nil {
		return err
	}
	cmd.SenderUsername = username

	_, err = h.chat.SendMessage(cmd)
	return err
}

func (h *Handler) readMessages(session *runtime.Session, payload json.RawMessage) error {
	var cmd domain.ReadMessagesCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return err
	}

	username, err := h.identity(session, cmd.ReaderUsername)
	if err != nil {
		return err
	}
	cmd.ReaderUsername = username

	return h.status.MarkRead(cmd)
}
