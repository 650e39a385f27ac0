package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

// BaseSuite carries the shared plumbing of every scenario: configuration,
// colorized step logging, websocket dialing and the REST helpers.
type BaseSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerAddr == "" {
		s.T().Skip("E2E_SERVER_ADDR not set, skipping end-to-end scenarios")
	}
}

// Step prints a colorized header so scenario logs read as a storyboard.
func (s *BaseSuite) Step(t *testing.T, name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)
}

// Frame mirrors the outbound envelope of the server.
type Frame struct {
	Topic string          `json:"topic"`
	Event string          `json:"event"`
	Body  json.RawMessage `json:"body"`
}

// Command mirrors the inbound envelope of the server.
type Command struct {
	Action  string `json:"action"`
	Payload any    `json:"payload"`
}

// Dial opens an authenticated websocket session against the server.
func (s *BaseSuite) Dial(t *testing.T, token string) *websocket.Conn {
	url := "ws://" + s.Config.ServerAddr + "/ws"
	if token != "" {
		url += "?token=" + token
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}

func (s *BaseSuite) SendCommand(conn *websocket.Conn, action string, payload any) {
	raw, err := json.Marshal(Command{Action: action, Payload: payload})
	s.Require().NoError(err)
	if s.Config.DebugFrames {
		s.T().Logf(">> %s", raw)
	}
	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, raw))
}

// AwaitFrame reads frames until one matches or the deadline hits.
func (s *BaseSuite) AwaitFrame(conn *websocket.Conn, match func(Frame) bool) Frame {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	for {
		_, raw, err := conn.ReadMessage()
		s.Require().NoError(err, "no matching frame before deadline")
		if s.Config.DebugFrames {
			s.T().Logf("<< %s", raw)
		}

		var frame Frame
		s.Require().NoError(json.Unmarshal(raw, &frame))
		if match(frame) {
			return frame
		}
	}
}

// PostJSON calls a REST endpoint and decodes the response into out.
func (s *BaseSuite) PostJSON(path string, body any, out any) int {
	raw, err := json.Marshal(body)
	s.Require().NoError(err)

	resp, err := http.Post("http://"+s.Config.ServerAddr+path, "application/json", bytes.NewReader(raw))
	s.Require().NoError(err)
	defer resp.Body.Close()

	if out != nil {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}
