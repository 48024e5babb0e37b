package api

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourorg/groupchat/realtime-service/internal/chat"
	"github.com/yourorg/groupchat/realtime-service/internal/config"
	"github.com/yourorg/groupchat/realtime-service/internal/hub"
	"github.com/yourorg/groupchat/realtime-service/internal/session"
)

type stubConn struct{ id string }

func (s *stubConn) ID() string              { return s.id }
func (s *stubConn) Send(hub.Event) error    { return nil }
func (s *stubConn) Close(int, string) error { return nil }

func testApp(t *testing.T) (*hub.Hub, *fiber.App) {
	t.Helper()
	cfg := &config.Config{}
	cfg.WriteDeadline = 10 * time.Second
	cfg.PingInterval = 25 * time.Second
	cfg.WS.MaxMessageSizeBytes = 65536

	h := hub.New(zap.NewNop().Sugar(), 5*time.Second)
	handler := &session.Handler{
		Hub:  h,
		Chat: chat.NewMemory(),
		Log:  zap.NewNop().Sugar(),
	}
	return h, NewServer(cfg, h, handler, nil)
}

func TestHealth(t *testing.T) {
	h, app := testApp(t)
	h.Register(&stubConn{id: "a"}, "r1", "alice")

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Status      string `json:"status"`
		Rooms       int    `json:"rooms"`
		Connections int    `json:"connections"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 1, body.Rooms)
	assert.Equal(t, 1, body.Connections)
}

func TestGetOnline(t *testing.T) {
	h, app := testApp(t)
	h.Register(&stubConn{id: "a1"}, "r1", "alice")
	h.Register(&stubConn{id: "a2"}, "r1", "alice")
	h.Register(&stubConn{id: "b"}, "r1", "bob")
	h.SetTyping("r1", "alice", "Alice")

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/groups/r1/online", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Online []string `json:"online"`
		Typing []string `json:"typing"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"alice", "bob"}, body.Online)
	assert.Equal(t, []string{"alice"}, body.Typing)
}

func TestGetOnline_UnknownRoom(t *testing.T) {
	_, app := testApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/groups/ghost/online", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Online []string `json:"online"`
		Typing []string `json:"typing"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Empty(t, body.Online)
	assert.Empty(t, body.Typing)
}

func TestGetPresence_NoMirrorConfigured(t *testing.T) {
	_, app := testApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/users/alice/presence", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestWSRouteRequiresUpgrade(t *testing.T) {
	_, app := testApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/ws/groups/r1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
