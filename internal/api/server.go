package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/yourorg/groupchat/realtime-service/internal/config"
	"github.com/yourorg/groupchat/realtime-service/internal/hub"
	"github.com/yourorg/groupchat/realtime-service/internal/metrics"
	"github.com/yourorg/groupchat/realtime-service/internal/presence"
	"github.com/yourorg/groupchat/realtime-service/internal/session"
)

type Server struct {
	cfg      *config.Config
	hub      *hub.Hub
	handler  *session.Handler
	presence *presence.Store
}

// NewServer wires the fiber app: the websocket endpoint per room, the HTTP
// presence fallback, health and metrics. pres may be nil when no Redis
// mirror is configured.
func NewServer(cfg *config.Config, h *hub.Hub, sh *session.Handler, pres *presence.Store) *fiber.App {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())
	s := &Server{cfg: cfg, hub: h, handler: sh, presence: pres}

	app.Get("/v1/health", s.health)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	app.Get("/v1/groups/:group_id/online", s.getOnline)
	app.Get("/v1/users/:user_id/presence", s.getPresence)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/groups/:group_id", websocket.New(s.handleWS))

	return app
}

func (s *Server) health(c *fiber.Ctx) error {
	rooms, conns := s.hub.Stats()
	return c.JSON(fiber.Map{"status": "ok", "rooms": rooms, "connections": conns})
}

// getOnline is the HTTP fallback for clients without a live socket.
func (s *Server) getOnline(c *fiber.Ctx) error {
	roomID := c.Params("group_id")
	online := s.hub.ListOnlineUsers(roomID)
	typing := s.hub.ListTyping(roomID)
	if online == nil {
		online = []string{}
	}
	if typing == nil {
		typing = []string{}
	}
	return c.JSON(fiber.Map{"online": online, "typing": typing})
}

// getPresence serves the Redis-mirrored online status for a user,
// including users whose sockets terminate on other instances.
func (s *Server) getPresence(c *fiber.Ctx) error {
	if s.presence == nil {
		return fiber.ErrNotFound
	}
	doc, err := s.presence.GetPresence(c.Context(), c.Params("user_id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "unknown"})
	}
	return c.JSON(doc)
}

func (s *Server) handleWS(ws *websocket.Conn) {
	roomID := ws.Params("group_id")
	token := ws.Query("token")
	conn := newWSConn(ws, s.cfg.WriteDeadline, s.cfg.PingInterval, s.cfg.WS.MaxMessageSizeBytes)
	s.handler.Run(roomID, token, conn)
}
