package session

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yourorg/groupchat/realtime-service/internal/auth"
	"github.com/yourorg/groupchat/realtime-service/internal/chat"
	"github.com/yourorg/groupchat/realtime-service/internal/hub"
	"github.com/yourorg/groupchat/realtime-service/internal/metrics"
)

// Close codes sent before tearing down an unauthenticated or unauthorized
// connection. The transport accept has already happened at this point, so a
// structured close frame with a reason can always be delivered.
const (
	CloseUnauthenticated = 4001
	CloseForbidden       = 4003
	closeInternal        = 1011
)

// Conn is the transport a session drives: the hub's Connection plus a
// blocking receive.
type Conn interface {
	hub.Connection
	Receive() ([]byte, error)
}

// Publisher forwards accepted messages to the event pipeline. Best-effort.
type Publisher interface {
	PublishMessageSent(ctx context.Context, payload any) error
}

// Mirror reflects connect/disconnect into an external presence store.
// Best-effort.
type Mirror interface {
	ConnectionOpened(ctx context.Context, userID, connID, roomID string) error
	ConnectionClosed(ctx context.Context, userID, connID string) error
}

// Handler runs the per-connection protocol: authenticate, authorize,
// register, then the message loop until the transport closes.
type Handler struct {
	Hub      *hub.Hub
	Chat     chat.Service
	Verifier auth.Verifier
	Log      *zap.SugaredLogger

	Publisher Publisher // optional
	Presence  Mirror    // optional

	// Inbound frame budget per connection; zero disables limiting.
	RateLimit float64
	RateBurst int
}

// Run drives conn through the session state machine. It returns when the
// connection is closed, whatever the cause.
func (h *Handler) Run(roomID, token string, conn Conn) {
	ctx := context.Background()

	if token == "" {
		h.Log.Warnw("connection without token", "room", roomID)
		_ = conn.Close(CloseUnauthenticated, "missing token")
		return
	}
	ident, err := h.Verifier.Verify(token)
	if err != nil {
		h.Log.Warnw("token rejected", "room", roomID, "error", err)
		_ = conn.Close(CloseUnauthenticated, "invalid token")
		return
	}

	member, err := h.Chat.IsMember(ctx, roomID, ident.UserID)
	if err != nil {
		h.Log.Errorw("membership check failed", "room", roomID, "user", ident.UserID, "error", err)
		_ = conn.Close(closeInternal, "membership check failed")
		return
	}
	if !member {
		_ = conn.Close(CloseForbidden, "not a room member")
		return
	}

	userName := h.displayName(ctx, ident)

	h.Hub.Connect(conn, roomID, ident.UserID)
	if h.Presence != nil {
		if err := h.Presence.ConnectionOpened(ctx, ident.UserID, conn.ID(), roomID); err != nil {
			h.Log.Debugw("presence mirror open failed", "error", err)
		}
	}

	h.readLoop(ctx, roomID, ident.UserID, userName, conn)

	h.Hub.Disconnect(conn)
	if h.Presence != nil {
		if err := h.Presence.ConnectionClosed(ctx, ident.UserID, conn.ID()); err != nil {
			h.Log.Debugw("presence mirror close failed", "error", err)
		}
	}
	_ = conn.Close(1000, "")
}

func (h *Handler) readLoop(ctx context.Context, roomID, userID, userName string, conn Conn) {
	var limiter *rate.Limiter
	if h.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(h.RateLimit), h.RateBurst)
	}

	for {
		data, err := conn.Receive()
		if err != nil {
			return
		}
		if limiter != nil && !limiter.Allow() {
			h.Log.Warnw("inbound rate exceeded, frame dropped", "room", roomID, "user", userID)
			continue
		}

		frame, err := DecodeFrame(data)
		if err != nil {
			h.Log.Warnw("malformed frame ignored", "room", roomID, "user", userID, "error", err)
			continue
		}

		switch f := frame.(type) {
		case MessageFrame:
			h.handleMessage(ctx, roomID, userID, f)
		case TypingFrame:
			h.Hub.SetTyping(roomID, userID, userName)
		case StopTypingFrame:
			h.Hub.ClearTyping(roomID, userID)
		case ReadFrame:
			if f.MessageID == "" {
				continue
			}
			if err := h.Chat.MarkRead(ctx, roomID, userID, f.MessageID); err != nil {
				h.Log.Warnw("mark read failed", "room", roomID, "user", userID, "error", err)
			}
		case PingFrame:
			if err := conn.Send(hub.Pong()); err != nil {
				return
			}
		}
	}
}

// handleMessage persists a message through the chat collaborator and, on
// success, re-broadcasts the canonical stored form to the whole room,
// sender included, and clears the sender's typing flag. Rejections are
// logged and silently skipped; the connection stays active.
func (h *Handler) handleMessage(ctx context.Context, roomID, userID string, f MessageFrame) {
	content := strings.TrimSpace(f.Content)
	if content == "" {
		return
	}

	msg, err := h.Chat.SendMessage(ctx, chat.SendMessageInput{
		GroupID:     roomID,
		SenderID:    userID,
		Content:     content,
		MessageType: f.MessageType,
		ReplyToID:   f.ReplyToID,
	})
	if err != nil {
		if errors.Is(err, chat.ErrPermissionDenied) {
			h.Log.Infow("message rejected", "room", roomID, "user", userID)
		} else {
			h.Log.Errorw("send message failed", "room", roomID, "user", userID, "error", err)
		}
		return
	}

	metrics.Messages.Inc()
	h.Hub.Broadcast(roomID, hub.NewMessage(msg), nil)
	h.Hub.ClearTyping(roomID, userID)

	for _, mentioned := range msg.Mentions {
		h.Hub.SendToUser(roomID, mentioned, hub.Mention(msg.ID))
	}

	if h.Publisher != nil {
		if err := h.Publisher.PublishMessageSent(ctx, msg); err != nil {
			h.Log.Warnw("publish message event failed", "message", msg.ID, "error", err)
		}
	}
}

// displayName resolves the name shown on typing indicators, falling back to
// the email local part, then a generic placeholder.
func (h *Handler) displayName(ctx context.Context, ident *auth.Identity) string {
	if p, err := h.Chat.GetProfile(ctx, ident.UserID); err == nil && p.DisplayName != "" {
		return p.DisplayName
	}
	if at := strings.IndexByte(ident.Email, '@'); at > 0 {
		return ident.Email[:at]
	}
	return "Someone"
}
