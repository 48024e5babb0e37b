package api

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/yourorg/groupchat/realtime-service/internal/hub"
)

const outboundQueueSize = 256

var (
	errConnClosed    = errors.New("connection closed")
	errSendQueueFull = errors.New("outbound queue full")
)

// wsConn adapts a fiber websocket to the session transport. Send only
// enqueues: a single writePump goroutine drains the outbound queue, so
// delivery order on the socket matches enqueue order and the hub can call
// Send while holding its lock. A full queue means the client stopped
// reading; Send reports it as a failure and the hub evicts the connection
// instead of letting it wedge a whole room's fan-out.
type wsConn struct {
	id            string
	ws            *websocket.Conn
	writeDeadline time.Duration
	pingInterval  time.Duration
	readTimeout   time.Duration

	out  chan hub.Event
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

func newWSConn(ws *websocket.Conn, writeDeadline, pingInterval time.Duration, maxMessageSize int64) *wsConn {
	c := &wsConn{
		id:            uuid.New().String(),
		ws:            ws,
		writeDeadline: writeDeadline,
		pingInterval:  pingInterval,
		readTimeout:   pingInterval * 2,
		out:           make(chan hub.Event, outboundQueueSize),
		done:          make(chan struct{}),
	}
	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(c.readTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(c.readTimeout))
	})
	go c.writePump()
	return c
}

func (c *wsConn) ID() string { return c.id }

// Send enqueues e for the writePump. It never performs I/O and never
// blocks.
func (c *wsConn) Send(e hub.Event) error {
	select {
	case <-c.done:
		return errConnClosed
	default:
	}
	select {
	case c.out <- e:
		return nil
	default:
		return errSendQueueFull
	}
}

// Receive blocks until the next text frame or a transport error.
func (c *wsConn) Receive() ([]byte, error) {
	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			return nil, err
		}
		if mt == websocket.TextMessage {
			return data, nil
		}
	}
}

func (c *wsConn) Close(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(time.Second))
	return c.ws.Close()
}

// writePump is the sole writer of data frames. A write failure tears the
// socket down, which surfaces as a read error in the session loop and runs
// the normal disconnect path.
func (c *wsConn) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case e := <-c.out:
			b, err := json.Marshal(e)
			if err != nil {
				continue
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeDeadline))
			if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
				_ = c.ws.Close()
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
				_ = c.ws.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}
