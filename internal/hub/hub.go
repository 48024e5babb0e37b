package hub

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/groupchat/realtime-service/internal/metrics"
)

// Connection is one live bidirectional session bound to a single room and
// user. The concrete transport lives in the api package; tests use mocks.
//
// Send enqueues e on the connection's ordered outbound queue and must not
// block: the hub calls it while holding its lock, which is what serializes
// delivery order across broadcasters. Implementations return an error when
// the queue is full or the connection is closed.
type Connection interface {
	ID() string
	Send(e Event) error
	Close(code int, reason string) error
}

type connInfo struct {
	userID string
	roomID string
}

// Hub tracks which connections belong to which room, who is typing, and
// fans events out to rooms. One mutex guards all three maps so membership,
// typing and fan-out stay consistent; sends are queue enqueues, so holding
// the lock through them is cheap and gives every connection the same event
// order.
type Hub struct {
	log       *zap.SugaredLogger
	typingTTL time.Duration
	now       func() time.Time

	mu     sync.Mutex
	rooms  map[string]map[Connection]struct{}
	conns  map[Connection]connInfo
	typing map[string]map[string]time.Time
}

func New(log *zap.SugaredLogger, typingTTL time.Duration) *Hub {
	return &Hub{
		log:       log,
		typingTTL: typingTTL,
		now:       time.Now,
		rooms:     make(map[string]map[Connection]struct{}),
		conns:     make(map[Connection]connInfo),
		typing:    make(map[string]map[string]time.Time),
	}
}

// Register adds conn to roomID's membership set and records its owner.
func (h *Hub) Register(conn Connection, roomID, userID string) {
	h.mu.Lock()
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[Connection]struct{})
		metrics.Rooms.Inc()
	}
	h.rooms[roomID][conn] = struct{}{}
	h.conns[conn] = connInfo{userID: userID, roomID: roomID}
	h.mu.Unlock()

	metrics.Connections.Inc()
	h.log.Infow("client connected", "room", roomID, "user", userID, "conn", conn.ID())
}

// Deregister removes conn from the registry. Safe to call twice: disconnect
// paths race with broadcast-failure cleanup, so the second call reports
// ok=false and does nothing.
func (h *Hub) Deregister(conn Connection) (userID, roomID string, ok bool) {
	h.mu.Lock()
	info, found := h.conns[conn]
	if !found {
		h.mu.Unlock()
		return "", "", false
	}
	delete(h.conns, conn)
	if set, exists := h.rooms[info.roomID]; exists {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.rooms, info.roomID)
			metrics.Rooms.Dec()
		}
	}
	h.mu.Unlock()

	metrics.Connections.Dec()
	h.log.Infow("client disconnected", "room", info.roomID, "user", info.userID, "conn", conn.ID())
	return info.userID, info.roomID, true
}

// Connect registers conn and announces presence to the rest of the room.
// The originator's other sessions are notified too; only conn itself is
// excluded.
func (h *Hub) Connect(conn Connection, roomID, userID string) {
	h.Register(conn, roomID, userID)
	h.Broadcast(roomID, UserOnline(userID), conn)
}

// Disconnect deregisters conn, drops any typing flag its user held in the
// room, and announces the user going offline. Idempotent.
func (h *Hub) Disconnect(conn Connection) {
	userID, roomID, ok := h.Deregister(conn)
	if !ok {
		return
	}

	// The offline announcement supersedes any typing indicator, so the
	// flag is dropped without a typing_stop broadcast.
	h.mu.Lock()
	if set, exists := h.typing[roomID]; exists {
		delete(set, userID)
		if len(set) == 0 {
			delete(h.typing, roomID)
		}
	}
	h.mu.Unlock()

	h.Broadcast(roomID, UserOffline(userID), nil)
}

// ListConnections returns a snapshot of the room's live connections.
func (h *Hub) ListConnections(roomID string) []Connection {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]Connection, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// ListOnlineUsers returns the distinct user IDs with at least one live
// connection in the room, sorted for stable output.
func (h *Hub) ListOnlineUsers(roomID string) []string {
	h.mu.Lock()
	seen := make(map[string]struct{})
	for c := range h.rooms[roomID] {
		if info, ok := h.conns[c]; ok {
			seen[info.userID] = struct{}{}
		}
	}
	h.mu.Unlock()

	out := make([]string, 0, len(seen))
	for u := range seen {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// Stats reports the number of active rooms and connections.
func (h *Hub) Stats() (rooms, conns int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms), len(h.conns)
}

// CloseAll deregisters every connection and closes its transport. Used on
// process shutdown; no presence events are broadcast.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	all := make([]Connection, 0, len(h.conns))
	for c := range h.conns {
		all = append(all, c)
	}
	h.mu.Unlock()

	for _, c := range all {
		h.Deregister(c)
		_ = c.Close(1001, "server shutting down")
	}
}
