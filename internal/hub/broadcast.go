package hub

import "github.com/yourorg/groupchat/realtime-service/internal/metrics"

type failedSend struct {
	conn Connection
	err  error
}

// Broadcast delivers e to every connection currently in the room except
// exclude. Events are enqueued on each connection's ordered outbound queue
// while the hub lock is held — enqueueing is not I/O, and it is what makes
// every connection observe events in the lock-acquisition order of
// Broadcast calls. A send failure (closed connection, full queue from a
// stalled consumer) is an implicit disconnect: failed connections are
// evicted after the lock is released, each with its own user_offline
// announcement against the already-updated registry.
func (h *Hub) Broadcast(roomID string, e Event, exclude Connection) {
	metrics.Broadcasts.Inc()

	h.mu.Lock()
	set, ok := h.rooms[roomID]
	if !ok {
		h.mu.Unlock()
		return
	}
	var failed []failedSend
	for c := range set {
		if c == exclude {
			continue
		}
		if err := c.Send(e); err != nil {
			failed = append(failed, failedSend{conn: c, err: err})
		}
	}
	h.mu.Unlock()

	for _, f := range failed {
		h.log.Warnw("broadcast send failed", "room", roomID, "conn", f.conn.ID(), "error", f.err)
		metrics.SendFailures.Inc()
		h.Disconnect(f.conn)
		_ = f.conn.Close(1011, "send failed")
	}
}

// SendToUser delivers e to every connection in the room owned by userID.
// This is a side notification channel (mentions and the like): failures are
// logged, never treated as disconnects.
func (h *Hub) SendToUser(roomID, userID string, e Event) {
	h.mu.Lock()
	var failed []failedSend
	for c := range h.rooms[roomID] {
		if info, ok := h.conns[c]; ok && info.userID == userID {
			if err := c.Send(e); err != nil {
				failed = append(failed, failedSend{conn: c, err: err})
			}
		}
	}
	h.mu.Unlock()

	for _, f := range failed {
		h.log.Warnw("send to user failed", "room", roomID, "user", userID, "error", f.err)
	}
}

// Notify is the best-effort fan-out for non-critical events (edits,
// reactions, pins, polls, membership changes). Failures are logged and
// swallowed; unlike Broadcast, nothing is evicted.
func (h *Hub) Notify(roomID string, e Event) {
	h.mu.Lock()
	var failed []failedSend
	for c := range h.rooms[roomID] {
		if err := c.Send(e); err != nil {
			failed = append(failed, failedSend{conn: c, err: err})
		}
	}
	h.mu.Unlock()

	for _, f := range failed {
		h.log.Debugw("notify send failed", "room", roomID, "conn", f.conn.ID(), "error", f.err)
	}
}
