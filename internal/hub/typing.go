package hub

import (
	"sort"
	"time"
)

// Typing indicators use pull-based expiry: each entry records when the user
// last signalled typing, and ListTyping filters out entries older than the
// TTL. Explicit clears (stop frame, successful send, disconnect) remove the
// entry immediately; a client that goes silent simply ages out of reads
// without a typing_stop broadcast.

// SetTyping flags userID as typing in the room and broadcasts typing_start
// to everyone, including the originator's other sessions.
func (h *Hub) SetTyping(roomID, userID, userName string) {
	h.mu.Lock()
	if _, ok := h.typing[roomID]; !ok {
		h.typing[roomID] = make(map[string]time.Time)
	}
	h.typing[roomID][userID] = h.now()
	h.mu.Unlock()

	h.Broadcast(roomID, TypingStart(userID, userName), nil)
}

// ClearTyping removes the typing flag and broadcasts typing_stop. A second
// call for an absent flag is a no-op and broadcasts nothing.
func (h *Hub) ClearTyping(roomID, userID string) {
	h.mu.Lock()
	set, ok := h.typing[roomID]
	if ok {
		_, ok = set[userID]
	}
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(set, userID)
	if len(set) == 0 {
		delete(h.typing, roomID)
	}
	h.mu.Unlock()

	h.Broadcast(roomID, TypingStop(userID), nil)
}

// ListTyping returns the user IDs currently typing in the room, pruning
// entries older than the TTL as it goes.
func (h *Hub) ListTyping(roomID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.typing[roomID]
	if !ok {
		return nil
	}
	cutoff := h.now().Add(-h.typingTTL)
	out := make([]string, 0, len(set))
	for userID, at := range set {
		if at.Before(cutoff) {
			delete(set, userID)
			continue
		}
		out = append(out, userID)
	}
	if len(set) == 0 {
		delete(h.typing, roomID)
	}
	sort.Strings(out)
	return out
}
