package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTyping_SetAndClear(t *testing.T) {
	h := newTestHub()
	a := &mockConn{id: "a"}
	b := &mockConn{id: "b"}
	h.Register(a, "r1", "alice")
	h.Register(b, "r1", "bob")

	h.SetTyping("r1", "alice", "Alice")
	assert.Equal(t, []string{"alice"}, h.ListTyping("r1"))

	// typing_start goes to everyone, the originator's other sessions too
	require.Equal(t, 1, b.countByType(EventTypingStart))
	ev := b.received()[0]
	assert.Equal(t, "alice", ev.Data["user_id"])
	assert.Equal(t, "Alice", ev.Data["user_name"])
	assert.Equal(t, 1, a.countByType(EventTypingStart))

	h.ClearTyping("r1", "alice")
	assert.Empty(t, h.ListTyping("r1"))
	assert.Equal(t, 1, b.countByType(EventTypingStop))

	// second clear is a no-op, no extra broadcast
	h.ClearTyping("r1", "alice")
	assert.Equal(t, 1, b.countByType(EventTypingStop))
}

func TestTyping_ExpiresOnRead(t *testing.T) {
	h := newTestHub()
	h.Register(&mockConn{id: "a"}, "r1", "alice")

	base := time.Now()
	h.now = func() time.Time { return base }
	h.SetTyping("r1", "alice", "Alice")
	require.Equal(t, []string{"alice"}, h.ListTyping("r1"))

	h.now = func() time.Time { return base.Add(6 * time.Second) }
	assert.Empty(t, h.ListTyping("r1"), "entry older than the TTL must age out")
	assert.Empty(t, h.ListTyping("r1"))
}

func TestTyping_ClearedOnDisconnect(t *testing.T) {
	h := newTestHub()
	a := &mockConn{id: "a"}
	b := &mockConn{id: "b"}
	h.Register(a, "r1", "alice")
	h.Register(b, "r1", "bob")

	h.SetTyping("r1", "alice", "Alice")
	h.Disconnect(a)

	assert.Empty(t, h.ListTyping("r1"))
	assert.Equal(t, 1, b.countByType(EventUserOffline))
}

func TestTyping_EmptyRoomDoesNotLeak(t *testing.T) {
	h := newTestHub()
	h.Register(&mockConn{id: "a"}, "r1", "alice")
	h.SetTyping("r1", "alice", "Alice")
	h.ClearTyping("r1", "alice")

	h.mu.Lock()
	_, exists := h.typing["r1"]
	h.mu.Unlock()
	assert.False(t, exists)
}
