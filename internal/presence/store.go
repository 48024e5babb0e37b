package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store mirrors connection metadata and online status into Redis so other
// services can answer "is this user online" without asking this process.
// The in-memory hub remains the source of truth; everything here is
// best-effort.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type connMeta struct {
	RoomID      string `json:"room_id"`
	ConnID      string `json:"conn_id"`
	ConnectedAt int64  `json:"connected_at"`
}

func NewStore(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix, ttl: 24 * time.Hour}
}

func (s *Store) connKey(userID string) string {
	return fmt.Sprintf("%s:conn:%s", s.prefix, userID)
}

func (s *Store) presenceKey(userID string) string {
	return fmt.Sprintf("%s:presence:%s", s.prefix, userID)
}

// ConnectionOpened records the connection and marks the user online.
func (s *Store) ConnectionOpened(ctx context.Context, userID, connID, roomID string) error {
	meta, _ := json.Marshal(connMeta{RoomID: roomID, ConnID: connID, ConnectedAt: time.Now().Unix()})
	if err := s.client.SAdd(ctx, s.connKey(userID), meta).Err(); err != nil {
		return err
	}
	_ = s.client.Expire(ctx, s.connKey(userID), s.ttl).Err()

	status, _ := json.Marshal(map[string]any{"status": "online", "last_seen": time.Now().Unix()})
	return s.client.Set(ctx, s.presenceKey(userID), status, s.ttl).Err()
}

// ConnectionClosed drops the connection record; when it was the user's last
// one, the user is marked offline.
func (s *Store) ConnectionClosed(ctx context.Context, userID, connID string) error {
	key := s.connKey(userID)
	members, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return err
	}
	for _, m := range members {
		var meta connMeta
		if json.Unmarshal([]byte(m), &meta) == nil && meta.ConnID == connID {
			_ = s.client.SRem(ctx, key, m).Err()
		}
	}

	remaining, _ := s.client.SCard(ctx, key).Result()
	if remaining == 0 {
		status, _ := json.Marshal(map[string]any{"status": "offline", "last_seen": time.Now().Unix()})
		return s.client.Set(ctx, s.presenceKey(userID), status, 0).Err()
	}
	return nil
}

// GetPresence returns the raw presence document for a user.
func (s *Store) GetPresence(ctx context.Context, userID string) (map[string]any, error) {
	b, err := s.client.Get(ctx, s.presenceKey(userID)).Bytes()
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
