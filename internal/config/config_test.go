package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, c.App.Port)
	assert.Equal(t, "groupchat", c.Mongo.Database)
	assert.Empty(t, c.Kafka.Brokers)
	assert.Equal(t, 5*time.Second, c.TypingTTL)
	assert.Equal(t, 25*time.Second, c.PingInterval)
	assert.Equal(t, 10*time.Second, c.WriteDeadline)
	assert.Equal(t, int64(65536), c.WS.MaxMessageSizeBytes)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("JWT_SECRET", "top-secret")
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("WS_TYPING_TTL_SECONDS", "9")
	t.Setenv("WS_INBOUND_RATE_BURST", "80")

	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, c.App.Port)
	assert.Equal(t, "top-secret", c.JWT.Secret)
	assert.Equal(t, "mongodb://db:27017", c.Mongo.URI)
	assert.Equal(t, "cache:6379", c.Redis.Addr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, 9*time.Second, c.TypingTTL)
	assert.Equal(t, 80, c.WS.InboundRateBurst)
}

func TestLoad_FileThenEnvWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  port: 7000\nws:\n  typing_ttl_seconds: 3\n"), 0o600))

	t.Setenv("WS_TYPING_TTL_SECONDS", "7")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, c.App.Port)
	assert.Equal(t, 7*time.Second, c.TypingTTL, "environment overrides the file")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
