package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Env  string `mapstructure:"env"`
	Port int    `mapstructure:"port"`
}

type JWTConfig struct {
	Secret   string `mapstructure:"secret"`
	Audience string `mapstructure:"audience"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type KafkaConfig struct {
	Brokers          []string `mapstructure:"brokers"`
	TopicMessageSent string   `mapstructure:"topic_message_sent"`
	TopicChatEvents  string   `mapstructure:"topic_chat_events"`
	GroupID          string   `mapstructure:"group_id"`
}

type WSConfig struct {
	PingIntervalSeconds  int     `mapstructure:"ping_interval_seconds"`
	WriteDeadlineSeconds int     `mapstructure:"write_deadline_seconds"`
	MaxMessageSizeBytes  int64   `mapstructure:"max_message_size_bytes"`
	TypingTTLSeconds     int     `mapstructure:"typing_ttl_seconds"`
	InboundRateLimit     float64 `mapstructure:"inbound_rate_limit"`
	InboundRateBurst     int     `mapstructure:"inbound_rate_burst"`
}

type Config struct {
	App   AppConfig   `mapstructure:"app"`
	JWT   JWTConfig   `mapstructure:"jwt"`
	Mongo MongoConfig `mapstructure:"mongo"`
	Redis RedisConfig `mapstructure:"redis"`
	Kafka KafkaConfig `mapstructure:"kafka"`
	WS    WSConfig    `mapstructure:"ws"`

	// derived timeouts
	PingInterval  time.Duration
	WriteDeadline time.Duration
	TypingTTL     time.Duration
}

// Load reads an optional config file and overlays environment variables.
// Every key gets a default so viper knows it exists; with the key replacer
// that makes e.g. WS_TYPING_TTL_SECONDS override ws.typing_ttl_seconds and
// JWT_SECRET override jwt.secret without per-variable bindings.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8080)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.audience", "")
	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "groupchat")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "ws")
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_message_sent", "message-sent")
	v.SetDefault("kafka.topic_chat_events", "chat-events")
	v.SetDefault("kafka.group_id", "realtime-service")
	v.SetDefault("ws.ping_interval_seconds", 25)
	v.SetDefault("ws.write_deadline_seconds", 10)
	v.SetDefault("ws.max_message_size_bytes", 65536)
	v.SetDefault("ws.typing_ttl_seconds", 5)
	v.SetDefault("ws.inbound_rate_limit", 20)
	v.SetDefault("ws.inbound_rate_burst", 40)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	c.PingInterval = time.Duration(c.WS.PingIntervalSeconds) * time.Second
	c.WriteDeadline = time.Duration(c.WS.WriteDeadlineSeconds) * time.Second
	c.TypingTTL = time.Duration(c.WS.TypingTTLSeconds) * time.Second
	return &c, nil
}
