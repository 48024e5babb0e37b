package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yourorg/groupchat/realtime-service/internal/api"
	"github.com/yourorg/groupchat/realtime-service/internal/auth"
	"github.com/yourorg/groupchat/realtime-service/internal/chat"
	"github.com/yourorg/groupchat/realtime-service/internal/config"
	"github.com/yourorg/groupchat/realtime-service/internal/events"
	"github.com/yourorg/groupchat/realtime-service/internal/hub"
	"github.com/yourorg/groupchat/realtime-service/internal/presence"
	"github.com/yourorg/groupchat/realtime-service/internal/session"
	"github.com/yourorg/groupchat/realtime-service/internal/utils"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	logger, err := utils.NewLogger(cfg.App.Env)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.JWT.Secret == "" {
		logger.Fatal("jwt secret is required")
	}
	verifier := auth.NewJWTVerifier(cfg.JWT.Secret, cfg.JWT.Audience)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var chatSvc chat.Service
	if cfg.Mongo.URI != "" {
		mc, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			logger.Fatalw("mongo connect failed", "error", err)
		}
		defer func() { _ = mc.Disconnect(context.Background()) }()
		chatSvc = chat.WithBreaker(chat.NewMongo(mc.Database(cfg.Mongo.Database)))
	} else {
		logger.Warn("no mongo uri configured, using in-memory chat service")
		chatSvc = chat.NewMemory()
	}

	h := hub.New(logger, cfg.TypingTTL)

	handler := &session.Handler{
		Hub:       h,
		Chat:      chatSvc,
		Verifier:  verifier,
		Log:       logger,
		RateLimit: cfg.WS.InboundRateLimit,
		RateBurst: cfg.WS.InboundRateBurst,
	}

	var presStore *presence.Store
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		presStore = presence.NewStore(rdb, cfg.Redis.Prefix)
		handler.Presence = presStore
	}

	var (
		producer *events.Producer
		consumer *events.Consumer
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer = events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicMessageSent)
		handler.Publisher = producer

		consumer = events.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicChatEvents, cfg.Kafka.GroupID, logger)
		go consumer.Run(ctx, h)
	}

	app := api.NewServer(cfg, h, handler, presStore)

	errs := make(chan error, 1)
	go func() {
		addr := ":" + strconv.Itoa(cfg.App.Port)
		logger.Infof("realtime service listening on %s", addr)
		errs <- app.Listen(addr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errs:
		logger.Fatalw("server error", "error", err)
	case s := <-sig:
		logger.Infow("signal received", "signal", s.String())
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = app.ShutdownWithContext(shutdownCtx)
	h.CloseAll()
	if producer != nil {
		_ = producer.Close()
	}
	if consumer != nil {
		_ = consumer.Close()
	}
	logger.Info("realtime service stopped")
}
