package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/VehanRajintha/ChatX/internal/api"
	"github.com/VehanRajintha/ChatX/internal/auth"
	cfgpkg "github.com/VehanRajintha/ChatX/internal/config"
	"github.com/VehanRajintha/ChatX/internal/conversation"
	"github.com/VehanRajintha/ChatX/internal/events"
	"github.com/VehanRajintha/ChatX/internal/logger"
	"github.com/VehanRajintha/ChatX/internal/presence"
	"github.com/VehanRajintha/ChatX/internal/profile"
	"github.com/VehanRajintha/ChatX/internal/storage"
	"github.com/VehanRajintha/ChatX/internal/store"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfgPath := flag.String("config", "config.yaml", "config file path")
	flag.Parse()

	cfg, err := cfgpkg.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	zlog, err := logger.New(cfg.App.Env != "production")
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer zlog.Sync()

	mc, err := store.NewMongoClient(cfg)
	if err != nil {
		zlog.Fatalw("mongo init", "err", err)
	}
	defer func() { _ = mc.Disconnect(context.Background()) }()
	stores := store.NewMongo(mc, cfg, zlog)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	pub := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, zlog)
	defer pub.Close()

	blobs, err := storage.NewS3Store(context.Background(), cfg)
	if err != nil {
		zlog.Fatalw("s3 init", "err", err)
	}

	verifier, err := auth.NewVerifier(cfg.JWT.PublicKeyPath, cfg.JWT.Secret)
	if err != nil {
		zlog.Fatalw("jwt init", "err", err)
	}

	app := api.NewServer(api.Deps{
		Config:    cfg,
		Log:       zlog,
		Convs:     stores.Conversations,
		Msgs:      stores.Messages,
		Users:     stores.Users,
		Lifecycle: conversation.NewService(stores.Conversations, pub, zlog),
		Profiles:  profile.NewService(stores.Users, blobs, zlog),
		Presence:  presence.NewTracker(rdb, stores.Users, zlog),
		Events:    pub,
		Verifier:  verifier,
		Redis:     rdb,
	})

	go func() {
		if err := app.Listen(":" + strconv.Itoa(cfg.App.Port)); err != nil {
			zlog.Fatalw("server listen", "err", err)
		}
	}()
	zlog.Infow("chatx started", "port", cfg.App.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)
	zlog.Infow("chatx stopped")
}
