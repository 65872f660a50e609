// Package api exposes the backend over HTTP and WebSocket.
package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/VehanRajintha/ChatX/internal/auth"
	"github.com/VehanRajintha/ChatX/internal/config"
	"github.com/VehanRajintha/ChatX/internal/conversation"
	"github.com/VehanRajintha/ChatX/internal/events"
	"github.com/VehanRajintha/ChatX/internal/metrics"
	"github.com/VehanRajintha/ChatX/internal/presence"
	"github.com/VehanRajintha/ChatX/internal/profile"
	"github.com/VehanRajintha/ChatX/internal/store"
)

type Server struct {
	cfg       *config.Config
	log       *zap.SugaredLogger
	convs     store.ConversationStore
	msgs      store.MessageStore
	users     store.UserStore
	lifecycle *conversation.Service
	profiles  *profile.Service
	presence  *presence.Tracker
	events    *events.Publisher
}

type Deps struct {
	Config    *config.Config
	Log       *zap.SugaredLogger
	Convs     store.ConversationStore
	Msgs      store.MessageStore
	Users     store.UserStore
	Lifecycle *conversation.Service
	Profiles  *profile.Service
	Presence  *presence.Tracker
	Events    *events.Publisher
	Verifier  *auth.Verifier
	Redis     *redis.Client
}

func NewServer(d Deps) *fiber.App {
	s := &Server{
		cfg:       d.Config,
		log:       d.Log,
		convs:     d.Convs,
		msgs:      d.Msgs,
		users:     d.Users,
		lifecycle: d.Lifecycle,
		profiles:  d.Profiles,
		presence:  d.Presence,
		events:    d.Events,
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(logger.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	v1 := app.Group("/v1")
	v1.Use(auth.Middleware(d.Verifier))

	writes := NewRateLimiter(d.Redis, "ratelimit:writes", 60, time.Minute).PerUser()

	v1.Post("/session", s.ensureUser)
	v1.Post("/conversations", writes, s.resolveConversation)
	v1.Get("/users", s.listUsers)
	v1.Get("/users/:id", s.getUser)
	v1.Put("/me", writes, s.updateProfile)
	v1.Post("/me/photo", writes, s.uploadPhoto)

	v1.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	v1.Get("/ws", websocket.New(s.handleWS))

	return app
}
