package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"hotelbook/internal/availability"
	"hotelbook/internal/cache"
	"hotelbook/internal/config"
	"hotelbook/internal/database"
	"hotelbook/internal/external"
	"hotelbook/internal/handlers"
	"hotelbook/internal/logger"
	"hotelbook/internal/messaging"
	"hotelbook/internal/metrics"
	"hotelbook/internal/middleware"
	"hotelbook/internal/notify"
	"hotelbook/internal/push"
	"hotelbook/internal/realtime"
	"hotelbook/internal/repository"
	"hotelbook/internal/search"
	"hotelbook/internal/service"
	"hotelbook/internal/validation"

	"github.com/gin-gonic/gin"
)

// Server is the HTTP API with its backing connections.
type Server struct {
	router *gin.Engine
	config *config.Config
	db     *database.DB
	nats   *messaging.NATSClient
	cache  *cache.Client
}

// NewServer connects the database and optional backends and mounts the
// routes. Only the database is mandatory; the other backends degrade to
// disabled with a warning.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	log := logger.Get()

	if err := validation.Register(); err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	s := &Server{config: cfg, db: db}

	var publisher messaging.Publisher = messaging.Discard{}
	if nc, err := messaging.NewNATSClient(cfg.NATS); err != nil {
		log.Warn("NATS unavailable, events will not be published", "error", err)
	} else {
		s.nats = nc
		publisher = nc
	}

	var (
		invalidator service.CacheInvalidator
		listings    availability.ListingCache
		authCache   middleware.AuthCache
	)
	if rc, err := cache.New(cfg.Redis); err != nil {
		log.Warn("Redis unavailable, caching disabled", "error", err)
	} else {
		s.cache = rc
		invalidator, listings, authCache = rc, rc, rc
	}

	var catalog availability.Catalog
	if cfg.Elasticsearch.Enabled() {
		if es, err := search.NewElasticsearchClient(cfg.Elasticsearch); err != nil {
			log.Warn("Elasticsearch unavailable, catalog search disabled", "error", err)
		} else {
			catalog = es
		}
	}

	repos := repository.NewRepositories(db)
	fanout, channels := BuildNotifier(ctx, cfg, repos)

	checker := availability.NewChecker(repos.Bookings, repos.Properties, catalog, listings)
	services := service.NewServices(db, repos, checker, external.NewPayMongoClient(cfg.PayMongo), publisher, fanout, invalidator, service.Options{
		PublicBaseURL: cfg.PublicBaseURL,
		Currency:      cfg.PayMongo.Currency,
		SourceType:    cfg.PayMongo.SourceType,
	})

	opts := handlers.Options{WebhookSecret: cfg.PayMongo.WebhookSecret, Health: db}
	if channels != nil {
		opts.Realtime = channels
	}

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Recovery(), middleware.CORS(), middleware.Logger(), metrics.Middleware())
	handlers.NewHandlers(services, opts).Register(router, middleware.NewAuthenticator(repos.Users, authCache))
	s.router = router

	return s, nil
}

// BuildNotifier wires the notification sinks that have credentials. The
// returned Pusher is nil when realtime channels are disabled.
func BuildNotifier(ctx context.Context, cfg *config.Config, repos *repository.Repositories) (*notify.Fanout, *realtime.Pusher) {
	log := logger.Get()
	fanout := notify.NewFanout(notify.Policy{SuppressPending: cfg.Notifications.SuppressPending}).
		WithUser(notify.NewStoreSink(repos.Notifications))

	var (
		broadcaster notify.Broadcaster
		pushSender  notify.PushSender
		channels    *realtime.Pusher
	)
	if cfg.Pusher.Enabled() {
		channels = realtime.NewPusher(cfg.Pusher)
		broadcaster = channels
		fanout.WithAdmin(notify.NewAdminSink(broadcaster, repos.Bookings))
	} else {
		log.Warn("Realtime channels disabled, PUSHER_* not set")
	}
	if cfg.Firebase.Enabled() {
		if fcm, err := push.NewFCM(ctx, cfg.Firebase); err != nil {
			log.Warn("Firebase unavailable, push disabled", "error", err)
		} else {
			pushSender = fcm
		}
	}
	if broadcaster != nil || pushSender != nil {
		fanout.WithUser(notify.NewUserSink(broadcaster, pushSender, repos.Devices))
	}
	return fanout, channels
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              ":" + s.config.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.config.RequestTimeout,
		WriteTimeout:      s.config.RequestTimeout,
	}
}

// Cleanup closes every backend connection.
func (s *Server) Cleanup() error {
	log := logger.Get()
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			log.Error("Error closing NATS connection", "error", err)
		}
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			log.Error("Error closing Redis connection", "error", err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	return nil
}
