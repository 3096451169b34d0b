package container

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"qvent-console/internal/config"
	"qvent-console/internal/notify"
	"qvent-console/internal/repository"
	"qvent-console/internal/service"
	"qvent-console/internal/service/auth"
	"qvent-console/internal/session"
	"qvent-console/internal/upstream"
	"qvent-console/pkg/database"
	"qvent-console/pkg/logger"
	"qvent-console/pkg/redis"
	"qvent-console/pkg/worker"
)

// Services groups the request-facing flows
type Services struct {
	Events      *service.EventService
	Submissions *service.SubmissionService
	Drafts      *service.DraftService
	Admin       *service.AdminService
}

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	RedisClient *redis.Client
	DB          *database.PostgresDB
	NATS        *nats.Conn
	Pool        *worker.Pool

	Auth     *auth.Service
	Sessions *session.Manager
	Gateway  service.EventGateway
	Notifier notify.Notifier
	Services *Services
}

// New creates a new dependency injection container. Redis is required for
// sessions and drafts; Postgres is only opened in postgres backend mode and
// NATS only when a URL is configured.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: log}

	redisClient, err := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Named("redis").Logger)
	if err != nil {
		return nil, err
	}
	c.RedisClient = redisClient
	log.WithField("key_prefix", redisClient.KeyBuilder.GetPrefix()).Info("Redis client initialized successfully")

	gateway, err := c.newGateway(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Gateway = gateway

	notifiers := notify.Multi{notify.NewLogNotifier(log)}
	if cfg.NATSURL != "" {
		conn, err := notify.Connect(cfg.NATSURL)
		if err != nil {
			// notifications still reach the log
			log.WithError(err).Warn("Failed to connect to NATS, notifications will only be logged")
		} else {
			c.NATS = conn
			notifiers = append(notifiers, notify.NewNATSNotifier(conn, cfg.NotifySubject))
			log.WithField("subject", cfg.NotifySubject).Info("NATS notifier enabled")
		}
	}
	c.Notifier = notifiers

	pool, err := worker.NewPool("admin-overview", cfg.AdminFanout, log)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	c.Pool = pool

	c.Auth = auth.NewService(cfg.JWTSecret, log)
	if !c.Auth.Verifies() {
		log.Warn("JWT_SECRET not set, bearer tokens are decoded without signature verification")
	}
	c.Sessions = session.NewManager(redisClient, redisClient.KeyBuilder, c.Auth, cfg.SessionTTL, log)

	events := service.NewEventService(gateway, c.Notifier, cfg.PublicFormBaseURL, log)
	c.Services = &Services{
		Events:      events,
		Submissions: service.NewSubmissionService(gateway, events, cfg.SubmissionsPageSize, log),
		Drafts:      service.NewDraftService(redisClient, redisClient.KeyBuilder, events, cfg.DraftTTL, log),
		Admin:       service.NewAdminService(gateway, pool, log),
	}

	return c, nil
}

func (c *Container) newGateway(ctx context.Context) (service.EventGateway, error) {
	switch c.Config.BackendMode {
	case config.BackendPostgres:
		db, err := database.NewPostgresDB(ctx, c.Config.DatabaseURL)
		if err != nil {
			return nil, err
		}
		c.DB = db
		c.Logger.Info("Using Postgres event backend")
		return repository.NewEventRepository(db), nil
	case config.BackendAPI, "":
		c.Logger.WithField("base_url", c.Config.UpstreamBaseURL).Info("Using upstream event API")
		return upstream.NewClient(c.Config.UpstreamBaseURL, c.Config.UpstreamTimeout, c.Logger), nil
	default:
		return nil, fmt.Errorf("unknown backend mode %q", c.Config.BackendMode)
	}
}

// Close releases what New opened. Safe on a partially built container.
func (c *Container) Close() {
	if c.Pool != nil {
		_ = c.Pool.Release(5 * time.Second)
	}
	notify.Close(c.NATS)
	if c.DB != nil {
		c.DB.Close()
	}
	if c.RedisClient != nil {
		_ = c.RedisClient.Close()
	}
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}
