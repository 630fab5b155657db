package container

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joshua-takyi/nearby/internal/config"
	"github.com/joshua-takyi/nearby/internal/connect"
	"github.com/joshua-takyi/nearby/internal/helpers"
	"github.com/joshua-takyi/nearby/internal/middleware"
	"github.com/joshua-takyi/nearby/internal/models"
	"github.com/joshua-takyi/nearby/internal/services"
)

// Container holds all application dependencies
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Clients *connect.Clients

	// Verifier checks access tokens. Nil when no identity provider is configured.
	Verifier middleware.TokenVerifier
	Location *time.Location
	Now      func() time.Time

	UserService       *services.UserService
	ShopService       *services.ShopService
	EventService      *services.EventService
	AttendanceService *services.AttendanceService
	FeedService       *services.FeedService

	// HealthCheck reports whether the backing stores answer.
	HealthCheck func(ctx context.Context) error
}

type stores struct {
	events    models.EventsRepo
	attendees models.AttendeesRepo
	shops     models.ShopsRepo
	users     models.UserRepo
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config, logger *slog.Logger, clients *connect.Clients, verifier middleware.TokenVerifier) (*Container, error) {
	if clients == nil {
		clients = &connect.Clients{}
	}

	st, err := buildStores(cfg, clients)
	if err != nil {
		return nil, err
	}

	var locker services.EventLocker = services.NewKeyedLocker()
	if clients.Redis != nil {
		locker = models.NewRedisLocker(clients.Redis, cfg.LockTTL, logger)
		logger.Info("using Redis event locks", "ttl", cfg.LockTTL)
	}

	var notifier services.Notifier = services.NewLogNotifier(logger)
	if clients.PubNub != nil {
		notifier = services.NewPubNubNotifier(clients.PubNub, logger)
	}

	eventService := services.NewEventService(st.events, st.attendees, locker, notifier, logger)
	if clients.Cloudinary != nil {
		eventService.WithUploader(helpers.NewCloudinaryUploader(clients.Cloudinary))
	}

	c := &Container{
		Config:            cfg,
		Logger:            logger,
		Clients:           clients,
		Verifier:          verifier,
		Location:          time.Local,
		Now:               time.Now,
		UserService:       services.NewUserService(st.users, st.shops),
		ShopService:       services.NewShopService(st.shops),
		EventService:      eventService,
		AttendanceService: services.NewAttendanceService(st.events, st.attendees, locker, notifier, logger),
		FeedService:       services.NewFeedService(st.events, st.shops, st.attendees, logger),
	}
	c.HealthCheck = func(ctx context.Context) error {
		if clients.MongoDB != nil {
			if err := clients.MongoDB.Ping(ctx, nil); err != nil {
				return fmt.Errorf("mongodb: %w", err)
			}
		}
		if clients.SQLite != nil {
			if err := clients.SQLite.Ping(ctx); err != nil {
				return fmt.Errorf("sqlite: %w", err)
			}
		}
		if clients.Redis != nil {
			if err := models.RedisHealthCheck(ctx, clients.Redis); err != nil {
				return err
			}
		}
		return nil
	}
	return c, nil
}

// NewMemoryContainer wires every service to repo. Used with STORE_DRIVER=memory and in tests.
func NewMemoryContainer(cfg *config.Config, logger *slog.Logger, repo *models.MemoryRepo, verifier middleware.TokenVerifier) *Container {
	locker := services.NewKeyedLocker()
	notifier := services.NewLogNotifier(logger)

	return &Container{
		Config:            cfg,
		Logger:            logger,
		Clients:           &connect.Clients{},
		Verifier:          verifier,
		Location:          time.Local,
		Now:               time.Now,
		UserService:       services.NewUserService(repo, repo),
		ShopService:       services.NewShopService(repo),
		EventService:      services.NewEventService(repo, repo, locker, notifier, logger),
		AttendanceService: services.NewAttendanceService(repo, repo, locker, notifier, logger),
		FeedService:       services.NewFeedService(repo, repo, repo, logger),
		HealthCheck:       func(context.Context) error { return nil },
	}
}

func buildStores(cfg *config.Config, clients *connect.Clients) (stores, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		repo := models.NewMemoryRepo()
		return stores{events: repo, attendees: repo, shops: repo, users: repo}, nil
	case config.StoreSupabase:
		if clients.Supabase == nil || clients.MongoDB == nil {
			return stores{}, fmt.Errorf("store driver %q needs Supabase and MongoDB clients", cfg.StoreDriver)
		}
		supa := models.SupabaseNewRepo(clients.Supabase, cfg.SupabaseURL, cfg.SupabaseAnonKey)
		mongo := models.MongodbNewRepo(clients.MongoDB)
		return stores{events: supa, attendees: mongo, shops: supa, users: supa}, nil
	case config.StoreSqlite:
		if clients.SQLite == nil {
			return stores{}, fmt.Errorf("store driver %q needs an open SQLite database", cfg.StoreDriver)
		}
		db := clients.SQLite
		return stores{events: db, attendees: db, shops: db, users: db}, nil
	default:
		return stores{}, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
