package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"htech-admin/internal/config"
	"htech-admin/internal/database/postgres"
	"htech-admin/internal/database/redis"
	"htech-admin/internal/event"
	"htech-admin/internal/handlers"
	"htech-admin/internal/repository"
	"htech-admin/internal/services"

	"github.com/jmoiron/sqlx"
)

type repositories struct {
	users     repository.IUserRepository
	sessions  repository.SessionRepository
	roles     repository.RoleRepository
	resources repository.ResourceRepository
}

// app owns every connection the service opened. close releases them in
// reverse order of acquisition.
type app struct {
	cfg      *config.AuthServiceConfig
	repos    repositories
	services handlers.Services
	seed     *services.SeedService
	closers  []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("error during shutdown: %v", err)
		}
	}
}

func loadConfig() (*config.AuthServiceConfig, error) {
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func connectPostgres(ctx context.Context, cfg *config.AuthServiceConfig) (*sqlx.DB, error) {
	db, err := postgres.ConnectWithRetry(ctx, cfg.PostgresCfg, 5, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("error connect to database: %w", err)
	}
	return db, nil
}

func newApp(ctx context.Context, cfg *config.AuthServiceConfig) (*app, error) {
	a := &app{cfg: cfg}

	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		store := repository.NewMemoryStore()
		a.repos = repositories{users: store.Users, sessions: store.Sessions, roles: store.Roles, resources: store.Resources}
		log.Printf("using in-memory storage, data is lost on restart")
	default:
		db, err := connectPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if cfg.AutoMigrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				a.close()
				return nil, err
			}
		}
		a.repos = repositories{
			users:     repository.NewUserRepository(db),
			sessions:  repository.NewSessionRepository(db),
			roles:     repository.NewRoleRepository(db),
			resources: repository.NewResourceRepository(db),
		}
	}

	var grantCache services.GrantCache
	if cfg.RedisCfg.Enabled {
		client, err := redis.NewRedisClient(cfg.RedisCfg)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		grantCache = redis.NewGrantCache(client, cfg.RedisCfg.GrantTTL)
		log.Printf("grant cache enabled (ttl %s)", cfg.RedisCfg.GrantTTL)
	}

	var publisher event.Publisher = event.NopPublisher{}
	if cfg.RabbitMQCfg.Enabled {
		conn, err := event.ConnectRabbitMQ(cfg.RabbitMQCfg)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, conn.Close)
		authEvents, err := event.NewAuthEventPublisher(conn)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, func() error {
			published, failed := authEvents.Stats()
			log.Printf("auth events published=%d failed=%d", published, failed)
			return nil
		})
		publisher = authEvents
	}

	jwtService := services.NewJWTService(cfg.AuthCfg.AccessSecret, cfg.AuthCfg.RefreshSecret, cfg.AuthCfg.Issuer)
	authenticator := services.NewAuthenticator(jwtService, a.repos.users, a.repos.sessions)
	permissions := services.NewPermissionService(a.repos.roles, grantCache)

	a.services = handlers.Services{
		JWT:           jwtService,
		Authenticator: authenticator,
		Sessions:      services.NewSessionService(a.repos.users, a.repos.sessions, jwtService, authenticator, publisher, cfg.AuthCfg),
		Permissions:   permissions,
		Users:         services.NewUserService(a.repos.users, a.repos.sessions, a.repos.roles, a.repos.resources, permissions),
		Roles:         services.NewRoleService(a.repos.roles, a.repos.users, a.repos.resources, permissions),
		Resources:     services.NewResourceService(a.repos.resources, permissions),
		Publisher:     publisher,
	}
	a.seed = services.NewSeedService(a.repos.users, a.repos.roles, a.repos.resources, permissions)
	return a, nil
}

func (a *app) runSeed(ctx context.Context) error {
	if a.cfg.AuthCfg.AdminPWD == "" {
		return errors.New("ADMIN_PWD must be set to seed the admin user")
	}
	admin, err := a.seed.Seed(ctx, a.cfg.AuthCfg.AdminUsername, a.cfg.AuthCfg.AdminPWD)
	if err != nil {
		return err
	}
	log.Printf("seed complete, admin user %s (%s)", admin.Username, admin.ID)
	return nil
}
