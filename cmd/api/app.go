package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/alokkksharmaa/EduSphere/internal/auth"
	"github.com/alokkksharmaa/EduSphere/internal/cache"
	"github.com/alokkksharmaa/EduSphere/internal/config"
	"github.com/alokkksharmaa/EduSphere/internal/database"
	"github.com/alokkksharmaa/EduSphere/internal/log"
	"github.com/alokkksharmaa/EduSphere/internal/metrics"
	"github.com/alokkksharmaa/EduSphere/internal/repository"
	"github.com/alokkksharmaa/EduSphere/internal/security"
	"github.com/alokkksharmaa/EduSphere/internal/service"
	"github.com/alokkksharmaa/EduSphere/internal/session"
)

// app holds the process-wide dependencies shared by every subcommand.
type app struct {
	cfg    *config.AppConfig
	log    zerolog.Logger
	db     *pgxpool.Pool
	redis  *redis.Client
	hasher *security.PasswordHasher

	registry *prometheus.Registry
	metrics  *metrics.Metrics

	users       *repository.UserRepository
	authService *service.AuthService
	remember    *service.RememberService
	preferences *service.PreferenceService
}

// bootstrap loads config and connects to Postgres. Redis is only dialled
// when withRedis is set since the maintenance commands never touch sessions.
func bootstrap(ctx context.Context, withRedis bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg: cfg,
		log: log.New(cfg.Environment),
		hasher: security.NewPasswordHasher(security.Argon2Params{
			Time:    cfg.Password.Time,
			Memory:  cfg.Password.Memory,
			Threads: cfg.Password.Threads,
			KeyLen:  cfg.Password.KeyLen,
			SaltLen: cfg.Password.SaltLen,
		}),
	}

	if cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.metrics = metrics.New(a.registry, cfg.Metrics.Namespace)
	}

	a.db, err = database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if withRedis {
		a.redis, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			a.db.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
	}

	a.users = repository.NewUserRepository(a.db)
	a.authService = service.NewAuthService(a.users, a.hasher, a.log)
	a.remember = service.NewRememberService(
		service.NewCredentialStore(repository.NewTokenRepository(a.db), a.hasher),
		a.users,
		service.RememberOptions{TTL: cfg.Remember.TTL, RevokeOnMismatch: cfg.Remember.RevokeOnMismatch},
		a.log,
	)
	a.preferences = service.NewPreferenceService(repository.NewPreferenceRepository(a.db))

	return a, nil
}

func (a *app) gateway() *auth.Gateway {
	store := session.NewRedisStore(a.redis, a.cfg.Session.KeyPrefix, a.cfg.Session.TTL)
	return auth.NewGateway(store, a.remember, a.authService, a.metrics, a.log)
}

func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Error().Err(err).Msg("redis close error")
		}
	}
	a.db.Close()
}
