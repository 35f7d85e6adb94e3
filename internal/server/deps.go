package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"project-tracker/internal/auth"
	"project-tracker/internal/cache"
	"project-tracker/internal/config"
	"project-tracker/internal/database"
	"project-tracker/internal/monitoring"
	"project-tracker/internal/repositories"
	"project-tracker/internal/services"
)

// Deps is everything the router needs. Build assembles it from config.
type Deps struct {
	Logger   *slog.Logger
	Tokens   *auth.TokenService
	Users    *services.UserServiceImpl
	Auth     services.AuthService
	Projects services.ProjectService
	Tasks    services.TaskService
	Metrics  *monitoring.Metrics
	Health   *monitoring.HealthChecker
	Stats    map[string]monitoring.StatsSource
}

func Build(cfg *config.Config, logger *slog.Logger, pool *database.DatabasePool, c cache.Cache) (*Deps, error) {
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}
	hasher := auth.NewPasswordHasher(cfg.Auth.BCryptCost)
	ownership := services.Ownership{Strict: cfg.Auth.StrictOwnership}

	userRepo := repositories.NewUserRepository(pool.DB)
	users := services.NewUserService(userRepo, hasher)
	tasks := services.NewCachedTaskService(services.NewTaskService(pool.DB, ownership), c, taskListTTL(cfg))
	projects := services.NewProjectService(pool.DB, ownership, tasks)

	health := monitoring.NewHealthChecker()
	health.Register("database", func(context.Context) error { return pool.Health() })
	health.Register("cache", c.Health)

	return &Deps{
		Logger:   logger,
		Tokens:   tokens,
		Users:    users,
		Auth:     services.NewAuthService(userRepo, hasher, tokens),
		Projects: projects,
		Tasks:    tasks,
		Metrics:  monitoring.NewMetrics(),
		Health:   health,
		Stats: map[string]monitoring.StatsSource{
			"database": pool.Stats,
			"cache":    tasks.CacheStats,
		},
	}, nil
}

func taskListTTL(cfg *config.Config) time.Duration {
	if cfg.Redis.TaskListTTL > 0 {
		return cfg.Redis.TaskListTTL
	}
	return 5 * time.Minute
}
