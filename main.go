package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"project-tracker/internal/cache"
	"project-tracker/internal/config"
	"project-tracker/internal/database"
	"project-tracker/internal/logging"
	"project-tracker/internal/server"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	log := logging.New(cfg.Logging.Level)
	slog.SetDefault(log)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	pool, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := pool.Migrate(); err != nil {
		return err
	}

	c := openCache(cfg, log)
	defer c.Close()

	deps, err := server.Build(cfg, log, pool, c)
	if err != nil {
		return err
	}
	ctx := logging.IntoContext(context.Background(), log)
	if err := deps.Users.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      server.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr, "environment", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openDatabase(cfg *config.Config) (*database.DatabasePool, error) {
	pc := database.DefaultPoolConfig()
	pc.Driver = cfg.Database.Driver
	pc.DSN = cfg.GetDatabaseDSN()
	pc.MaxOpenConns = cfg.Database.MaxOpenConns
	pc.MaxIdleConns = cfg.Database.MaxIdleConns
	pc.ConnMaxLifetime = cfg.Database.ConnMaxLifetime
	pc.ConnMaxIdleTime = cfg.Database.ConnMaxIdleTime
	if cfg.Logging.Level == "debug" {
		pc.LogLevel = logger.Info
	}
	return database.NewDatabasePool(pc)
}

// openCache prefers Redis when enabled and falls back to the in-process
// cache. A Redis outage after startup is absorbed by the circuit breaker.
func openCache(cfg *config.Config, log *slog.Logger) cache.Cache {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache()
	}
	cc := cache.DefaultCacheConfig()
	cc.Addr = cfg.GetRedisAddr()
	cc.Password = cfg.Redis.Password
	cc.DB = cfg.Redis.DB
	cc.PoolSize = cfg.Redis.PoolSize
	cc.MinIdleConns = cfg.Redis.MinIdleConns
	cc.MaxRetries = cfg.Redis.MaxRetries
	cc.DialTimeout = cfg.Redis.DialTimeout
	cc.ReadTimeout = cfg.Redis.ReadTimeout
	cc.WriteTimeout = cfg.Redis.WriteTimeout

	rc := cache.NewRedisCache(cc)
	ctx, cancel := context.WithTimeout(context.Background(), cc.DialTimeout)
	defer cancel()
	if err := rc.Health(ctx); err != nil {
		log.Warn("redis unreachable at startup, using it anyway", "addr", cc.Addr, "error", err)
	}
	return rc
}
