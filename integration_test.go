package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"project-tracker/internal/cache"
	"project-tracker/internal/config"
	"project-tracker/internal/logging"
	"project-tracker/internal/server"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", filepath.Join(t.TempDir(), "tracker.db"))
	t.Setenv("DB_MAX_OPEN_CONNS", "1")
	t.Setenv("DB_MAX_IDLE_CONNS", "1")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("ADMIN_EMAIL", "root@x.com")
	t.Setenv("ADMIN_PASSWORD", "secret3")
}

func TestApplicationStartup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	setupEnv(t)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	pool, err := openDatabase(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	require.NoError(t, pool.Migrate())

	log := logging.NewWithWriter(io.Discard, "error")
	c := openCache(cfg, log)
	_, isMemory := c.(*cache.MemoryCache)
	assert.True(t, isMemory, "expected the in-process cache when Redis is disabled")

	deps, err := server.Build(cfg, log, pool, c)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, deps.Users.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword))
	// A second bootstrap is a no-op.
	require.NoError(t, deps.Users.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword))

	token, err := deps.Auth.Login(ctx, "ROOT@x.com ", "secret3")
	require.NoError(t, err)
	subject, err := deps.Tokens.Subject(token)
	require.NoError(t, err)
	assert.Equal(t, "root@x.com", subject)

	router := server.NewRouter(deps)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOpenCacheRedis(t *testing.T) {
	setupEnv(t)
	mr := miniredis.RunT(t)
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_HOST", mr.Host())
	t.Setenv("REDIS_PORT", mr.Port())

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	c := openCache(cfg, logging.NewWithWriter(io.Discard, "error"))
	t.Cleanup(func() { c.Close() })
	rc, ok := c.(*cache.RedisCache)
	require.True(t, ok, "expected the Redis cache when enabled")
	assert.NoError(t, rc.Health(context.Background()))
}

func TestOpenDatabaseRejectsUnknownDriver(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{Driver: "oracle", SQLitePath: "x"}}
	_, err := openDatabase(cfg)
	assert.Error(t, err)
}
