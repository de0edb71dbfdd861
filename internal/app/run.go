package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	redisstore "github.com/adeilh/go-rakh-starter/cache/redis"
	"github.com/adeilh/go-rakh-starter/config"
	"github.com/adeilh/go-rakh-starter/db/sql/postgres"
	"github.com/adeilh/go-rakh-starter/httpx"
)

// NewServer builds the HTTP server for settings on top of deps.
func NewServer(settings *config.Settings, deps Deps) (*httpx.Server, error) {
	state, err := NewState(settings, deps)
	if err != nil {
		return nil, err
	}
	server := httpx.NewServer(
		httpx.WithAddress(settings.Server.Address()),
		httpx.WithTimeouts(settings.Server.ReadTimeout, settings.Server.WriteTimeout),
		httpx.WithLogger(deps.Logger),
		httpx.WithCORS(httpx.CORSConfig(settings.Server.AllowedOrigins)),
	)
	server.RegisterRoutes(state.Routes)
	return server, nil
}

// Run opens the database pool and Redis store, serves until ctx is done and
// releases both.
func Run(ctx context.Context, settings *config.Settings, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Info("connecting to postgres", zap.Stringer("database", settings.Database))
	pool, err := postgres.Open(
		postgres.WithDSN(settings.Database.DSN()),
		postgres.WithMaxOpenConns(settings.Database.MaxOpenConns),
	)
	if err != nil {
		return fmt.Errorf("app: database: %w", err)
	}
	defer pool.Close()

	store := redisstore.NewStore(redisstore.Options{
		Addr:     settings.Redis.Addr(),
		Password: settings.Redis.Password,
		DB:       settings.Redis.DB,
	})
	defer store.Close()

	server, err := NewServer(settings, Deps{
		Logger:    logger,
		DB:        pool,
		Cache:     store,
		CachePing: store,
		Client:    httpx.NewClient(),
	})
	if err != nil {
		return err
	}

	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("server stopped")
	return nil
}
