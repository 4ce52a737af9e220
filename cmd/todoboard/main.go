// Command todoboard runs the todo backend: Postgres for durable state, Redis
// for the session cache, and the auth engine in front of the CRUD routes.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/jhyun-dev/todoboard/internal/auth"
	"github.com/jhyun-dev/todoboard/internal/config"
	"github.com/jhyun-dev/todoboard/internal/httpapi"
	"github.com/jhyun-dev/todoboard/internal/metrics"
	"github.com/jhyun-dev/todoboard/internal/todo"
	"github.com/jhyun-dev/todoboard/internal/user"
	"github.com/jhyun-dev/todoboard/migrations"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	if err := migrations.Up(ctx, db); err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}

	issuer, err := auth.NewIssuer(auth.IssuerConfig{
		AccessSecret:  []byte(cfg.AccessSecret),
		RefreshSecret: []byte(cfg.RefreshSecret),
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
		Issuer:        "todoboard",
	})
	if err != nil {
		return err
	}

	authMetrics := metrics.NewAuth(prometheus.NewRegistry())
	users := user.NewPostgresStore(db)
	cache := auth.NewSessionCache(rdb, cfg.RefreshTTL)
	engine := auth.NewEngine(users, cache, issuer, logger, authMetrics)

	router := httpapi.NewRouter(httpapi.RouterDeps{
		Auth:    httpapi.NewAuthController(engine, cfg.RefreshTTL, cfg.CookieSecure),
		Todos:   httpapi.NewTodoController(todo.NewStore(db)),
		Engine:  engine,
		Metrics: authMetrics,
		Logger:  logger,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("shut down cleanly")
	return nil
}
