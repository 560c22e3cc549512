// Command fakebackend serves a generated inventory over the backend's REST API
// for local development. Every demo account (admin, user, viewer) shares the
// password given with -password.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stockmgmt/dashboard/internal/infrastructure/auth"
	"github.com/stockmgmt/dashboard/internal/infrastructure/fakebackend"
	"github.com/stockmgmt/dashboard/internal/infrastructure/fakedata"
	"github.com/stockmgmt/dashboard/internal/infrastructure/logger"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fakebackend:", err)
		os.Exit(1)
	}
}

func run() error {
	data := fakedata.DefaultConfig()
	var (
		addr     = flag.String("addr", ":8000", "listen address")
		prefix   = flag.String("prefix", "/api/v1", "route prefix")
		password = flag.String("password", "password", "password of the demo accounts")
		secret   = flag.String("secret", "fakebackend-dev-secret", "JWT signing secret")
		ttl      = flag.Duration("token-ttl", 30*time.Minute, "access token lifetime")
		level    = flag.String("log-level", "info", "log level")
		redisURL = flag.String("redis", "", "redis URL for revoked tokens, e.g. redis://localhost:6379/0; empty keeps them in memory")
	)
	flag.Uint64Var(&data.Seed, "seed", data.Seed, "data generator seed")
	flag.IntVar(&data.Suppliers, "suppliers", data.Suppliers, "number of suppliers")
	flag.IntVar(&data.Products, "products", data.Products, "number of products")
	flag.IntVar(&data.Days, "days", data.Days, "days of transaction history")
	flag.IntVar(&data.TransactionsPerDay, "per-day", data.TransactionsPerDay, "average transactions per day")
	flag.Parse()

	log, err := logger.New(&logger.Config{Level: *level, Format: "console", Output: "stdout"})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.Sync(log)

	users, err := fakebackend.DemoUsers(*password, data.Seed)
	if err != nil {
		return fmt.Errorf("create demo users: %w", err)
	}
	catalog := fakedata.Generate(data)
	store := fakebackend.NewStore(catalog, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backendCfg := fakebackend.Config{Secret: *secret, TokenTTL: *ttl, Logger: log}
	if *redisURL != "" {
		opts, err := redis.ParseURL(*redisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		backendCfg.Blacklist = auth.NewRedisTokenBlacklist(client, "stockdash:fakebackend:revoked:")
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              *addr,
		Handler:           fakebackend.New(store, users, backendCfg).Handler(*prefix),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Fake backend listening",
			zap.String("addr", *addr),
			zap.String("prefix", *prefix),
			zap.Int("products", len(catalog.Products)),
			zap.Int("suppliers", len(catalog.Suppliers)),
			zap.Int("transactions", len(catalog.Transactions)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
