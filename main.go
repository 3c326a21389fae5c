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

	"food-ordering-api/config"
	"food-ordering-api/handlers"
	"food-ordering-api/metrics"
	"food-ordering-api/middleware"
	"food-ordering-api/orders"
	"food-ordering-api/pubsub"
	"food-ordering-api/routes"
	"food-ordering-api/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := config.NewLogger(cfg, os.Stdout)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	gin.SetMode(cfg.GinMode)
	if cfg.UsesDefaultSecret() {
		log.Warn("JWT_SECRET not set, using the built-in development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.OpenDB(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := config.CloseDB(db); err != nil {
			log.Warn("close database", "error", err)
		}
	}()
	st := store.New(db)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	bus := pubsub.New(
		pubsub.WithBuffer(cfg.SubscriptionBuffer),
		pubsub.WithLogger(log),
		pubsub.WithMetrics(m),
	)
	defer bus.Close()

	tokens := middleware.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	auth, err := middleware.NewAuthorizer(tokens, st, cfg.Access, log)
	if err != nil {
		return err
	}

	if cfg.SeedFile != "" {
		if err := seed(ctx, cfg.SeedFile, st, tokens, log); err != nil {
			return err
		}
	}

	svc := orders.New(st, bus, log, m)
	h := handlers.New(svc, st, bus, auth, log)

	api := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.NewRouter(h, auth, m, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	metricsSrv := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return serve(api, "api", log) })
	g.Go(func() error { return serve(metricsSrv, "metrics", log) })
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		// Ends every subscription socket; hijacked connections are not
		// tracked by Shutdown.
		bus.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(api.Shutdown(shutdownCtx), metricsSrv.Shutdown(shutdownCtx))
	})
	return g.Wait()
}

func serve(srv *http.Server, name string, log *slog.Logger) error {
	log.Info("listening", "server", name, "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// seed loads the fixtures into an empty database and prints a token for each
// created user, since there is no login endpoint.
func seed(ctx context.Context, path string, st *store.Store, tokens *middleware.Tokens, log *slog.Logger) error {
	fixtures, err := config.LoadFixtures(path)
	if err != nil {
		return err
	}
	users, err := config.Seed(ctx, st, fixtures)
	if err != nil {
		return err
	}
	if users == nil {
		log.Info("database already populated, fixtures skipped", "file", path)
		return nil
	}
	for _, u := range users {
		token, err := tokens.Sign(u.ID)
		if err != nil {
			return err
		}
		log.Info("seeded user", "id", u.ID, "email", u.Email, "role", u.Role, "token", token)
	}
	return nil
}
