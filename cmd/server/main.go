package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stockmgmt/dashboard/internal/application/appstate"
	"github.com/stockmgmt/dashboard/internal/application/session"
	"github.com/stockmgmt/dashboard/internal/bootstrap"
	"github.com/stockmgmt/dashboard/internal/infrastructure/config"
	"github.com/stockmgmt/dashboard/internal/infrastructure/logger"
	"github.com/stockmgmt/dashboard/internal/infrastructure/scheduler"
	"github.com/stockmgmt/dashboard/internal/infrastructure/telemetry"
	"github.com/stockmgmt/dashboard/internal/interfaces/http/handler"
	"github.com/stockmgmt/dashboard/internal/interfaces/http/middleware"
	"github.com/stockmgmt/dashboard/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const artifactCleanupInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync(log)

	log.Info("Starting stock dashboard",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("backend", cfg.API.BaseURL),
		zap.String("version", version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app, err := bootstrap.New(ctx, cfg, log, bootstrap.Options{Registerer: reg, WithStorage: true})
	if err != nil {
		log.Fatal("Failed to wire application", zap.Error(err))
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error("Error releasing resources", zap.Error(err))
		}
	}()

	state := appstate.New()
	notifications := appstate.NewNotificationQueue(
		appstate.WithDismissHandler(func(n appstate.Notification, expired bool) {
			log.Debug("Notification dismissed",
				zap.String("id", n.ID.String()),
				zap.String("level", string(n.Level)),
				zap.Bool("expired", expired),
			)
		}),
	)
	defer notifications.Close()

	loginLimiter := middleware.NewRateLimiter(cfg.HTTP.LoginRateLimit, cfg.HTTP.LoginRateWindow)
	refreshers := newRefreshers(cfg, app, state, loginLimiter, log)

	// The dashboard only auto-refreshes while someone is signed in
	app.Gate.Subscribe(func(t session.Transition) {
		switch {
		case t.To == session.StateAuthenticated:
			refreshers.dashboard.Activate()
		case t.From == session.StateAuthenticated:
			refreshers.dashboard.Deactivate()
			notifications.Push(appstate.LevelWarning, "Your session has ended. Please sign in again.", 0)
		}
	})

	initCtx, cancel := context.WithTimeout(ctx, cfg.API.Timeout)
	if err := app.Gate.Initialize(initCtx); err != nil {
		log.Warn("Session initialization failed", zap.Error(err))
	}
	cancel()
	log.Info("Session initialized", zap.String("state", string(app.Gate.State())))

	for _, r := range refreshers.all() {
		if err := r.Start(ctx); err != nil {
			log.Fatal("Failed to start refresher", zap.Error(err))
		}
	}

	engine := newEngine(cfg, app, reg, log)

	api := &router.API{
		System:        handler.NewSystemHandler(cfg.App.Name, version, app.Gate),
		Auth:          handler.NewAuthHandler(app.Gate, notifications),
		Dashboard:     handler.NewDashboardHandler(app.Dashboard, state),
		Products:      handler.NewProductHandler(app.Products, state, notifications),
		Suppliers:     handler.NewSupplierHandler(app.Suppliers, state, notifications),
		Transactions:  handler.NewTransactionHandler(app.Transactions, state, notifications),
		Reports:       handler.NewReportHandler(handler.Reports{Products: app.Products, Suppliers: app.Suppliers, Transactions: app.Transactions}),
		Exports:       handler.NewExportHandler(app.Exports, app.Artifacts, notifications),
		Notifications: handler.NewNotificationHandler(notifications),
		LoginLimit:    middleware.RateLimit(loginLimiter),
	}
	guard := func(req session.RouteRequirement) gin.HandlerFunc {
		return middleware.Guard(app.Gate, req, log)
	}
	api.RegisterAll(router.NewRouter(engine, router.WithGuard(guard))).Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	for _, r := range refreshers.all() {
		if err := r.Stop(shutdownCtx); err != nil {
			log.Warn("Refresher did not stop cleanly", zap.Error(err))
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	log.Info("Server exited gracefully")
}

// newEngine builds the gin engine with the global middleware chain
func newEngine(cfg *config.Config, app *bootstrap.App, reg *prometheus.Registry, log *zap.Logger) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Invalid trusted proxies", zap.Error(err))
	}

	var httpMetrics *middleware.HTTPMetrics
	if cfg.Metrics.Enabled {
		m, err := middleware.NewHTTPMetrics(reg, cfg.Metrics.Namespace)
		if err != nil {
			log.Fatal("Failed to register HTTP metrics", zap.Error(err))
		}
		httpMetrics = m
		engine.GET(cfg.Metrics.Path, gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
	}

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanAttributes(),
		middleware.SpanErrorMarker(),
		httpMetrics.Middleware(),
		middleware.Secure(),
		middleware.CORS(cfg.HTTP.CORSAllowOrigins...),
		middleware.BodyLimit(cfg.HTTP.MaxBodyBytes),
		middleware.SessionErrors(app.Gate),
	)
	if cfg.HTTP.RequestTimeout > 0 {
		engine.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))
	}
	return engine
}

type refreshers struct {
	dashboard *scheduler.Refresher
	artifacts *scheduler.Refresher
	limiter   *scheduler.Refresher
}

func (r refreshers) all() []*scheduler.Refresher {
	return []*scheduler.Refresher{r.dashboard, r.artifacts, r.limiter}
}

// newRefreshers builds the background jobs: dashboard auto-refresh, stored
// artifact cleanup and login limiter eviction
func newRefreshers(cfg *config.Config, app *bootstrap.App, state *appstate.State, limiter *middleware.RateLimiter, log *zap.Logger) refreshers {
	must := func(r *scheduler.Refresher, err error) *scheduler.Refresher {
		if err != nil {
			log.Fatal("Failed to create refresher", zap.Error(err))
		}
		return r
	}

	dashboard := must(scheduler.NewRefresher(scheduler.RefresherConfig{
		Name:          "dashboard",
		Interval:      cfg.Dashboard.RefreshInterval,
		StartActive:   false,
		RunOnActivate: true,
	}, func(ctx context.Context) error {
		state.SetLoading(true)
		defer state.SetLoading(false)
		d, err := app.Dashboard.Load(ctx)
		state.SetError(err)
		if err != nil {
			return app.Gate.HandleError(ctx, err)
		}
		state.SetDashboard(d)
		return nil
	}, log))

	artifacts := must(scheduler.NewRefresher(scheduler.RefresherConfig{
		Name:        "artifact-cleanup",
		Interval:    artifactCleanupInterval,
		StartActive: true,
	}, func(ctx context.Context) error {
		return app.Exports.CleanupArtifacts(ctx, cfg.Storage.Retention)
	}, log))

	limiterCleanup := must(scheduler.NewRefresher(scheduler.RefresherConfig{
		Name:        "login-limiter-cleanup",
		Interval:    cfg.HTTP.LoginRateWindow,
		StartActive: true,
	}, func(context.Context) error {
		if n := limiter.Cleanup(); n > 0 {
			log.Debug("Evicted idle login limiters", zap.Int("count", n))
		}
		return nil
	}, log))

	return refreshers{dashboard: dashboard, artifacts: artifacts, limiter: limiterCleanup}
}
