// Package bootstrap wires configuration into the backend client, the
// session gate and the application services shared by the server and the
// export command.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stockmgmt/dashboard/internal/application/inventory"
	"github.com/stockmgmt/dashboard/internal/application/session"
	"github.com/stockmgmt/dashboard/internal/infrastructure/apiclient"
	"github.com/stockmgmt/dashboard/internal/infrastructure/config"
	"github.com/stockmgmt/dashboard/internal/infrastructure/export"
	"github.com/stockmgmt/dashboard/internal/infrastructure/logger"
	store "github.com/stockmgmt/dashboard/internal/infrastructure/session"
	"github.com/stockmgmt/dashboard/internal/infrastructure/storage"
	"go.uber.org/zap"
)

// Options selects the optional parts of the wiring
type Options struct {
	// Registerer receives backend client metrics; nil disables them
	Registerer prometheus.Registerer
	// WithStorage builds the artifact store
	WithStorage bool
	// SessionStore overrides the configured session store
	SessionStore store.Store
}

// App is the wired application
type App struct {
	Config *config.Config
	Logger *zap.Logger

	Client       *apiclient.Client
	Gate         *session.Gate
	Dashboard    *inventory.DashboardService
	Products     *inventory.ProductService
	Suppliers    *inventory.SupplierService
	Transactions *inventory.TransactionService
	Exports      *inventory.ExportService

	Sessions  store.Store
	Renderer  *export.ChromedpRenderer
	Artifacts storage.ArtifactStore
}

// New builds the App. The gate is the client's token source, so every
// backend call carries the current session token.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts Options) (*App, error) {
	log = logger.OrNop(log)
	a := &App{Config: cfg, Logger: log}

	clientOpts := []apiclient.Option{
		apiclient.WithLogger(log.Named("apiclient")),
		apiclient.WithTokenSource(apiclient.TokenFunc(func(ctx context.Context) string {
			return a.Gate.Token(ctx)
		})),
	}
	if opts.Registerer != nil {
		m, err := apiclient.NewMetrics(opts.Registerer, cfg.Metrics.Namespace)
		if err != nil {
			return nil, fmt.Errorf("backend metrics: %w", err)
		}
		clientOpts = append(clientOpts, apiclient.WithMetrics(m))
	}
	client, err := apiclient.New(cfg.API, clientOpts...)
	if err != nil {
		return nil, err
	}
	a.Client = client

	sessions := opts.SessionStore
	if sessions == nil {
		sessions, err = store.NewFactory(cfg.Session, cfg.Redis,
			store.WithLogger(log),
			store.WithInMemoryFallback(cfg.App.Env != "production"),
		).CreateStore()
		if err != nil {
			return nil, fmt.Errorf("session store: %w", err)
		}
	}
	a.Sessions = sessions
	a.Gate = session.NewGate(apiclient.NewAuthAPI(client), sessions, log)

	products := apiclient.NewProductAPI(client)
	suppliers := apiclient.NewSupplierAPI(client)
	transactions := apiclient.NewTransactionAPI(client)
	var _ inventory.SummaryGateway = transactions

	a.Dashboard = inventory.NewDashboardService(
		apiclient.NewDashboardAPI(client), products, transactions,
		inventory.DashboardOptionsFromConfig(cfg.Dashboard), log,
	)
	a.Products = inventory.NewProductService(products, transactions, log)
	a.Suppliers = inventory.NewSupplierService(suppliers, products, log)
	a.Transactions = inventory.NewTransactionService(transactions, products, log,
		inventory.WithStockOutPrecheck(cfg.Dashboard.PrecheckStockOut),
		inventory.WithLocation(cfg.Dashboard.Location()),
	)

	layout := export.A4Portrait()
	if cfg.PDF.Landscape {
		layout = layout.Landscape()
	}
	a.Renderer = export.NewChromedpRenderer(cfg.PDF, log.Named("pdf"))
	engine := export.NewEngine(
		export.WithRenderer(a.Renderer),
		export.WithLayout(layout),
		export.WithLogger(log),
	)

	exportOpts := []inventory.ExportServiceOption{
		inventory.WithExportTitle(cfg.Export.Title),
		inventory.WithExportLocation(cfg.Dashboard.Location()),
	}
	if opts.WithStorage {
		a.Artifacts, err = storage.NewArtifactStore(ctx, cfg.Storage, log.Named("storage"))
		if err != nil {
			_ = a.Renderer.Close()
			return nil, fmt.Errorf("artifact store: %w", err)
		}
		exportOpts = append(exportOpts, inventory.WithArtifactStore(a.Artifacts))
	}
	a.Exports = inventory.NewExportService(products, suppliers, transactions, engine, log, exportOpts...)

	return a, nil
}

// Close releases the PDF renderer and the stores holding connections
func (a *App) Close() error {
	var errs []error
	if a.Renderer != nil {
		errs = append(errs, a.Renderer.Close())
	}
	for _, v := range []any{a.Artifacts, a.Sessions} {
		if c, ok := v.(interface{ Close() error }); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
