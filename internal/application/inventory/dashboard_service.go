package inventory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stockmgmt/dashboard/internal/domain/report"
	"github.com/stockmgmt/dashboard/internal/domain/shared"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
	"github.com/stockmgmt/dashboard/internal/infrastructure/config"
	"github.com/stockmgmt/dashboard/internal/infrastructure/logger"
	"github.com/stockmgmt/dashboard/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Dashboard is the composite dashboard view. It is only ever returned whole.
type Dashboard struct {
	Stats            *report.DashboardStats   `json:"stats"`
	StockLevels      []report.StockLevelPoint `json:"stock_levels"`
	TransactionTrend []report.TrendPoint      `json:"transaction_trends"`
	LowStock         []report.StockAlert      `json:"low_stock_products"`
	RecentActivities []report.RecentActivity  `json:"recent_activities"`
	LoadedAt         time.Time                `json:"loaded_at"`
}

// DashboardOptions tunes the composite load and the rankings
type DashboardOptions struct {
	TrendDays     int
	RecentLimit   int
	TopLimit      int
	LookupWorkers int
	Location      *time.Location
}

// DashboardOptionsFromConfig maps the dashboard config section
func DashboardOptionsFromConfig(cfg config.DashboardConfig) DashboardOptions {
	return DashboardOptions{
		TrendDays:     cfg.TrendDays,
		RecentLimit:   cfg.RecentLimit,
		TopLimit:      cfg.TopLimit,
		LookupWorkers: cfg.LookupWorkers,
		Location:      cfg.Location(),
	}
}

func (o *DashboardOptions) applyDefaults() {
	if o.TrendDays <= 0 {
		o.TrendDays = 30
	}
	if o.RecentLimit <= 0 {
		o.RecentLimit = 10
	}
	if o.TopLimit <= 0 {
		o.TopLimit = 10
	}
	if o.LookupWorkers <= 0 {
		o.LookupWorkers = 8
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
}

// DashboardService assembles the dashboard views
type DashboardService struct {
	dashboard    report.DashboardGateway
	products     stock.ProductGateway
	transactions stock.TransactionGateway
	opts         DashboardOptions
	logger       *zap.Logger
	now          func() time.Time

	mu   sync.RWMutex
	last *Dashboard
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	dashboard report.DashboardGateway,
	products stock.ProductGateway,
	transactions stock.TransactionGateway,
	opts DashboardOptions,
	log *zap.Logger,
) *DashboardService {
	opts.applyDefaults()
	return &DashboardService{
		dashboard:    dashboard,
		products:     products,
		transactions: transactions,
		opts:         opts,
		logger:       logger.OrNop(log).Named("dashboard_service"),
		now:          time.Now,
	}
}

// SetClock overrides the time source; used by tests
func (s *DashboardService) SetClock(now func() time.Time) {
	s.now = now
}

// Load fetches the five dashboard legs concurrently. The first failing leg
// cancels the others and fails the whole load; nothing partial is returned.
func (s *DashboardService) Load(ctx context.Context) (d *Dashboard, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "dashboard", "load",
		telemetry.SpanAttrDays, s.opts.TrendDays,
		telemetry.SpanAttrLimit, s.opts.RecentLimit,
	)
	defer func() { telemetry.End(span, err) }()

	var out Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := s.dashboard.Stats(gctx)
		out.Stats = stats
		return err
	})
	g.Go(func() error {
		levels, err := s.dashboard.StockLevels(gctx)
		out.StockLevels = levels
		return err
	})
	g.Go(func() error {
		trend, err := s.dashboard.TransactionTrends(gctx, s.opts.TrendDays)
		out.TransactionTrend = trend
		return err
	})
	g.Go(func() error {
		low, err := s.dashboard.LowStockProducts(gctx)
		out.LowStock = low
		return err
	})
	g.Go(func() error {
		recent, err := s.dashboard.RecentActivities(gctx, s.opts.RecentLimit)
		out.RecentActivities = recent
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fail(ctx, s.logger, "load dashboard", err)
	}

	normalizeDashboard(&out)
	out.LoadedAt = s.now()

	s.mu.Lock()
	s.last = &out
	s.mu.Unlock()
	return &out, nil
}

// Refresh reloads the dashboard, discarding the result; used as a scheduler job
func (s *DashboardService) Refresh(ctx context.Context) error {
	_, err := s.Load(ctx)
	return err
}

// Last returns the most recent successful load, or nil
func (s *DashboardService) Last() *Dashboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

func normalizeDashboard(d *Dashboard) {
	if d.Stats == nil {
		d.Stats = &report.DashboardStats{}
	}
	if d.StockLevels == nil {
		d.StockLevels = []report.StockLevelPoint{}
	}
	if d.TransactionTrend == nil {
		d.TransactionTrend = []report.TrendPoint{}
	}
	if d.LowStock == nil {
		d.LowStock = []report.StockAlert{}
	}
	if d.RecentActivities == nil {
		d.RecentActivities = []report.RecentActivity{}
	}
}

// DailySummary returns the dense per-day movement summary for the last days
// calendar days, today included
func (s *DashboardService) DailySummary(ctx context.Context, days int) (entries []report.DailyEntry, err error) {
	if days <= 0 {
		return []report.DailyEntry{}, nil
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "dashboard", "daily_summary", telemetry.SpanAttrDays, days)
	defer func() { telemetry.End(span, err) }()

	end := s.now().In(s.opts.Location)
	from := startOfDay(end).AddDate(0, 0, -(days - 1))
	to := end
	all, err := s.transactions.ListAll(ctx, stock.Filter{DateFrom: &from, DateTo: &to})
	if err != nil {
		return nil, fail(ctx, s.logger, "daily summary", err, zap.Int("days", days))
	}
	return report.DailySummary(all, end, days, s.opts.Location), nil
}

// TopProducts ranks products by metric over the transactions matching filter.
// Products are resolved concurrently, bounded by LookupWorkers; lookups that
// fail are omitted from the ranking. n <= 0 uses the configured default.
func (s *DashboardService) TopProducts(ctx context.Context, filter stock.Filter, n int, metric report.RankMetric) (ranked []report.RankedProduct, err error) {
	if n <= 0 {
		n = s.opts.TopLimit
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "dashboard", "top_products",
		telemetry.SpanAttrLimit, n,
		telemetry.SpanAttrMetric, string(metric),
	)
	defer func() { telemetry.End(span, err) }()

	all, err := s.transactions.ListAll(ctx, filter)
	if err != nil {
		return nil, fail(ctx, s.logger, "top products", err)
	}

	movements := report.GroupByProduct(all)
	resolved, err := s.resolveProducts(ctx, movements)
	if err != nil {
		return nil, fail(ctx, s.logger, "top products", err)
	}
	return report.RankProducts(movements, resolved, n, metric), nil
}

// resolveProducts looks up every product concurrently. Only cancellation of
// ctx is an error; individual lookup failures leave the product out.
func (s *DashboardService) resolveProducts(ctx context.Context, movements []report.ProductMovement) (map[uuid.UUID]*stock.Product, error) {
	var mu sync.Mutex
	resolved := make(map[uuid.UUID]*stock.Product, len(movements))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.LookupWorkers)
	for _, m := range movements {
		id := m.ProductID
		g.Go(func() error {
			p, err := s.products.Get(gctx, id)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				level := s.logger.Warn
				if errors.Is(err, shared.ErrNotFound) {
					level = s.logger.Debug
				}
				level("Product lookup failed, omitting from ranking",
					zap.String("product_id", id.String()), zap.Error(err))
				return nil
			}
			mu.Lock()
			resolved[id] = p
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resolved, nil
}

// InventoryValue returns the backend's value breakdown by category and supplier
func (s *DashboardService) InventoryValue(ctx context.Context) (*report.InventoryValueReport, error) {
	r, err := s.dashboard.InventoryValue(ctx)
	if err != nil {
		return nil, fail(ctx, s.logger, "inventory value", err)
	}
	return r, nil
}

// StockAlerts computes the alert list locally from every product
func (s *DashboardService) StockAlerts(ctx context.Context, limit int) ([]report.StockAlert, error) {
	all, err := s.products.ListAll(ctx, stock.Filter{})
	if err != nil {
		return nil, fail(ctx, s.logger, "stock alerts", err)
	}
	return report.StockAlerts(all, limit), nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
