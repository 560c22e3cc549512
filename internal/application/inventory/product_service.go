package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockmgmt/dashboard/internal/domain/report"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
	"github.com/stockmgmt/dashboard/internal/infrastructure/logger"
	"github.com/stockmgmt/dashboard/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProductService handles product operations
type ProductService struct {
	products     stock.ProductGateway
	transactions stock.TransactionGateway
	logger       *zap.Logger
}

// NewProductService creates a new ProductService. transactions is only used by Statistics.
func NewProductService(products stock.ProductGateway, transactions stock.TransactionGateway, log *zap.Logger) *ProductService {
	return &ProductService{
		products:     products,
		transactions: transactions,
		logger:       logger.OrNop(log).Named("product_service"),
	}
}

// List returns one page of products
func (s *ProductService) List(ctx context.Context, filter stock.Filter) (*stock.Page[stock.Product], error) {
	page, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, fail(ctx, s.logger, "list products", err, zap.Int("page", filter.Page))
	}
	return page, nil
}

// ListAll returns every product matching filter
func (s *ProductService) ListAll(ctx context.Context, filter stock.Filter) ([]stock.Product, error) {
	items, err := s.products.ListAll(ctx, filter)
	if err != nil {
		return nil, fail(ctx, s.logger, "list all products", err)
	}
	return items, nil
}

// Get returns a product by id
func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*stock.Product, error) {
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, fail(ctx, s.logger, "get product", err, zap.String("product_id", id.String()))
	}
	return p, nil
}

// Validate runs the advisory client-side checks
func (s *ProductService) Validate(in *stock.ProductInput) stock.ValidationResult {
	return stock.ValidateProduct(in)
}

// Create validates and creates a product
func (s *ProductService) Create(ctx context.Context, in stock.ProductInput) (*stock.Product, error) {
	if err := validationError(stock.ValidateProduct(&in)); err != nil {
		return nil, err
	}
	p, err := s.products.Create(ctx, in)
	if err != nil {
		return nil, fail(ctx, s.logger, "create product", err, zap.String("name", in.Name))
	}
	s.logger.Info("Product created", zap.String("product_id", p.ID.String()), zap.String("name", p.Name))
	return p, nil
}

// Update validates and replaces a product
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, in stock.ProductInput) (*stock.Product, error) {
	if err := validationError(stock.ValidateProduct(&in)); err != nil {
		return nil, err
	}
	p, err := s.products.Update(ctx, id, in)
	if err != nil {
		return nil, fail(ctx, s.logger, "update product", err, zap.String("product_id", id.String()))
	}
	return p, nil
}

// Delete removes a product
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return fail(ctx, s.logger, "delete product", err, zap.String("product_id", id.String()))
	}
	s.logger.Info("Product deleted", zap.String("product_id", id.String()))
	return nil
}

// Categories returns the category names known to the backend
func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	cats, err := s.products.Categories(ctx)
	if err != nil {
		return nil, fail(ctx, s.logger, "list categories", err)
	}
	return cats, nil
}

// LowStock returns every product with 0 < current_stock ≤ min_stock_level
func (s *ProductService) LowStock(ctx context.Context) ([]stock.Product, error) {
	return s.byStockStatus(ctx, stock.StockStatusLow)
}

// OutOfStock returns every product with current_stock ≤ 0
func (s *ProductService) OutOfStock(ctx context.Context) ([]stock.Product, error) {
	return s.byStockStatus(ctx, stock.StockStatusOutOfStock)
}

// Reorder returns the reorder report for the active products. threshold, when
// set, replaces each product's minimum level for membership.
func (s *ProductService) Reorder(ctx context.Context, threshold *int64) (*report.ReorderReport, error) {
	all, err := s.products.ListAll(ctx, stock.Filter{})
	if err != nil {
		return nil, fail(ctx, s.logger, "reorder report", err)
	}
	rep := report.Reorder(all, threshold)
	return &rep, nil
}

func (s *ProductService) byStockStatus(ctx context.Context, status stock.StockStatus) ([]stock.Product, error) {
	all, err := s.products.ListAll(ctx, stock.Filter{})
	if err != nil {
		return nil, fail(ctx, s.logger, "list products by stock status", err, zap.String("stock_status", string(status)))
	}
	return stock.FilterByStockStatus(all, status), nil
}

// Statistics fetches every product and transaction concurrently and aggregates them
func (s *ProductService) Statistics(ctx context.Context) (stats *report.InventoryStatistics, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "product", "statistics")
	defer func() { telemetry.End(span, err) }()

	var (
		products     []stock.Product
		transactions []stock.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.products.ListAll(gctx, stock.Filter{})
		return err
	})
	g.Go(func() error {
		var err error
		transactions, err = s.transactions.ListAll(gctx, stock.Filter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fail(ctx, s.logger, "compute statistics", err)
	}

	result := report.Statistics(products, transactions)
	telemetry.SetAttributes(span, telemetry.SpanAttrRecordCount, len(products)+len(transactions))
	return &result, nil
}

// CategoryBreakdown groups active products by category
func (s *ProductService) CategoryBreakdown(ctx context.Context) ([]report.CategoryBreakdown, error) {
	all, err := s.products.ListAll(ctx, stock.Filter{})
	if err != nil {
		return nil, fail(ctx, s.logger, "category breakdown", err)
	}
	return report.BreakdownByCategory(all), nil
}
