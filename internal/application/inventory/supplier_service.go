package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockmgmt/dashboard/internal/domain/report"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
	"github.com/stockmgmt/dashboard/internal/infrastructure/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SupplierService handles supplier operations
type SupplierService struct {
	suppliers stock.SupplierGateway
	products  stock.ProductGateway
	logger    *zap.Logger
}

// NewSupplierService creates a new SupplierService. products is only used by
// Breakdown and Products.
func NewSupplierService(suppliers stock.SupplierGateway, products stock.ProductGateway, log *zap.Logger) *SupplierService {
	return &SupplierService{
		suppliers: suppliers,
		products:  products,
		logger:    logger.OrNop(log).Named("supplier_service"),
	}
}

// List returns one page of suppliers
func (s *SupplierService) List(ctx context.Context, filter stock.Filter) (*stock.Page[stock.Supplier], error) {
	page, err := s.suppliers.List(ctx, filter)
	if err != nil {
		return nil, fail(ctx, s.logger, "list suppliers", err, zap.Int("page", filter.Page))
	}
	return page, nil
}

// ListAll returns every supplier matching filter
func (s *SupplierService) ListAll(ctx context.Context, filter stock.Filter) ([]stock.Supplier, error) {
	items, err := s.suppliers.ListAll(ctx, filter)
	if err != nil {
		return nil, fail(ctx, s.logger, "list all suppliers", err)
	}
	return items, nil
}

// Active returns every active supplier
func (s *SupplierService) Active(ctx context.Context) ([]stock.Supplier, error) {
	all, err := s.ListAll(ctx, stock.Filter{Status: string(stock.SupplierStatusActive)})
	if err != nil {
		return nil, err
	}
	out := make([]stock.Supplier, 0, len(all))
	for i := range all {
		if all[i].IsActive() {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// Get returns a supplier by id
func (s *SupplierService) Get(ctx context.Context, id uuid.UUID) (*stock.Supplier, error) {
	sup, err := s.suppliers.Get(ctx, id)
	if err != nil {
		return nil, fail(ctx, s.logger, "get supplier", err, zap.String("supplier_id", id.String()))
	}
	return sup, nil
}

// Products returns every product supplied by id. A missing supplier is
// reported before any product is fetched.
func (s *SupplierService) Products(ctx context.Context, id uuid.UUID) ([]stock.Product, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	items, err := s.products.ListAll(ctx, stock.Filter{SupplierID: &id})
	if err != nil {
		return nil, fail(ctx, s.logger, "list supplier products", err, zap.String("supplier_id", id.String()))
	}
	return items, nil
}

// Validate runs the advisory client-side checks
func (s *SupplierService) Validate(in *stock.SupplierInput) stock.ValidationResult {
	return stock.ValidateSupplier(in)
}

// Create validates and creates a supplier
func (s *SupplierService) Create(ctx context.Context, in stock.SupplierInput) (*stock.Supplier, error) {
	if err := validationError(stock.ValidateSupplier(&in)); err != nil {
		return nil, err
	}
	sup, err := s.suppliers.Create(ctx, in)
	if err != nil {
		return nil, fail(ctx, s.logger, "create supplier", err, zap.String("name", in.Name))
	}
	s.logger.Info("Supplier created", zap.String("supplier_id", sup.ID.String()))
	return sup, nil
}

// Update validates and updates a supplier
func (s *SupplierService) Update(ctx context.Context, id uuid.UUID, in stock.SupplierInput) (*stock.Supplier, error) {
	if err := validationError(stock.ValidateSupplier(&in)); err != nil {
		return nil, err
	}
	sup, err := s.suppliers.Update(ctx, id, in)
	if err != nil {
		return nil, fail(ctx, s.logger, "update supplier", err, zap.String("supplier_id", id.String()))
	}
	return sup, nil
}

// Delete removes a supplier
func (s *SupplierService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.suppliers.Delete(ctx, id); err != nil {
		return fail(ctx, s.logger, "delete supplier", err, zap.String("supplier_id", id.String()))
	}
	s.logger.Info("Supplier deleted", zap.String("supplier_id", id.String()))
	return nil
}

// Breakdown groups active products by supplier. Names not embedded in the
// product are resolved from the supplier list.
func (s *SupplierService) Breakdown(ctx context.Context) ([]report.SupplierBreakdown, error) {
	var (
		suppliers []stock.Supplier
		products  []stock.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		suppliers, err = s.suppliers.ListAll(gctx, stock.Filter{})
		return err
	})
	g.Go(func() error {
		var err error
		products, err = s.products.ListAll(gctx, stock.Filter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fail(ctx, s.logger, "supplier breakdown", err)
	}

	names := make(map[uuid.UUID]string, len(suppliers))
	for i := range suppliers {
		names[suppliers[i].ID] = suppliers[i].Name
	}
	return report.BreakdownBySupplier(products, names), nil
}
