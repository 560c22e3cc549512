package inventory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/stockmgmt/dashboard/internal/domain/report"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
	"github.com/stockmgmt/dashboard/internal/infrastructure/export"
	"github.com/stockmgmt/dashboard/internal/infrastructure/logger"
	"github.com/stockmgmt/dashboard/internal/infrastructure/storage"
	"github.com/stockmgmt/dashboard/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoArtifactStore is returned when an export asks to be stored but no store is configured
var ErrNoArtifactStore = errors.New("inventory: no artifact store configured")

// AllEntities is the default export selection
var AllEntities = []export.Entity{
	export.EntityProducts, export.EntityTransactions, export.EntitySuppliers, export.EntityStatistics,
}

// ExportRequest describes an export to build from live backend data
type ExportRequest struct {
	Format    export.Format
	Entities  []export.Entity // empty means AllEntities
	Prefix    string
	Timestamp bool
	// TransactionFilter narrows the exported transactions, e.g. to a date range
	TransactionFilter stock.Filter
	// Store uploads the artifact to the artifact store
	Store bool
	// Directory writes the artifact to disk
	Directory string
}

// ExportResult is a built artifact plus where it was kept, if anywhere
type ExportResult struct {
	Artifact *export.Artifact
	Stored   *storage.StoredArtifact
}

// ExportService fetches what an export needs and hands it to the export engine
type ExportService struct {
	products     stock.ProductGateway
	suppliers    stock.SupplierGateway
	transactions stock.TransactionGateway
	engine       *export.Engine
	store        storage.ArtifactStore
	title        string
	location     *time.Location
	logger       *zap.Logger
}

// ExportServiceOption configures an ExportService
type ExportServiceOption func(*ExportService)

// WithArtifactStore enables ExportRequest.Store
func WithArtifactStore(store storage.ArtifactStore) ExportServiceOption {
	return func(s *ExportService) { s.store = store }
}

// WithExportTitle sets the document title
func WithExportTitle(title string) ExportServiceOption {
	return func(s *ExportService) { s.title = title }
}

// WithExportLocation sets the zone timestamps are rendered in
func WithExportLocation(loc *time.Location) ExportServiceOption {
	return func(s *ExportService) { s.location = loc }
}

// NewExportService creates a new ExportService
func NewExportService(
	products stock.ProductGateway,
	suppliers stock.SupplierGateway,
	transactions stock.TransactionGateway,
	engine *export.Engine,
	log *zap.Logger,
	opts ...ExportServiceOption,
) *ExportService {
	s := &ExportService{
		products:     products,
		suppliers:    suppliers,
		transactions: transactions,
		engine:       engine,
		title:        export.DefaultTitle,
		location:     time.UTC,
		logger:       logger.OrNop(log).Named("export_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Export fetches every page of the requested entities concurrently, builds the
// artifact and optionally stores it. Any failure fails the whole export.
func (s *ExportService) Export(ctx context.Context, req ExportRequest) (result *ExportResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "export", "export", telemetry.SpanAttrFormat, string(req.Format))
	defer func() { telemetry.End(span, err) }()

	if req.Store && s.store == nil {
		return nil, ErrNoArtifactStore
	}

	ds, err := s.Dataset(ctx, req.Entities, req.TransactionFilter)
	if err != nil {
		return nil, fail(ctx, s.logger, "fetch export data", err, zap.String("format", string(req.Format)))
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrRecordCount,
		len(ds.Products)+len(ds.Transactions)+len(ds.Suppliers))

	engineReq := export.Request{
		Format:    req.Format,
		Dataset:   ds,
		Prefix:    req.Prefix,
		Timestamp: req.Timestamp,
		Directory: req.Directory,
	}
	var artifact *export.Artifact
	if req.Directory != "" {
		artifact, err = s.engine.Export(ctx, engineReq)
	} else {
		artifact, err = s.engine.Generate(ctx, engineReq)
	}
	if err != nil {
		return nil, fail(ctx, s.logger, "build export", err, zap.String("format", string(req.Format)))
	}

	result = &ExportResult{Artifact: artifact}
	if req.Store {
		key := storage.ArtifactKey(artifact.Filename, time.Now())
		stored, err := s.store.Save(ctx, key, artifact.Data, artifact.ContentType)
		if err != nil {
			return nil, fail(ctx, s.logger, "store export", err, zap.String("key", key))
		}
		result.Stored = stored
	}
	return result, nil
}

// Dataset fetches the requested entities concurrently. Statistics are computed
// from all products and transactions, fetching them if they were not requested.
func (s *ExportService) Dataset(ctx context.Context, entities []export.Entity, txnFilter stock.Filter) (*export.Dataset, error) {
	if len(entities) == 0 {
		entities = AllEntities
	}
	wantStats := slices.Contains(entities, export.EntityStatistics)
	wantProducts := slices.Contains(entities, export.EntityProducts)
	wantTxns := slices.Contains(entities, export.EntityTransactions)

	var (
		products     []stock.Product
		transactions []stock.Transaction
		suppliers    []stock.Supplier
	)
	g, gctx := errgroup.WithContext(ctx)
	if wantProducts || wantStats {
		g.Go(func() error {
			var err error
			products, err = s.products.ListAll(gctx, stock.Filter{})
			return err
		})
	}
	if wantTxns || wantStats {
		g.Go(func() error {
			var err error
			transactions, err = s.transactions.ListAll(gctx, txnFilter)
			return err
		})
	}
	if slices.Contains(entities, export.EntitySuppliers) {
		g.Go(func() error {
			var err error
			suppliers, err = s.suppliers.ListAll(gctx, stock.Filter{})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds := &export.Dataset{
		Title:     s.title,
		Location:  s.location,
		Suppliers: suppliers,
	}
	if wantStats {
		stats := report.Statistics(products, transactions)
		if suppliers != nil {
			stats.TotalSuppliers = int64(len(suppliers))
		}
		ds.Statistics = &stats
	}
	if wantProducts {
		ds.Products = products
	}
	if wantTxns {
		ds.Transactions = transactions
	}
	return ds, nil
}

// ParseEntities maps query values onto entities, rejecting unknown names
func ParseEntities(names []string) ([]export.Entity, error) {
	out := make([]export.Entity, 0, len(names))
	for _, n := range names {
		e := export.Entity(n)
		if !slices.Contains(AllEntities, e) {
			return nil, &ValidationError{Errors: []string{fmt.Sprintf("unknown export entity %q", n)}}
		}
		if !slices.Contains(out, e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// CleanupArtifacts removes stored artifacts older than retention; used as a scheduler job
func (s *ExportService) CleanupArtifacts(ctx context.Context, retention time.Duration) error {
	if s.store == nil || retention <= 0 {
		return nil
	}
	n, err := s.store.CleanupOlderThan(ctx, retention)
	if err != nil {
		return fail(ctx, s.logger, "cleanup artifacts", err)
	}
	if n > 0 {
		s.logger.Info("Expired export artifacts removed", zap.Int("count", n))
	}
	return nil
}
