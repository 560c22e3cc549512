package inventory

import (
	"context"
	"time"

	"github.com/stockmgmt/dashboard/internal/domain/report"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
	"github.com/stockmgmt/dashboard/internal/infrastructure/logger"
	"github.com/stockmgmt/dashboard/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// TransactionService handles stock movements. Transactions are create-only.
type TransactionService struct {
	transactions     stock.TransactionGateway
	products         stock.ProductGateway
	logger           *zap.Logger
	precheckStockOut bool
	location         *time.Location
}

// TransactionOption configures a TransactionService
type TransactionOption func(*TransactionService)

// WithStockOutPrecheck enables the advisory available-stock check before a stock-out
func WithStockOutPrecheck(enabled bool) TransactionOption {
	return func(s *TransactionService) { s.precheckStockOut = enabled }
}

// WithLocation sets the zone used for monthly bucketing
func WithLocation(loc *time.Location) TransactionOption {
	return func(s *TransactionService) {
		if loc != nil {
			s.location = loc
		}
	}
}

// NewTransactionService creates a new TransactionService. products is only
// read by the stock-out pre-check.
func NewTransactionService(transactions stock.TransactionGateway, products stock.ProductGateway, log *zap.Logger, opts ...TransactionOption) *TransactionService {
	s := &TransactionService{
		transactions: transactions,
		products:     products,
		logger:       logger.OrNop(log).Named("transaction_service"),
		location:     time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns one page of transactions
func (s *TransactionService) List(ctx context.Context, filter stock.Filter) (*stock.Page[stock.Transaction], error) {
	page, err := s.transactions.List(ctx, filter)
	if err != nil {
		return nil, fail(ctx, s.logger, "list transactions", err, zap.Int("page", filter.Page))
	}
	return page, nil
}

// ListAll returns every transaction matching filter
func (s *TransactionService) ListAll(ctx context.Context, filter stock.Filter) ([]stock.Transaction, error) {
	items, err := s.transactions.ListAll(ctx, filter)
	if err != nil {
		return nil, fail(ctx, s.logger, "list all transactions", err)
	}
	return items, nil
}

// Create records a movement through the generic endpoint. The total amount is
// always recomputed from quantity and unit price.
func (s *TransactionService) Create(ctx context.Context, draft stock.TransactionDraft) (*stock.Transaction, error) {
	return s.submit(ctx, "create", draft, s.transactions.Create)
}

// StockIn records a stock-in through its dedicated endpoint
func (s *TransactionService) StockIn(ctx context.Context, draft stock.TransactionDraft) (*stock.Transaction, error) {
	draft.TransactionType = stock.TransactionTypeStockIn
	return s.submit(ctx, "stock_in", draft, s.transactions.StockIn)
}

// StockOut records a stock-out through its dedicated endpoint
func (s *TransactionService) StockOut(ctx context.Context, draft stock.TransactionDraft) (*stock.Transaction, error) {
	draft.TransactionType = stock.TransactionTypeStockOut
	return s.submit(ctx, "stock_out", draft, s.transactions.StockOut)
}

func (s *TransactionService) submit(
	ctx context.Context,
	method string,
	draft stock.TransactionDraft,
	send func(context.Context, stock.TransactionDraft) (*stock.Transaction, error),
) (txn *stock.Transaction, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "transaction", method,
		telemetry.SpanAttrProductID, draft.ProductID.String(),
		telemetry.SpanAttrTxnType, string(draft.TransactionType),
		telemetry.SpanAttrQuantity, draft.Quantity,
	)
	defer func() { telemetry.End(span, err) }()

	draft.Normalize()
	if err := validationError(stock.ValidateTransaction(&draft)); err != nil {
		return nil, err
	}

	if s.precheckStockOut && draft.TransactionType == stock.TransactionTypeStockOut {
		if err := s.checkAvailable(ctx, draft); err != nil {
			return nil, err
		}
	}

	txn, err = send(ctx, draft)
	if err != nil {
		return nil, fail(ctx, s.logger, "create transaction", err,
			zap.String("product_id", draft.ProductID.String()),
			zap.String("transaction_type", string(draft.TransactionType)),
			zap.Int64("quantity", draft.Quantity))
	}
	s.logger.Info("Transaction recorded",
		zap.String("transaction_id", txn.ID.String()),
		zap.String("transaction_type", string(txn.TransactionType)),
		zap.Int64("quantity", txn.Quantity))
	return txn, nil
}

// checkAvailable is advisory; the backend still decides
func (s *TransactionService) checkAvailable(ctx context.Context, draft stock.TransactionDraft) error {
	p, err := s.products.Get(ctx, draft.ProductID)
	if err != nil {
		return fail(ctx, s.logger, "stock-out pre-check", err, zap.String("product_id", draft.ProductID.String()))
	}
	if err := stock.CheckStockOut(p, draft.Quantity); err != nil {
		s.logger.Warn("Stock-out rejected by pre-check",
			zap.String("product_id", p.ID.String()),
			zap.Int64("requested", draft.Quantity),
			zap.Int64("available", p.CurrentStock))
		return err
	}
	return nil
}

// SummaryGateway is implemented by transaction gateways whose backend can
// aggregate every transaction itself
type SummaryGateway interface {
	Summary(ctx context.Context) (*report.TransactionSummary, error)
}

// Summary totals every transaction matching filter by movement type. An
// unfiltered summary is taken from the backend aggregate when the gateway
// offers one.
func (s *TransactionService) Summary(ctx context.Context, filter stock.Filter) (*report.TransactionSummary, error) {
	if sg, ok := s.transactions.(SummaryGateway); ok && filter == (stock.Filter{}) {
		summary, err := sg.Summary(ctx)
		if err != nil {
			return nil, fail(ctx, s.logger, "transaction summary", err)
		}
		return summary, nil
	}
	all, err := s.transactions.ListAll(ctx, filter)
	if err != nil {
		return nil, fail(ctx, s.logger, "transaction summary", err)
	}
	summary := report.SummarizeTransactions(all)
	return &summary, nil
}

// MonthlyTrends groups every transaction matching filter by calendar month
func (s *TransactionService) MonthlyTrends(ctx context.Context, filter stock.Filter) ([]report.MonthlyTrend, error) {
	all, err := s.transactions.ListAll(ctx, filter)
	if err != nil {
		return nil, fail(ctx, s.logger, "monthly trends", err)
	}
	return report.MonthlyTrends(all, s.location), nil
}
