package handler

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/stockmgmt/dashboard/internal/application/appstate"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
	"github.com/stockmgmt/dashboard/internal/interfaces/http/dto"
)

// TransactionHandler serves stock movement endpoints. Transactions can be
// listed and created, never updated.
type TransactionHandler struct {
	BaseHandler
	svc    TransactionService
	state  *appstate.State
	notify Notifier
}

// NewTransactionHandler creates a TransactionHandler. state and notify may be nil.
func NewTransactionHandler(svc TransactionService, state *appstate.State, notify Notifier) *TransactionHandler {
	return &TransactionHandler{svc: svc, state: state, notify: notify}
}

// List returns one page of transactions
func (h *TransactionHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.svc.List(c.Request.Context(), q.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	SuccessPage(c, page)
}

// Create records a movement of the type given in the body
func (h *TransactionHandler) Create(c *gin.Context) {
	h.submit(c, "", h.svc.Create)
}

// StockIn records a stock-in movement
func (h *TransactionHandler) StockIn(c *gin.Context) {
	h.submit(c, stock.TransactionTypeStockIn, h.svc.StockIn)
}

// StockOut records a stock-out movement
func (h *TransactionHandler) StockOut(c *gin.Context) {
	h.submit(c, stock.TransactionTypeStockOut, h.svc.StockOut)
}

type submitFunc func(ctx context.Context, draft stock.TransactionDraft) (*stock.Transaction, error)

func (h *TransactionHandler) submit(c *gin.Context, typ stock.TransactionType, fn submitFunc) {
	var req dto.TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if typ == "" && req.TransactionType == "" {
		h.BadRequest(c, "transaction_type is required")
		return
	}

	txn, err := fn(c.Request.Context(), req.Draft(typ))
	if err != nil {
		if h.notify != nil {
			h.notify.Push(appstate.LevelError, "Transaction failed: "+err.Error(), 0)
		}
		h.HandleError(c, err)
		return
	}
	if h.state != nil {
		h.state.AddTransaction(*txn)
	}
	if h.notify != nil {
		h.notify.Push(appstate.LevelSuccess, describe(txn), 0)
	}
	h.Created(c, txn)
}

func describe(t *stock.Transaction) string {
	name := t.ProductName
	if name == "" {
		name = t.ProductID.String()
	}
	return fmt.Sprintf("%s of %d recorded for %s", t.TransactionType.DisplayName(), t.Quantity, name)
}
