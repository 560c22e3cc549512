package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/stockmgmt/dashboard/internal/application/appstate"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
	"github.com/stockmgmt/dashboard/internal/interfaces/http/dto"
)

// SupplierHandler serves supplier endpoints
type SupplierHandler struct {
	BaseHandler
	svc    SupplierService
	state  *appstate.State
	notify Notifier
}

// NewSupplierHandler creates a SupplierHandler. state and notify may be nil.
func NewSupplierHandler(svc SupplierService, state *appstate.State, notify Notifier) *SupplierHandler {
	return &SupplierHandler{svc: svc, state: state, notify: notify}
}

// List returns one page of suppliers; active=true returns every active supplier instead
func (h *SupplierHandler) List(c *gin.Context) {
	if c.Query("active") == "true" {
		suppliers, err := h.svc.Active(c.Request.Context())
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, suppliers)
		return
	}

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

// Get returns a supplier by id
func (h *SupplierHandler) Get(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	s, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, s)
}

// Products returns every product of a supplier
func (h *SupplierHandler) Products(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	products, err := h.svc.Products(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}

// Create validates and creates a supplier
func (h *SupplierHandler) Create(c *gin.Context) {
	var in stock.SupplierInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.BindError(c, err)
		return
	}
	s, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if h.state != nil {
		h.state.UpsertSupplier(*s)
	}
	h.notifySuccess("Supplier " + s.Name + " created")
	h.Created(c, s)
}

// Update replaces a supplier
func (h *SupplierHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var in stock.SupplierInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.BindError(c, err)
		return
	}
	s, err := h.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if h.state != nil {
		h.state.UpsertSupplier(*s)
	}
	h.notifySuccess("Supplier " + s.Name + " updated")
	h.Success(c, s)
}

// Delete removes a supplier
func (h *SupplierHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	if h.state != nil {
		h.state.RemoveSupplier(id)
	}
	h.notifySuccess("Supplier deleted")
	h.NoContent(c)
}

func (h *SupplierHandler) notifySuccess(msg string) {
	if h.notify != nil {
		h.notify.Push(appstate.LevelSuccess, msg, 0)
	}
}
