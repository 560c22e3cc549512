package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/stockmgmt/dashboard/internal/application/appstate"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
	"github.com/stockmgmt/dashboard/internal/interfaces/http/dto"
)

// ProductHandler serves product endpoints
type ProductHandler struct {
	BaseHandler
	svc    ProductService
	state  *appstate.State
	notify Notifier
}

// NewProductHandler creates a ProductHandler. state and notify may be nil.
func NewProductHandler(svc ProductService, state *appstate.State, notify Notifier) *ProductHandler {
	return &ProductHandler{svc: svc, state: state, notify: notify}
}

// List returns one page of products
func (h *ProductHandler) List(c *gin.Context) {
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

// Get returns a product by id
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// LowStock returns products at or below their minimum level but not out
func (h *ProductHandler) LowStock(c *gin.Context) {
	products, err := h.svc.LowStock(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}

// OutOfStock returns products with no stock
func (h *ProductHandler) OutOfStock(c *gin.Context) {
	products, err := h.svc.OutOfStock(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}

// Reorder returns the restocking report
func (h *ProductHandler) Reorder(c *gin.Context) {
	var q dto.ReorderQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	rep, err := h.svc.Reorder(c.Request.Context(), q.Threshold)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rep)
}

// Categories returns the distinct categories
func (h *ProductHandler) Categories(c *gin.Context) {
	cats, err := h.svc.Categories(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cats)
}

// Create validates and creates a product
func (h *ProductHandler) Create(c *gin.Context) {
	var in stock.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.BindError(c, err)
		return
	}
	p, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if h.state != nil {
		h.state.UpsertProduct(*p)
	}
	h.notifySuccess("Product " + p.Name + " created")
	h.Created(c, p)
}

// Update replaces a product
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var in stock.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.BindError(c, err)
		return
	}
	p, err := h.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if h.state != nil {
		h.state.UpsertProduct(*p)
	}
	h.notifySuccess("Product " + p.Name + " updated")
	h.Success(c, p)
}

// Delete removes a product
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	if h.state != nil {
		h.state.RemoveProduct(id)
	}
	h.notifySuccess("Product deleted")
	h.NoContent(c)
}

func (h *ProductHandler) notifySuccess(msg string) {
	if h.notify != nil {
		h.notify.Push(appstate.LevelSuccess, msg, 0)
	}
}
