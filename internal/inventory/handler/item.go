package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/labstock/labstock-backend/internal/inventory/repository"
	"github.com/labstock/labstock-backend/internal/inventory/service"
	"github.com/labstock/labstock-backend/pkg/httputil"
	"github.com/labstock/labstock-backend/pkg/logger"
)

// ItemHandler handles item endpoints
type ItemHandler struct {
	service *service.CatalogService
	logger  *logger.Logger
}

// NewItemHandler creates a new item handler
func NewItemHandler(svc *service.CatalogService, log *logger.Logger) *ItemHandler {
	return &ItemHandler{
		service: svc,
		logger:  log,
	}
}

type itemRequest struct {
	SKU          string          `json:"sku" validate:"required,max=100"`
	Name         string          `json:"name" validate:"required,max=255"`
	Description  *string         `json:"description,omitempty"`
	Unit         string          `json:"unit" validate:"required,max=50"`
	MinimumStock decimal.Decimal `json:"minimum_stock"`
	CategoryID   *string         `json:"category_id,omitempty" validate:"omitempty,uuid"`
	SupplierID   *string         `json:"supplier_id,omitempty" validate:"omitempty,uuid"`
}

// Create creates a new item
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	item := &repository.InventoryItem{
		SKU:          req.SKU,
		Name:         req.Name,
		Description:  req.Description,
		Unit:         req.Unit,
		MinimumStock: req.MinimumStock,
		CategoryID:   req.CategoryID,
		SupplierID:   req.SupplierID,
	}
	if err := h.service.CreateItem(r.Context(), item); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, item)
}

// Get gets an item by ID
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}

// List lists items with aggregated stock
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePageParams(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	filter := repository.ItemFilter{
		Limit:  limit,
		Offset: offset,
	}

	if v := r.URL.Query().Get("category_id"); v != "" {
		filter.CategoryID = &v
	}
	if v := r.URL.Query().Get("supplier_id"); v != "" {
		filter.SupplierID = &v
	}
	if v := r.URL.Query().Get("search"); v != "" {
		filter.Search = &v
	}

	items, err := h.service.ListItems(r.Context(), filter)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, items)
}

// ListLowStock lists items at or below their minimum stock
func (h *ItemHandler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListItemsBelowMinimum(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, items)
}

// Update updates an item
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req itemRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	item.SKU = req.SKU
	item.Name = req.Name
	item.Description = req.Description
	item.Unit = req.Unit
	item.MinimumStock = req.MinimumStock
	item.CategoryID = req.CategoryID
	item.SupplierID = req.SupplierID

	if err := h.service.UpdateItem(r.Context(), item); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}

// Delete deletes an item
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteItem(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
