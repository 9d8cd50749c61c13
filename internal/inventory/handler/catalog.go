package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/labstock/labstock-backend/internal/inventory/repository"
	"github.com/labstock/labstock-backend/internal/inventory/service"
	"github.com/labstock/labstock-backend/pkg/httputil"
	"github.com/labstock/labstock-backend/pkg/logger"
)

// CatalogHandler handles category, supplier and location endpoints
type CatalogHandler struct {
	service *service.CatalogService
	logger  *logger.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(svc *service.CatalogService, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: svc,
		logger:  log,
	}
}

type categoryRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description,omitempty"`
}

// CreateCategory creates a new category
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	c := &repository.Category{Name: req.Name, Description: req.Description}
	if err := h.service.CreateCategory(r.Context(), c); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, c)
}

// GetCategory gets a category by ID
func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, c)
}

// ListCategories lists all categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, categories)
}

// UpdateCategory updates a category
func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	c := &repository.Category{
		ID:          chi.URLParam(r, "id"),
		Name:        req.Name,
		Description: req.Description,
	}
	if err := h.service.UpdateCategory(r.Context(), c); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, c)
}

// DeleteCategory deletes a category
func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}

type supplierRequest struct {
	Name  string  `json:"name" validate:"required,max=255"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,max=50"`
}

// CreateSupplier creates a new supplier
func (h *CatalogHandler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	s := &repository.Supplier{Name: req.Name, Email: req.Email, Phone: req.Phone}
	if err := h.service.CreateSupplier(r.Context(), s); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, s)
}

// GetSupplier gets a supplier by ID
func (h *CatalogHandler) GetSupplier(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.GetSupplier(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, s)
}

// ListSuppliers lists all suppliers
func (h *CatalogHandler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.service.ListSuppliers(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, suppliers)
}

// UpdateSupplier updates a supplier
func (h *CatalogHandler) UpdateSupplier(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	s := &repository.Supplier{
		ID:    chi.URLParam(r, "id"),
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	}
	if err := h.service.UpdateSupplier(r.Context(), s); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, s)
}

// DeleteSupplier deletes a supplier
func (h *CatalogHandler) DeleteSupplier(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSupplier(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}

type locationRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description,omitempty"`
}

// CreateLocation creates a new storage location
func (h *CatalogHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	l := &repository.Location{Name: req.Name, Description: req.Description}
	if err := h.service.CreateLocation(r.Context(), l); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, l)
}

// GetLocation gets a storage location by ID
func (h *CatalogHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	l, err := h.service.GetLocation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, l)
}

// ListLocations lists all storage locations
func (h *CatalogHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.service.ListLocations(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.JSON(w, http.StatusOK, locations)
}

// UpdateLocation updates a storage location
func (h *CatalogHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	l := &repository.Location{
		ID:          chi.URLParam(r, "id"),
		Name:        req.Name,
		Description: req.Description,
	}
	if err := h.service.UpdateLocation(r.Context(), l); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, l)
}

// DeleteLocation deletes a storage location
func (h *CatalogHandler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteLocation(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.NoContent(w)
}
