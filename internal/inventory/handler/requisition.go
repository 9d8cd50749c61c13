package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/labstock/labstock-backend/internal/inventory/domain"
	"github.com/labstock/labstock-backend/internal/inventory/repository"
	"github.com/labstock/labstock-backend/internal/inventory/service"
	"github.com/labstock/labstock-backend/pkg/httputil"
	"github.com/labstock/labstock-backend/pkg/logger"
)

// RequisitionHandler handles requisition endpoints
type RequisitionHandler struct {
	service *service.RequisitionService
	logger  *logger.Logger
}

// NewRequisitionHandler creates a new requisition handler
func NewRequisitionHandler(svc *service.RequisitionService, log *logger.Logger) *RequisitionHandler {
	return &RequisitionHandler{
		service: svc,
		logger:  log,
	}
}

type createRequisitionRequest struct {
	ItemID   string          `json:"item_id" validate:"required,uuid"`
	Quantity decimal.Decimal `json:"quantity" validate:"required"`
	Reason   *string         `json:"reason,omitempty"`
}

// Create opens a pending requisition
func (h *RequisitionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequisitionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	requisition, err := h.service.Create(r.Context(), req.ItemID, req.Quantity, req.Reason)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, requisition)
}

// Get gets a requisition by ID
func (h *RequisitionHandler) Get(w http.ResponseWriter, r *http.Request) {
	requisition, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, requisition)
}

// List lists requisitions newest first
func (h *RequisitionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePageParams(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	filter := repository.RequisitionFilter{
		Limit:  limit,
		Offset: offset,
	}

	if v := r.URL.Query().Get("status"); v != "" {
		status := domain.RequisitionStatus(v)
		if !status.Valid() {
			httputil.Error(w, errBadQueryParam("status"))
			return
		}
		filter.Status = &status
	}
	if v := r.URL.Query().Get("item_id"); v != "" {
		filter.ItemID = &v
	}
	if v := r.URL.Query().Get("requested_by"); v != "" {
		filter.RequestedBy = &v
	}

	requisitions, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, requisitions)
}

type requisitionResolution struct {
	Requisition *repository.Requisition     `json:"requisition"`
	Movements   []*repository.StockMovement `json:"movements,omitempty"`
}

// Approve approves a pending requisition and withdraws the stock
func (h *RequisitionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	requisition, movements, err := h.service.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, requisitionResolution{
		Requisition: requisition,
		Movements:   movements,
	})
}

// Reject rejects a pending requisition
func (h *RequisitionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	requisition, err := h.service.Reject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, requisitionResolution{Requisition: requisition})
}

// Delete deletes a pending requisition
func (h *RequisitionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
