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

// StockHandler handles withdrawal, adjustment, discard and ledger endpoints
type StockHandler struct {
	service *service.StockService
	logger  *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(svc *service.StockService, log *logger.Logger) *StockHandler {
	return &StockHandler{
		service: svc,
		logger:  log,
	}
}

type withdrawalRequest struct {
	ItemID   string          `json:"item_id" validate:"required,uuid"`
	Quantity decimal.Decimal `json:"quantity" validate:"required"`
	Note     *string         `json:"note,omitempty"`
}

// PlanWithdrawal previews which lots a withdrawal would consume
func (h *StockHandler) PlanWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req withdrawalRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	plan, err := h.service.PlanWithdrawal(r.Context(), req.ItemID, req.Quantity)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, plan)
}

// PerformWithdrawal withdraws stock in expiry order
func (h *StockHandler) PerformWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req withdrawalRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	movements, err := h.service.PerformWithdrawal(r.Context(), req.ItemID, req.Quantity, req.Note)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, movements)
}

type adjustRequest struct {
	Delta decimal.Decimal `json:"delta" validate:"required"`
	Note  *string         `json:"note,omitempty"`
}

// AdjustLot corrects a lot quantity by a signed delta
func (h *StockHandler) AdjustLot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req adjustRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	lot, err := h.service.AdjustLot(r.Context(), id, req.Delta, req.Note)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, lot)
}

type discardRequest struct {
	Quantity decimal.Decimal `json:"quantity" validate:"required"`
	Note     *string         `json:"note,omitempty"`
}

// DiscardLot removes spoiled or expired stock from a lot
func (h *StockHandler) DiscardLot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req discardRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	lot, err := h.service.DiscardLot(r.Context(), id, req.Quantity, req.Note)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, lot)
}

// ListMovements lists ledger movements newest first
func (h *StockHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePageParams(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	filter := repository.MovementFilter{
		Limit:  limit,
		Offset: offset,
	}

	if v := r.URL.Query().Get("item_id"); v != "" {
		filter.ItemID = &v
	}
	if v := r.URL.Query().Get("lot_id"); v != "" {
		filter.LotID = &v
	}
	if v := r.URL.Query().Get("actor_id"); v != "" {
		filter.Actor = &v
	}
	if v := r.URL.Query().Get("kind"); v != "" {
		kind := domain.MovementKind(v)
		if !kind.Valid() {
			httputil.Error(w, errBadQueryParam("kind"))
			return
		}
		filter.Kind = &kind
	}

	from, to, err := parseTimeRange(r, false)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if !from.IsZero() {
		filter.From = &from
	}
	if !to.IsZero() {
		filter.To = &to
	}

	movements, err := h.service.ListMovements(r.Context(), filter)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, movements)
}
