package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/labstock/labstock-backend/internal/inventory/repository"
	"github.com/labstock/labstock-backend/internal/inventory/service"
	"github.com/labstock/labstock-backend/pkg/httputil"
	"github.com/labstock/labstock-backend/pkg/logger"
)

// LotHandler handles stock lot endpoints
type LotHandler struct {
	service *service.StockService
	logger  *logger.Logger
}

// NewLotHandler creates a new lot handler
func NewLotHandler(svc *service.StockService, log *logger.Logger) *LotHandler {
	return &LotHandler{
		service: svc,
		logger:  log,
	}
}

type createLotRequest struct {
	ItemID          string          `json:"item_id" validate:"required,uuid"`
	LotNumber       string          `json:"lot_number" validate:"required,max=100"`
	LocationID      *string         `json:"location_id,omitempty" validate:"omitempty,uuid"`
	ExpiryDate      string          `json:"expiry_date" validate:"required,datetime=2006-01-02"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	InitialQuantity decimal.Decimal `json:"initial_quantity" validate:"required"`
	ReceivedDate    *string         `json:"received_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// Create receives a new lot into stock
func (h *LotHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createLotRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	expiry, err := time.Parse("2006-01-02", req.ExpiryDate)
	if err != nil {
		httputil.Error(w, errBadQueryParam("expiry_date"))
		return
	}

	lot := &repository.StockLot{
		ItemID:          req.ItemID,
		LotNumber:       req.LotNumber,
		LocationID:      req.LocationID,
		ExpiryDate:      expiry,
		UnitCost:        req.UnitCost,
		InitialQuantity: req.InitialQuantity,
	}
	if req.ReceivedDate != nil {
		received, err := time.Parse("2006-01-02", *req.ReceivedDate)
		if err != nil {
			httputil.Error(w, errBadQueryParam("received_date"))
			return
		}
		lot.ReceivedDate = received
	}

	if err := h.service.CreateLot(r.Context(), lot); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, lot)
}

// Get gets a lot by ID
func (h *LotHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	lot, err := h.service.GetLot(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, lot)
}

// ListByItem lists the lots of an item in expiry order
func (h *LotHandler) ListByItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "id")

	lots, err := h.service.ListLotsByItem(r.Context(), itemID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, lots)
}

type updateLotRequest struct {
	LotNumber    string          `json:"lot_number" validate:"required,max=100"`
	LocationID   *string         `json:"location_id,omitempty" validate:"omitempty,uuid"`
	ExpiryDate   string          `json:"expiry_date" validate:"required,datetime=2006-01-02"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	ReceivedDate *string         `json:"received_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// Update updates a lot's descriptive fields
func (h *LotHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateLotRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	lot, err := h.service.GetLot(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	expiry, err := time.Parse("2006-01-02", req.ExpiryDate)
	if err != nil {
		httputil.Error(w, errBadQueryParam("expiry_date"))
		return
	}

	lot.LotNumber = req.LotNumber
	lot.LocationID = req.LocationID
	lot.ExpiryDate = expiry
	lot.UnitCost = req.UnitCost
	if req.ReceivedDate != nil {
		received, err := time.Parse("2006-01-02", *req.ReceivedDate)
		if err != nil {
			httputil.Error(w, errBadQueryParam("received_date"))
			return
		}
		lot.ReceivedDate = received
	}

	if err := h.service.UpdateLot(r.Context(), lot); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, lot)
}

// Delete deletes an empty lot
func (h *LotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteLot(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
