package handler

import (
	"net/http"

	"github.com/labstock/labstock-backend/internal/inventory/service"
	"github.com/labstock/labstock-backend/pkg/httputil"
	"github.com/labstock/labstock-backend/pkg/logger"
)

// ReportHandler handles reporting endpoints
type ReportHandler struct {
	service *service.ReportService
	logger  *logger.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(svc *service.ReportService, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		service: svc,
		logger:  log,
	}
}

// Consumption reports withdrawn stock per actor and item
func (h *ReportHandler) Consumption(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseTimeRange(r, true)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var actorID, itemID *string
	if v := r.URL.Query().Get("actor_id"); v != "" {
		actorID = &v
	}
	if v := r.URL.Query().Get("item_id"); v != "" {
		itemID = &v
	}

	rows, err := h.service.ConsumptionByActor(r.Context(), from, to, actorID, itemID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, rows)
}

// WasteLoss reports stock lost to discards and write-downs
func (h *ReportHandler) WasteLoss(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseTimeRange(r, true)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var itemID *string
	if v := r.URL.Query().Get("item_id"); v != "" {
		itemID = &v
	}

	rows, err := h.service.WasteLoss(r.Context(), from, to, itemID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, rows)
}

// StockValue reports the purchase value of remaining stock
func (h *ReportHandler) StockValue(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.StockValue(r.Context(), r.URL.Query().Get("group_by"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, report)
}

// ExpiryExposure reports lots that are expired or about to expire
func (h *ReportHandler) ExpiryExposure(w http.ResponseWriter, r *http.Request) {
	windowDays, err := parseIntParam(r, "window_days", 0)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	expiredOnly := r.URL.Query().Get("expired") == "true"

	report, err := h.service.ExpiryExposure(r.Context(), windowDays, expiredOnly)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, report)
}

// Dashboard returns the inventory summary
func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Dashboard(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}
