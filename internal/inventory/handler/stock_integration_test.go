package handler_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labstock/labstock-backend/internal/inventory/handler"
	"github.com/labstock/labstock-backend/internal/inventory/repository"
	"github.com/labstock/labstock-backend/internal/inventory/service"
	"github.com/labstock/labstock-backend/pkg/httputil"
	"github.com/labstock/labstock-backend/pkg/testutil"
)

var (
	handlerSuite    *testutil.IntegrationSuite
	handlerOnce     sync.Once
	handlerSuiteErr error
)

func setupHandlerSuite(t *testing.T) *testutil.IntegrationSuite {
	t.Helper()
	testutil.SkipIfShort(t)

	handlerOnce.Do(func() {
		handlerSuite, handlerSuiteErr = testutil.NewIntegrationSuite(context.Background())
	})
	if handlerSuiteErr != nil {
		t.Fatalf("failed to set up integration suite: %v", handlerSuiteErr)
	}

	handlerSuite.Reset(t)
	return handlerSuite
}

// newTestRouter wires the stock and requisition endpoints the way
// cmd/inventory-service does, minus logging middleware.
func newTestRouter(suite *testutil.IntegrationSuite) chi.Router {
	stockSvc := service.NewStockService(suite.DB, nil, suite.Logger)
	reqSvc := service.NewRequisitionService(suite.DB, nil, suite.Logger)
	reportSvc := service.NewReportService(suite.DB, suite.Logger)

	stock := handler.NewStockHandler(stockSvc, suite.Logger)
	requisitions := handler.NewRequisitionHandler(reqSvc, suite.Logger)
	reports := handler.NewReportHandler(reportSvc, suite.Logger)

	r := chi.NewRouter()
	r.Use(httputil.ActorMiddleware)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/withdrawals", stock.PerformWithdrawal)
		r.Post("/withdrawals/plan", stock.PlanWithdrawal)
		r.Get("/movements", stock.ListMovements)
		r.Post("/requisitions", requisitions.Create)
		r.Post("/requisitions/{id}/approve", requisitions.Approve)
		r.Post("/requisitions/{id}/reject", requisitions.Reject)
		r.Get("/reports/expiry-exposure", reports.ExpiryExposure)
	})
	return r
}

// seedLots creates an item with two lots, the first expiring sooner.
func seedLots(t *testing.T, suite *testutil.IntegrationSuite, quantities ...int64) *repository.InventoryItem {
	t.Helper()
	ctx := context.Background()

	items := repository.NewItemRepository(suite.DB)
	lots := repository.NewLotRepository(suite.DB)

	fixture := suite.Fixtures.Item()
	item := &repository.InventoryItem{
		ID:           fixture.ID,
		SKU:          fixture.SKU,
		Name:         fixture.Name,
		Unit:         fixture.Unit,
		MinimumStock: fixture.MinimumStock,
	}
	require.NoError(t, items.Create(ctx, item))

	for i, qty := range quantities {
		q := decimal.NewFromInt(qty)
		lot := &repository.StockLot{
			ItemID:          item.ID,
			LotNumber:       []string{"H-001", "H-002", "H-003"}[i],
			ExpiryDate:      time.Now().AddDate(0, 1+3*i, 0),
			UnitCost:        decimal.RequireFromString("1.00"),
			InitialQuantity: q,
			CurrentQuantity: q,
			ReceivedDate:    time.Now(),
		}
		require.NoError(t, lots.Create(ctx, lot))
	}
	return item
}

type withdrawalBody struct {
	ItemID   string `json:"item_id"`
	Quantity string `json:"quantity"`
}

func TestPerformWithdrawal_ConsumesEarliestExpiryFirst(t *testing.T) {
	suite := setupHandlerSuite(t)
	item := seedLots(t, suite, 40, 100)
	router := newTestRouter(suite)

	req := testutil.NewHTTPRequest("POST", "/api/v1/withdrawals", withdrawalBody{
		ItemID:   item.ID,
		Quantity: "60",
	})
	req = testutil.WithActorHeaders(req, "tech-1", "Dana")

	rr := testutil.ExecuteRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)

	var resp struct {
		Success bool `json:"success"`
		Data    []struct {
			LotID    string `json:"lot_id"`
			Kind     string `json:"kind"`
			Quantity string `json:"quantity"`
		} `json:"data"`
	}
	testutil.ParseJSONBody(t, rr, &resp)

	require.True(t, resp.Success)
	require.Len(t, resp.Data, 2, "60 units should span both lots")
	assert.Equal(t, "withdrawal", resp.Data[0].Kind)
	assert.Equal(t, "-40", resp.Data[0].Quantity)
	assert.Equal(t, "-20", resp.Data[1].Quantity)
}

func TestPerformWithdrawal_RequiresActorIdentity(t *testing.T) {
	suite := setupHandlerSuite(t)
	item := seedLots(t, suite, 40)
	router := newTestRouter(suite)

	req := testutil.NewHTTPRequest("POST", "/api/v1/withdrawals", withdrawalBody{
		ItemID:   item.ID,
		Quantity: "10",
	})
	// No X-Actor-ID header

	rr := testutil.ExecuteRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}

func TestPerformWithdrawal_InsufficientStockReturnsConflict(t *testing.T) {
	suite := setupHandlerSuite(t)
	item := seedLots(t, suite, 40)
	router := newTestRouter(suite)

	req := testutil.NewHTTPRequest("POST", "/api/v1/withdrawals", withdrawalBody{
		ItemID:   item.ID,
		Quantity: "100",
	})
	req = testutil.WithActorHeaders(req, "tech-1", "Dana")

	rr := testutil.ExecuteRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusConflict)
	testutil.AssertBodyContains(t, rr, "INSUFFICIENT_STOCK")

	// Nothing was withdrawn and nothing hit the ledger
	lots := repository.NewLotRepository(suite.DB)
	available, err := lots.AvailableByItem(context.Background(), item.ID)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.True(t, available[0].Current.Equal(decimal.NewFromInt(40)))
}

func TestPlanWithdrawal_DoesNotTouchStock(t *testing.T) {
	suite := setupHandlerSuite(t)
	item := seedLots(t, suite, 40, 100)
	router := newTestRouter(suite)

	req := testutil.NewHTTPRequest("POST", "/api/v1/withdrawals/plan", withdrawalBody{
		ItemID:   item.ID,
		Quantity: "60",
	})
	req = testutil.WithActorHeaders(req, "tech-1", "Dana")

	rr := testutil.ExecuteRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)

	lots := repository.NewLotRepository(suite.DB)
	available, err := lots.AvailableByItem(context.Background(), item.ID)
	require.NoError(t, err)
	require.Len(t, available, 2)
	assert.True(t, available[0].Current.Equal(decimal.NewFromInt(40)))
	assert.True(t, available[1].Current.Equal(decimal.NewFromInt(100)))
}

func TestExpiryExposure_RejectsMalformedWindow(t *testing.T) {
	suite := setupHandlerSuite(t)
	router := newTestRouter(suite)

	for _, window := range []string{"abc", "-3", "1.5"} {
		req := testutil.NewHTTPRequest("GET", "/api/v1/reports/expiry-exposure?window_days="+window, nil)

		rr := testutil.ExecuteRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
		testutil.AssertBodyContains(t, rr, "window_days")
	}
}

func TestRequisitionApprove_EndToEnd(t *testing.T) {
	suite := setupHandlerSuite(t)
	item := seedLots(t, suite, 100)
	router := newTestRouter(suite)

	// Technician opens the requisition
	createReq := testutil.NewHTTPRequest("POST", "/api/v1/requisitions", withdrawalBody{
		ItemID:   item.ID,
		Quantity: "30",
	})
	createReq = testutil.WithActorHeaders(createReq, "tech-1", "Dana")

	rr := testutil.ExecuteRequest(router, createReq)
	testutil.AssertStatus(t, rr, http.StatusCreated)

	var created struct {
		Data struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	testutil.ParseJSONBody(t, rr, &created)
	assert.Equal(t, "pending", created.Data.Status)

	// Lab lead approves it
	approveReq := testutil.NewHTTPRequest("POST", "/api/v1/requisitions/"+created.Data.ID+"/approve", nil)
	approveReq = testutil.WithActorHeaders(approveReq, "lead-1", "Morgan")

	rr = testutil.ExecuteRequest(router, approveReq)
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertBodyContains(t, rr, "approved")

	// A second approval must fail, the requisition is already resolved
	again := testutil.NewHTTPRequest("POST", "/api/v1/requisitions/"+created.Data.ID+"/approve", nil)
	again = testutil.WithActorHeaders(again, "lead-1", "Morgan")

	rr = testutil.ExecuteRequest(router, again)
	testutil.AssertStatus(t, rr, http.StatusConflict)

	// Stock reflects the approved quantity
	lots := repository.NewLotRepository(suite.DB)
	available, err := lots.AvailableByItem(context.Background(), item.ID)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.True(t, available[0].Current.Equal(decimal.NewFromInt(70)))
}
