package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labstock/labstock-backend/internal/inventory/domain"
	"github.com/labstock/labstock-backend/internal/inventory/repository"
	"github.com/labstock/labstock-backend/internal/inventory/service"
	"github.com/labstock/labstock-backend/pkg/actor"
	"github.com/labstock/labstock-backend/pkg/errors"
	"github.com/labstock/labstock-backend/pkg/testutil"
)

var (
	integrationSuite *testutil.IntegrationSuite
	integrationOnce  sync.Once
	integrationErr   error
)

func setupIntegration(t *testing.T) *testutil.IntegrationSuite {
	t.Helper()
	testutil.SkipIfShort(t)

	integrationOnce.Do(func() {
		integrationSuite, integrationErr = testutil.NewIntegrationSuite(context.Background())
	})
	if integrationErr != nil {
		t.Fatalf("failed to set up integration suite: %v", integrationErr)
	}

	integrationSuite.Reset(t)
	return integrationSuite
}

// seedItemWithLots creates an item with three 100-unit lots expiring in
// 2, 6 and 12 months.
func seedItemWithLots(t *testing.T, suite *testutil.IntegrationSuite, ctx context.Context) (*repository.InventoryItem, []*repository.StockLot) {
	t.Helper()

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

	qty := decimal.NewFromInt(100)
	var created []*repository.StockLot
	for i, months := range []int{2, 6, 12} {
		lot := &repository.StockLot{
			ItemID:          item.ID,
			LotNumber:       []string{"A-100", "B-200", "C-300"}[i],
			ExpiryDate:      time.Now().AddDate(0, months, 0),
			UnitCost:        decimal.RequireFromString("2.50"),
			InitialQuantity: qty,
			CurrentQuantity: qty,
			ReceivedDate:    time.Now(),
		}
		require.NoError(t, lots.Create(ctx, lot))
		created = append(created, lot)
	}
	return item, created
}

func integrationActorContext(id, name string) context.Context {
	return actor.WithActor(context.Background(), &actor.Actor{ID: id, Name: name})
}

func TestIntegration_WithdrawalConsumesEarliestExpiryFirst(t *testing.T) {
	suite := setupIntegration(t)
	ctx := integrationActorContext("tech-1", "Dana")

	item, lots := seedItemWithLots(t, suite, ctx)
	svc := service.NewStockService(suite.DB, nil, suite.Logger)

	movements, err := svc.PerformWithdrawal(ctx, item.ID, decimal.RequireFromString("150.00"), nil)
	require.NoError(t, err)
	require.Len(t, movements, 2)

	assert.Equal(t, lots[0].ID, movements[0].LotID)
	assert.Equal(t, lots[1].ID, movements[1].LotID)

	lotRepo := repository.NewLotRepository(suite.DB)
	first, err := lotRepo.GetByID(ctx, lots[0].ID)
	require.NoError(t, err)
	assert.True(t, first.CurrentQuantity.IsZero())

	second, err := lotRepo.GetByID(ctx, lots[1].ID)
	require.NoError(t, err)
	assert.True(t, second.CurrentQuantity.Equal(decimal.NewFromInt(50)))

	// Ledger carries one negative row per consumed lot.
	ledger, err := svc.ListMovements(ctx, repository.MovementFilter{ItemID: &item.ID})
	require.NoError(t, err)
	require.Len(t, ledger, 2)
	for _, m := range ledger {
		assert.Equal(t, domain.MovementWithdrawal, m.Kind)
		assert.True(t, m.Quantity.IsNegative())
		assert.Equal(t, "tech-1", m.PerformedBy)
	}
}

func TestIntegration_WithdrawalRollsBackOnInsufficientStock(t *testing.T) {
	suite := setupIntegration(t)
	ctx := integrationActorContext("tech-1", "Dana")

	item, lots := seedItemWithLots(t, suite, ctx)
	svc := service.NewStockService(suite.DB, nil, suite.Logger)

	_, err := svc.PerformWithdrawal(ctx, item.ID, decimal.NewFromInt(500), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientStock))

	// Nothing moved, nothing logged.
	lotRepo := repository.NewLotRepository(suite.DB)
	for _, lot := range lots {
		got, err := lotRepo.GetByID(ctx, lot.ID)
		require.NoError(t, err)
		assert.True(t, got.CurrentQuantity.Equal(decimal.NewFromInt(100)))
	}

	ledger, err := svc.ListMovements(ctx, repository.MovementFilter{ItemID: &item.ID})
	require.NoError(t, err)
	assert.Empty(t, ledger)
}

func TestIntegration_ConcurrentWithdrawalsSerializeOnLots(t *testing.T) {
	suite := setupIntegration(t)
	ctx := integrationActorContext("tech-1", "Dana")

	item, _ := seedItemWithLots(t, suite, ctx)
	svc := service.NewStockService(suite.DB, nil, suite.Logger)

	// Two actors withdraw 200 of 300 at the same time. Exactly one can
	// succeed; the loser must see the 100 that is actually left.
	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			actorCtx := integrationActorContext("tech-1", "Dana")
			if n == 1 {
				actorCtx = integrationActorContext("tech-2", "Kim")
			}
			_, results[n] = svc.PerformWithdrawal(actorCtx, item.ID, decimal.NewFromInt(200), nil)
		}(i)
	}
	wg.Wait()

	var failures int
	for _, err := range results {
		if err != nil {
			failures++
			assert.True(t, errors.Is(err, errors.ErrInsufficientStock))
		}
	}
	require.Equal(t, 1, failures)

	// 300 - 200 = 100 left across all lots.
	reports := repository.NewReportRepository(suite.DB)
	total, err := reports.TotalStockValue(context.Background())
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(250)), "expected 100 units at 2.50, got %s", total)
}

func TestIntegration_RequisitionLifecycle(t *testing.T) {
	suite := setupIntegration(t)
	requester := integrationActorContext("tech-1", "Dana")
	approver := integrationActorContext("lead-1", "Kim")

	item, _ := seedItemWithLots(t, suite, requester)

	reqSvc := service.NewRequisitionService(suite.DB, nil, suite.Logger)
	stockSvc := service.NewStockService(suite.DB, nil, suite.Logger)

	req, err := reqSvc.Create(requester, item.ID, decimal.NewFromInt(120), testutil.PtrString("weekly prep"))
	require.NoError(t, err)
	assert.Equal(t, domain.RequisitionPending, req.Status)
	assert.Equal(t, "tech-1", req.RequestedBy)

	approved, movements, err := reqSvc.Approve(approver, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequisitionApproved, approved.Status)
	require.NotNil(t, approved.ResolvedBy)
	assert.Equal(t, "lead-1", *approved.ResolvedBy)
	assert.NotNil(t, approved.ResolvedAt)
	require.Len(t, movements, 2)

	// The withdrawal is attributed to the approver.
	ledger, err := stockSvc.ListMovements(approver, repository.MovementFilter{ItemID: &item.ID})
	require.NoError(t, err)
	for _, m := range ledger {
		assert.Equal(t, "lead-1", m.PerformedBy)
	}

	// A resolved requisition cannot be resolved again.
	_, _, err = reqSvc.Approve(approver, req.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidState))

	_, err = reqSvc.Reject(approver, req.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidState))
}

func TestIntegration_RejectedRequisitionMovesNoStock(t *testing.T) {
	suite := setupIntegration(t)
	requester := integrationActorContext("tech-1", "Dana")
	approver := integrationActorContext("lead-1", "Kim")

	item, _ := seedItemWithLots(t, suite, requester)
	reqSvc := service.NewRequisitionService(suite.DB, nil, suite.Logger)
	stockSvc := service.NewStockService(suite.DB, nil, suite.Logger)

	req, err := reqSvc.Create(requester, item.ID, decimal.NewFromInt(50), nil)
	require.NoError(t, err)

	rejected, err := reqSvc.Reject(approver, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequisitionRejected, rejected.Status)

	ledger, err := stockSvc.ListMovements(approver, repository.MovementFilter{ItemID: &item.ID})
	require.NoError(t, err)
	assert.Empty(t, ledger)
}

func TestIntegration_ReportsReflectLedger(t *testing.T) {
	suite := setupIntegration(t)
	ctx := integrationActorContext("tech-1", "Dana")

	item, lots := seedItemWithLots(t, suite, ctx)
	stockSvc := service.NewStockService(suite.DB, nil, suite.Logger)
	reportSvc := service.NewReportService(suite.DB, suite.Logger)

	_, err := stockSvc.PerformWithdrawal(ctx, item.ID, decimal.NewFromInt(30), nil)
	require.NoError(t, err)

	_, err = stockSvc.DiscardLot(ctx, lots[0].ID, decimal.NewFromInt(10), testutil.PtrString("spilled"))
	require.NoError(t, err)

	from := time.Now().AddDate(0, 0, -1)
	to := time.Now().AddDate(0, 0, 1)

	consumption, err := reportSvc.ConsumptionByActor(ctx, from, to, nil, nil)
	require.NoError(t, err)
	require.Len(t, consumption, 1)
	assert.Equal(t, "tech-1", consumption[0].ActorID)
	assert.True(t, consumption[0].TotalQuantity.Equal(decimal.NewFromInt(30)))

	waste, err := reportSvc.WasteLoss(ctx, from, to, nil)
	require.NoError(t, err)
	require.Len(t, waste, 1)
	assert.Equal(t, "discard", waste[0].Kind)
	assert.True(t, waste[0].TotalQuantity.Equal(decimal.NewFromInt(10)))

	// 300 seeded - 30 withdrawn - 10 discarded = 260 units at 2.50.
	value, err := reportSvc.StockValue(ctx, "")
	require.NoError(t, err)
	assert.True(t, value.TotalValue.Equal(decimal.NewFromInt(650)))
}

func TestIntegration_GroupedStockValueSkipsDrainedCategories(t *testing.T) {
	suite := setupIntegration(t)
	ctx := integrationActorContext("tech-1", "Dana")

	catalog := repository.NewCatalogRepository(suite.DB)
	items := repository.NewItemRepository(suite.DB)
	lots := repository.NewLotRepository(suite.DB)

	acids := &repository.Category{Name: "Acids"}
	buffers := &repository.Category{Name: "Buffers"}
	require.NoError(t, catalog.CreateCategory(ctx, acids))
	require.NoError(t, catalog.CreateCategory(ctx, buffers))

	seed := func(sku, categoryID string, qty int64) *repository.InventoryItem {
		item := &repository.InventoryItem{
			SKU:          sku,
			Name:         sku,
			Unit:         "ml",
			MinimumStock: decimal.NewFromInt(1),
			CategoryID:   &categoryID,
		}
		require.NoError(t, items.Create(ctx, item))
		q := decimal.NewFromInt(qty)
		require.NoError(t, lots.Create(ctx, &repository.StockLot{
			ItemID:          item.ID,
			LotNumber:       sku + "-L1",
			ExpiryDate:      time.Now().AddDate(0, 6, 0),
			UnitCost:        decimal.RequireFromString("2.50"),
			InitialQuantity: q,
			CurrentQuantity: q,
			ReceivedDate:    time.Now(),
		}))
		return item
	}

	acid := seed("ACID-01", acids.ID, 40)
	seed("BUF-01", buffers.ID, 20)

	stockSvc := service.NewStockService(suite.DB, nil, suite.Logger)
	reportSvc := service.NewReportService(suite.DB, suite.Logger)

	// Drain the only acid lot to zero.
	_, err := stockSvc.PerformWithdrawal(ctx, acid.ID, decimal.NewFromInt(40), nil)
	require.NoError(t, err)

	report, err := reportSvc.StockValue(ctx, service.GroupByCategory)
	require.NoError(t, err)

	// Drained lots contribute neither a group row nor value.
	require.Len(t, report.Groups, 1)
	require.NotNil(t, report.Groups[0].GroupName)
	assert.Equal(t, "Buffers", *report.Groups[0].GroupName)
	assert.True(t, report.Groups[0].TotalValue.Equal(decimal.NewFromInt(50)))
	assert.True(t, report.TotalValue.Equal(decimal.NewFromInt(50)))
}

func TestIntegration_GroupedStockValueOrdersByGroupName(t *testing.T) {
	suite := setupIntegration(t)
	ctx := integrationActorContext("tech-1", "Dana")

	catalog := repository.NewCatalogRepository(suite.DB)
	items := repository.NewItemRepository(suite.DB)
	lots := repository.NewLotRepository(suite.DB)

	for _, name := range []string{"Solvents", "Buffers", "Acids"} {
		cat := &repository.Category{Name: name}
		require.NoError(t, catalog.CreateCategory(ctx, cat))

		item := &repository.InventoryItem{
			SKU:          name + "-SKU",
			Name:         name + " item",
			Unit:         "ml",
			MinimumStock: decimal.NewFromInt(1),
			CategoryID:   &cat.ID,
		}
		require.NoError(t, items.Create(ctx, item))

		qty := decimal.NewFromInt(10)
		require.NoError(t, lots.Create(ctx, &repository.StockLot{
			ItemID:          item.ID,
			LotNumber:       name + "-L1",
			ExpiryDate:      time.Now().AddDate(0, 6, 0),
			UnitCost:        decimal.RequireFromString("2.50"),
			InitialQuantity: qty,
			CurrentQuantity: qty,
			ReceivedDate:    time.Now(),
		}))
	}

	wantOrder := []string{"Acids", "Buffers", "Solvents"}
	reportSvc := service.NewReportService(suite.DB, suite.Logger)
	report, err := reportSvc.StockValue(ctx, service.GroupByCategory)
	require.NoError(t, err)

	require.Len(t, report.Groups, len(wantOrder))
	for i, name := range wantOrder {
		require.NotNil(t, report.Groups[i].GroupName)
		assert.Equal(t, name, *report.Groups[i].GroupName)
	}
}

func TestIntegration_ExpiryExposureSplitsExpiredFromExpiring(t *testing.T) {
	suite := setupIntegration(t)
	ctx := integrationActorContext("tech-1", "Dana")

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

	for _, lot := range []struct {
		number string
		expiry time.Time
	}{
		{"PAST-01", time.Now().AddDate(0, 0, -5)},
		{"SOON-01", time.Now().AddDate(0, 0, 15)},
	} {
		qty := decimal.NewFromInt(10)
		require.NoError(t, lots.Create(ctx, &repository.StockLot{
			ItemID:          item.ID,
			LotNumber:       lot.number,
			ExpiryDate:      lot.expiry,
			UnitCost:        decimal.RequireFromString("2.50"),
			InitialQuantity: qty,
			CurrentQuantity: qty,
			ReceivedDate:    time.Now(),
		}))
	}

	reportSvc := service.NewReportService(suite.DB, suite.Logger)

	expired, err := reportSvc.ExpiryExposure(ctx, 0, true)
	require.NoError(t, err)
	require.Len(t, expired.Lots, 1)
	assert.Equal(t, "PAST-01", expired.Lots[0].LotNumber)
	assert.True(t, expired.TotalAtRisk.Equal(decimal.NewFromInt(25)))

	windowed, err := reportSvc.ExpiryExposure(ctx, 30, false)
	require.NoError(t, err)
	require.Len(t, windowed.Lots, 1)
	assert.Equal(t, "SOON-01", windowed.Lots[0].LotNumber)

	all, err := reportSvc.ExpiryExposure(ctx, 0, false)
	require.NoError(t, err)
	require.Len(t, all.Lots, 1)
	assert.Equal(t, "SOON-01", all.Lots[0].LotNumber)
}

func TestIntegration_DashboardSummary(t *testing.T) {
	suite := setupIntegration(t)
	ctx := integrationActorContext("tech-1", "Dana")

	item, _ := seedItemWithLots(t, suite, ctx)
	stockSvc := service.NewStockService(suite.DB, nil, suite.Logger)
	reportSvc := service.NewReportService(suite.DB, suite.Logger)

	_, err := stockSvc.PerformWithdrawal(ctx, item.ID, decimal.NewFromInt(295), nil)
	require.NoError(t, err)

	summary, err := reportSvc.Dashboard(ctx)
	require.NoError(t, err)

	// 5 units at 2.50 remain, below the minimum stock of 10.
	assert.True(t, summary.TotalStockValue.Equal(decimal.RequireFromString("12.5")))
	require.Len(t, summary.LowStockItems, 1)
	assert.Equal(t, item.ID, summary.LowStockItems[0].ID)
	assert.Equal(t, 0, summary.ExpiredLots)
	assert.Equal(t, 0, summary.PendingRequisitions)

	// This month's withdrawals show up in the trailing consumption series.
	require.NotEmpty(t, summary.MonthlyConsumption)
	last := summary.MonthlyConsumption[len(summary.MonthlyConsumption)-1]
	assert.True(t, last.TotalQuantity.Equal(decimal.NewFromInt(295)))
}
