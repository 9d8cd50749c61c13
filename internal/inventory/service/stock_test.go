package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labstock/labstock-backend/internal/inventory/domain"
	"github.com/labstock/labstock-backend/internal/inventory/repository"
	"github.com/labstock/labstock-backend/internal/inventory/service"
	"github.com/labstock/labstock-backend/pkg/actor"
	"github.com/labstock/labstock-backend/pkg/database"
	"github.com/labstock/labstock-backend/pkg/errors"
	"github.com/labstock/labstock-backend/pkg/logger"
	"github.com/labstock/labstock-backend/pkg/testutil"
)

const testItemID = "2f1f8a3c-5db2-4f0e-9c93-aaaa00000001"

func newStockService(t *testing.T) (*service.StockService, *testutil.MockDB) {
	t.Helper()
	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { mockDB.Close() })

	log := logger.New("test", "test")
	db := database.NewFromDB(mockDB.DB, log)
	return service.NewStockService(db, nil, log), mockDB
}

func actorContext() context.Context {
	return actor.WithActor(context.Background(), &actor.Actor{ID: "actor-1", Name: "Dana"})
}

func expectItemLookup(mockDB *testutil.MockDB, itemID, name string) {
	mockDB.Mock.ExpectQuery("SELECT \\* FROM inventory_items").
		WithArgs(itemID).
		WillReturnRows(testutil.MockRows("id", "sku", "name", "unit", "minimum_stock").
			AddRow(itemID, "SKU-0001", name, "mL", "10.00"))
}

func TestStockService_PerformWithdrawal_SpansLotsInExpiryOrder(t *testing.T) {
	svc, mockDB := newStockService(t)

	expectItemLookup(mockDB, testItemID, "Ethanol 96%")

	mockDB.Mock.ExpectBegin()
	mockDB.Mock.ExpectQuery("FOR UPDATE").
		WithArgs(testItemID).
		WillReturnRows(testutil.MockRows("id", "lot_number", "expiry_date", "current_quantity").
			AddRow("lot-a", "A-100", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), "100.00").
			AddRow("lot-b", "B-200", time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), "100.00"))

	// Lot A drains fully, lot B covers the remainder.
	mockDB.Mock.ExpectExec("UPDATE stock_lots").
		WithArgs("lot-a", decimal.RequireFromString("100.00")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.Mock.ExpectQuery("INSERT INTO stock_movements").
		WillReturnRows(testutil.MockRows("created_at").AddRow(time.Now()))
	mockDB.Mock.ExpectExec("UPDATE stock_lots").
		WithArgs("lot-b", decimal.RequireFromString("50.00")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.Mock.ExpectQuery("INSERT INTO stock_movements").
		WillReturnRows(testutil.MockRows("created_at").AddRow(time.Now()))
	mockDB.Mock.ExpectCommit()

	movements, err := svc.PerformWithdrawal(actorContext(), testItemID, decimal.RequireFromString("150.00"), nil)
	require.NoError(t, err)
	require.Len(t, movements, 2)

	assert.Equal(t, "lot-a", movements[0].LotID)
	assert.True(t, movements[0].Quantity.Equal(decimal.RequireFromString("-100.00")))
	assert.Equal(t, "lot-b", movements[1].LotID)
	assert.True(t, movements[1].Quantity.Equal(decimal.RequireFromString("-50.00")))
	assert.Equal(t, domain.MovementWithdrawal, movements[0].Kind)
	assert.Equal(t, "actor-1", movements[0].PerformedBy)

	mockDB.ExpectationsWereMet(t)
}

func TestStockService_PerformWithdrawal_InsufficientStockRollsBack(t *testing.T) {
	svc, mockDB := newStockService(t)

	expectItemLookup(mockDB, testItemID, "Ethanol 96%")

	mockDB.Mock.ExpectBegin()
	mockDB.Mock.ExpectQuery("FOR UPDATE").
		WithArgs(testItemID).
		WillReturnRows(testutil.MockRows("id", "lot_number", "expiry_date", "current_quantity").
			AddRow("lot-a", "A-100", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), "30.00"))
	mockDB.Mock.ExpectRollback()

	_, err := svc.PerformWithdrawal(actorContext(), testItemID, decimal.RequireFromString("100.00"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientStock))

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "100", appErr.Details["requested"])
	assert.Equal(t, "30", appErr.Details["available"])

	mockDB.ExpectationsWereMet(t)
}

func TestStockService_PerformWithdrawal_RequiresActor(t *testing.T) {
	svc, mockDB := newStockService(t)

	_, err := svc.PerformWithdrawal(context.Background(), testItemID, decimal.NewFromInt(10), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))

	mockDB.ExpectationsWereMet(t)
}

func TestStockService_PerformWithdrawal_RejectsNonPositiveQuantity(t *testing.T) {
	svc, mockDB := newStockService(t)

	expectItemLookup(mockDB, testItemID, "Ethanol 96%")

	mockDB.Mock.ExpectBegin()
	mockDB.Mock.ExpectQuery("FOR UPDATE").
		WithArgs(testItemID).
		WillReturnRows(testutil.MockRows("id", "lot_number", "expiry_date", "current_quantity"))
	mockDB.Mock.ExpectRollback()

	_, err := svc.PerformWithdrawal(actorContext(), testItemID, decimal.Zero, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))

	mockDB.ExpectationsWereMet(t)
}

func TestStockService_AdjustLot_RejectsOverdraw(t *testing.T) {
	svc, mockDB := newStockService(t)

	mockDB.Mock.ExpectBegin()
	mockDB.Mock.ExpectQuery("SELECT \\* FROM stock_lots").
		WithArgs("lot-a").
		WillReturnRows(testutil.MockRows("id", "item_id", "lot_number", "current_quantity", "initial_quantity").
			AddRow("lot-a", testItemID, "A-100", "20.00", "100.00"))
	expectItemLookup(mockDB, testItemID, "Ethanol 96%")
	mockDB.Mock.ExpectRollback()

	_, err := svc.AdjustLot(actorContext(), "lot-a", decimal.RequireFromString("-50.00"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientStock))

	mockDB.ExpectationsWereMet(t)
}

func TestStockService_AdjustLot_RejectsZeroDelta(t *testing.T) {
	svc, mockDB := newStockService(t)

	_, err := svc.AdjustLot(actorContext(), "lot-a", decimal.Zero, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))

	mockDB.ExpectationsWereMet(t)
}

func TestStockService_AdjustLot_PositiveDeltaMayExceedInitial(t *testing.T) {
	svc, mockDB := newStockService(t)

	mockDB.Mock.ExpectBegin()
	mockDB.Mock.ExpectQuery("SELECT \\* FROM stock_lots").
		WithArgs("lot-a").
		WillReturnRows(testutil.MockRows("id", "item_id", "lot_number", "current_quantity", "initial_quantity").
			AddRow("lot-a", testItemID, "A-100", "95.00", "100.00"))
	mockDB.Mock.ExpectExec("UPDATE stock_lots").
		WithArgs("lot-a", decimal.RequireFromString("10.00")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.Mock.ExpectQuery("INSERT INTO stock_movements").
		WillReturnRows(testutil.MockRows("created_at").AddRow(time.Now()))
	mockDB.Mock.ExpectCommit()

	lot, err := svc.AdjustLot(actorContext(), "lot-a", decimal.RequireFromString("10.00"), nil)
	require.NoError(t, err)
	assert.True(t, lot.CurrentQuantity.Equal(decimal.RequireFromString("105.00")))

	mockDB.ExpectationsWereMet(t)
}

func TestStockService_DiscardLot(t *testing.T) {
	svc, mockDB := newStockService(t)

	note := "expired"

	mockDB.Mock.ExpectBegin()
	mockDB.Mock.ExpectQuery("SELECT \\* FROM stock_lots").
		WithArgs("lot-a").
		WillReturnRows(testutil.MockRows("id", "item_id", "lot_number", "current_quantity", "initial_quantity").
			AddRow("lot-a", testItemID, "A-100", "40.00", "100.00"))
	mockDB.Mock.ExpectExec("UPDATE stock_lots").
		WithArgs("lot-a", decimal.RequireFromString("40.00")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.Mock.ExpectQuery("INSERT INTO stock_movements").
		WillReturnRows(testutil.MockRows("created_at").AddRow(time.Now()))
	mockDB.Mock.ExpectCommit()

	lot, err := svc.DiscardLot(actorContext(), "lot-a", decimal.RequireFromString("40.00"), &note)
	require.NoError(t, err)
	assert.True(t, lot.CurrentQuantity.IsZero())

	mockDB.ExpectationsWereMet(t)
}

func TestStockService_CreateLot_RejectsNonPositiveQuantity(t *testing.T) {
	svc, mockDB := newStockService(t)

	err := svc.CreateLot(actorContext(), &repository.StockLot{
		ItemID:          testItemID,
		LotNumber:       "A-100",
		ExpiryDate:      time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		InitialQuantity: decimal.Zero,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))

	mockDB.ExpectationsWereMet(t)
}
