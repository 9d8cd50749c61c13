package service_test

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labstock/labstock-backend/internal/inventory/domain"
	"github.com/labstock/labstock-backend/internal/inventory/service"
	"github.com/labstock/labstock-backend/pkg/database"
	"github.com/labstock/labstock-backend/pkg/errors"
	"github.com/labstock/labstock-backend/pkg/logger"
	"github.com/labstock/labstock-backend/pkg/testutil"
)

func newRequisitionService(t *testing.T) (*service.RequisitionService, *testutil.MockDB) {
	t.Helper()
	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { mockDB.Close() })

	log := logger.New("test", "test")
	db := database.NewFromDB(mockDB.DB, log)
	return service.NewRequisitionService(db, nil, log), mockDB
}

func expectRequisitionLock(mockDB *testutil.MockDB, id, status string) {
	mockDB.Mock.ExpectQuery("SELECT \\* FROM requisitions WHERE id = \\$1 FOR UPDATE").
		WithArgs(id).
		WillReturnRows(testutil.MockRows("id", "item_id", "quantity", "status", "reason", "requested_by").
			AddRow(id, testItemID, "50.00", status, nil, "actor-1"))
}

func TestRequisitionService_Approve_WithdrawsAndResolvesAtomically(t *testing.T) {
	svc, mockDB := newRequisitionService(t)

	mockDB.Mock.ExpectBegin()
	expectRequisitionLock(mockDB, "req-1", "pending")
	expectItemLookup(mockDB, testItemID, "Acetone")
	mockDB.Mock.ExpectQuery("FOR UPDATE").
		WithArgs(testItemID).
		WillReturnRows(testutil.MockRows("id", "lot_number", "expiry_date", "current_quantity").
			AddRow("lot-a", "A-100", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), "80.00"))
	mockDB.Mock.ExpectExec("UPDATE stock_lots").
		WithArgs("lot-a", decimal.RequireFromString("50.00")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.Mock.ExpectQuery("INSERT INTO stock_movements").
		WillReturnRows(testutil.MockRows("created_at").AddRow(time.Now()))
	mockDB.Mock.ExpectExec("UPDATE requisitions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.Mock.ExpectQuery("SELECT \\* FROM requisitions WHERE id = \\$1").
		WithArgs("req-1").
		WillReturnRows(testutil.MockRows("id", "item_id", "quantity", "status", "requested_by", "resolved_by").
			AddRow("req-1", testItemID, "50.00", "approved", "actor-1", "actor-1"))
	mockDB.Mock.ExpectCommit()

	req, movements, err := svc.Approve(actorContext(), "req-1")
	require.NoError(t, err)

	assert.Equal(t, domain.RequisitionApproved, req.Status)
	require.Len(t, movements, 1)
	assert.Equal(t, "lot-a", movements[0].LotID)
	assert.True(t, movements[0].Quantity.Equal(decimal.RequireFromString("-50.00")))

	mockDB.ExpectationsWereMet(t)
}

func TestRequisitionService_Approve_InsufficientStockLeavesPending(t *testing.T) {
	svc, mockDB := newRequisitionService(t)

	mockDB.Mock.ExpectBegin()
	expectRequisitionLock(mockDB, "req-1", "pending")
	expectItemLookup(mockDB, testItemID, "Acetone")
	mockDB.Mock.ExpectQuery("FOR UPDATE").
		WithArgs(testItemID).
		WillReturnRows(testutil.MockRows("id", "lot_number", "expiry_date", "current_quantity").
			AddRow("lot-a", "A-100", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), "10.00"))
	mockDB.Mock.ExpectRollback()

	_, _, err := svc.Approve(actorContext(), "req-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientStock))

	mockDB.ExpectationsWereMet(t)
}

func TestRequisitionService_Approve_AlreadyResolved(t *testing.T) {
	svc, mockDB := newRequisitionService(t)

	mockDB.Mock.ExpectBegin()
	expectRequisitionLock(mockDB, "req-1", "approved")
	mockDB.Mock.ExpectRollback()

	_, _, err := svc.Approve(actorContext(), "req-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidState))
	assert.Contains(t, err.Error(), "approved")

	mockDB.ExpectationsWereMet(t)
}

func TestRequisitionService_Reject(t *testing.T) {
	svc, mockDB := newRequisitionService(t)

	mockDB.Mock.ExpectBegin()
	expectRequisitionLock(mockDB, "req-1", "pending")
	mockDB.Mock.ExpectExec("UPDATE requisitions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.Mock.ExpectQuery("SELECT \\* FROM requisitions WHERE id = \\$1").
		WithArgs("req-1").
		WillReturnRows(testutil.MockRows("id", "item_id", "quantity", "status", "requested_by", "resolved_by").
			AddRow("req-1", testItemID, "50.00", "rejected", "actor-1", "actor-1"))
	mockDB.Mock.ExpectCommit()

	req, err := svc.Reject(actorContext(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RequisitionRejected, req.Status)

	mockDB.ExpectationsWereMet(t)
}

func TestRequisitionService_Create_RejectsNonPositiveQuantity(t *testing.T) {
	svc, mockDB := newRequisitionService(t)

	_, err := svc.Create(actorContext(), testItemID, decimal.Zero, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))

	mockDB.ExpectationsWereMet(t)
}
