package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ConsumptionRow aggregates withdrawn stock per actor and item.
type ConsumptionRow struct {
	ActorID       string          `db:"actor_id" json:"actor_id"`
	ActorName     *string         `db:"actor_name" json:"actor_name,omitempty"`
	ItemID        string          `db:"item_id" json:"item_id"`
	ItemName      string          `db:"item_name" json:"item_name"`
	TotalQuantity decimal.Decimal `db:"total_quantity" json:"total_quantity"`
}

// WasteRow aggregates discarded and written-down stock per item.
type WasteRow struct {
	ItemID        string          `db:"item_id" json:"item_id"`
	ItemName      string          `db:"item_name" json:"item_name"`
	Kind          string          `db:"kind" json:"kind"`
	TotalQuantity decimal.Decimal `db:"total_quantity" json:"total_quantity"`
}

// StockValueRow is the purchase value of remaining stock for one group.
type StockValueRow struct {
	GroupID    *string         `db:"group_id" json:"group_id,omitempty"`
	GroupName  *string         `db:"group_name" json:"group_name,omitempty"`
	TotalValue decimal.Decimal `db:"total_value" json:"total_value"`
}

// ExpiryRow is a lot that is expired or about to expire, with the value
// still sitting in it.
type ExpiryRow struct {
	LotID           string          `db:"lot_id" json:"lot_id"`
	LotNumber       string          `db:"lot_number" json:"lot_number"`
	ItemID          string          `db:"item_id" json:"item_id"`
	ItemName        string          `db:"item_name" json:"item_name"`
	LocationName    *string         `db:"location_name" json:"location_name,omitempty"`
	ExpiryDate      time.Time       `db:"expiry_date" json:"expiry_date"`
	CurrentQuantity decimal.Decimal `db:"current_quantity" json:"current_quantity"`
	ValueAtRisk     decimal.Decimal `db:"value_at_risk" json:"value_at_risk"`
}

// ReportRepository runs the read-only aggregation queries behind the
// reporting endpoints. It never writes.
type ReportRepository struct {
	db Querier
}

// NewReportRepository creates a new report repository
func NewReportRepository(db Querier) *ReportRepository {
	return &ReportRepository{db: db}
}

// ConsumptionByActor sums withdrawal quantities per actor and item over the
// half-open interval [from, to). Withdrawals are recorded with negative
// quantities, hence the sign flip.
func (r *ReportRepository) ConsumptionByActor(ctx context.Context, from, to time.Time, actorID, itemID *string) ([]*ConsumptionRow, error) {
	query := `
		SELECT m.performed_by AS actor_id,
		       MAX(m.performed_by_name) AS actor_name,
		       m.item_id,
		       i.name AS item_name,
		       SUM(-m.quantity) AS total_quantity
		FROM stock_movements m
		JOIN inventory_items i ON i.id = m.item_id
		WHERE m.kind = 'withdrawal'
		  AND m.created_at >= $1 AND m.created_at < $2
	`
	args := []interface{}{from, to}
	argPos := 3

	if actorID != nil {
		query += fmt.Sprintf(" AND m.performed_by = $%d", argPos)
		args = append(args, *actorID)
		argPos++
	}
	if itemID != nil {
		query += fmt.Sprintf(" AND m.item_id = $%d", argPos)
		args = append(args, *itemID)
	}

	query += `
		GROUP BY m.performed_by, m.item_id, i.name
		ORDER BY m.performed_by, i.name
	`

	var rows []*ConsumptionRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// WasteLoss sums stock lost to discards and negative adjustments per item
// over [from, to).
func (r *ReportRepository) WasteLoss(ctx context.Context, from, to time.Time, itemID *string) ([]*WasteRow, error) {
	query := `
		SELECT m.item_id,
		       i.name AS item_name,
		       m.kind,
		       SUM(-m.quantity) AS total_quantity
		FROM stock_movements m
		JOIN inventory_items i ON i.id = m.item_id
		WHERE (m.kind = 'discard' OR (m.kind = 'adjustment' AND m.quantity < 0))
		  AND m.created_at >= $1 AND m.created_at < $2
	`
	args := []interface{}{from, to}

	if itemID != nil {
		query += " AND m.item_id = $3"
		args = append(args, *itemID)
	}

	query += `
		GROUP BY m.item_id, i.name, m.kind
		ORDER BY i.name, m.kind
	`

	var rows []*WasteRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// TotalStockValue sums current_quantity * unit_cost over non-empty lots.
func (r *ReportRepository) TotalStockValue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `
		SELECT COALESCE(SUM(current_quantity * unit_cost), 0)
		FROM stock_lots
		WHERE current_quantity > 0
	`
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// StockValueByCategory sums remaining stock value per item category,
// skipping drained lots. Lots whose item has no category land in a NULL
// group, sorted last.
func (r *ReportRepository) StockValueByCategory(ctx context.Context) ([]*StockValueRow, error) {
	query := `
		SELECT c.id AS group_id,
		       c.name AS group_name,
		       COALESCE(SUM(l.current_quantity * l.unit_cost), 0) AS total_value
		FROM stock_lots l
		JOIN inventory_items i ON i.id = l.item_id
		LEFT JOIN categories c ON c.id = i.category_id
		WHERE l.current_quantity > 0
		GROUP BY c.id, c.name
		ORDER BY group_name
	`
	var rows []*StockValueRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	return rows, nil
}

// StockValueByLocation sums remaining stock value per storage location,
// skipping drained lots.
func (r *ReportRepository) StockValueByLocation(ctx context.Context) ([]*StockValueRow, error) {
	query := `
		SELECT loc.id AS group_id,
		       loc.name AS group_name,
		       COALESCE(SUM(l.current_quantity * l.unit_cost), 0) AS total_value
		FROM stock_lots l
		LEFT JOIN locations loc ON loc.id = l.location_id
		WHERE l.current_quantity > 0
		GROUP BY loc.id, loc.name
		ORDER BY group_name
	`
	var rows []*StockValueRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	return rows, nil
}

// ExpiryExposure lists non-empty lots ordered soonest-expiring first.
// With expiredOnly it returns lots already past asOf; otherwise it
// returns lots expiring on or after asOf, up to cutoff when one is given.
func (r *ReportRepository) ExpiryExposure(ctx context.Context, asOf time.Time, cutoff *time.Time, expiredOnly bool) ([]*ExpiryRow, error) {
	query := `
		SELECT l.id AS lot_id,
		       l.lot_number,
		       l.item_id,
		       i.name AS item_name,
		       loc.name AS location_name,
		       l.expiry_date,
		       l.current_quantity,
		       l.current_quantity * l.unit_cost AS value_at_risk
		FROM stock_lots l
		JOIN inventory_items i ON i.id = l.item_id
		LEFT JOIN locations loc ON loc.id = l.location_id
		WHERE l.current_quantity > 0
	`
	args := []interface{}{asOf}

	if expiredOnly {
		query += " AND l.expiry_date < $1"
	} else {
		query += " AND l.expiry_date >= $1"
		if cutoff != nil {
			query += " AND l.expiry_date <= $2"
			args = append(args, *cutoff)
		}
	}

	query += " ORDER BY l.expiry_date, l.item_id, l.lot_number"

	var rows []*ExpiryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// CountLotsExpiringBefore counts non-empty lots expiring in [asOf, cutoff).
func (r *ReportRepository) CountLotsExpiringBefore(ctx context.Context, asOf, cutoff time.Time) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM stock_lots
		WHERE current_quantity > 0
		  AND expiry_date >= $1 AND expiry_date < $2
	`
	if err := r.db.GetContext(ctx, &count, query, asOf, cutoff); err != nil {
		return 0, err
	}
	return count, nil
}

// CountExpiredLots counts non-empty lots already past asOf.
func (r *ReportRepository) CountExpiredLots(ctx context.Context, asOf time.Time) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM stock_lots
		WHERE current_quantity > 0 AND expiry_date < $1
	`
	if err := r.db.GetContext(ctx, &count, query, asOf); err != nil {
		return 0, err
	}
	return count, nil
}

// MonthlyConsumptionRow is withdrawn stock for one calendar month.
type MonthlyConsumptionRow struct {
	Month         time.Time       `db:"month" json:"month"`
	TotalQuantity decimal.Decimal `db:"total_quantity" json:"total_quantity"`
}

// MonthlyConsumption sums withdrawals per calendar month from `since`
// onwards, oldest month first. Months without withdrawals are omitted.
func (r *ReportRepository) MonthlyConsumption(ctx context.Context, since time.Time) ([]*MonthlyConsumptionRow, error) {
	query := `
		SELECT date_trunc('month', created_at) AS month,
		       SUM(-quantity) AS total_quantity
		FROM stock_movements
		WHERE kind = 'withdrawal' AND created_at >= $1
		GROUP BY date_trunc('month', created_at)
		ORDER BY month
	`
	rows := []*MonthlyConsumptionRow{}
	if err := r.db.SelectContext(ctx, &rows, query, since); err != nil {
		return nil, err
	}
	return rows, nil
}

// CountPendingRequisitions counts requisitions waiting for sign-off.
func (r *ReportRepository) CountPendingRequisitions(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM requisitions WHERE status = 'pending'`
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, err
	}
	return count, nil
}
