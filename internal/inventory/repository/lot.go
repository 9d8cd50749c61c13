package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/labstock/labstock-backend/internal/inventory/domain"
	"github.com/labstock/labstock-backend/pkg/errors"
)

// StockLot is a physical batch of an item with its own lot number, expiry
// date and purchase cost. InitialQuantity is fixed at intake; CurrentQuantity
// only moves through recorded movements and never goes below zero.
type StockLot struct {
	ID              string          `db:"id" json:"id"`
	ItemID          string          `db:"item_id" json:"item_id"`
	LotNumber       string          `db:"lot_number" json:"lot_number"`
	LocationID      *string         `db:"location_id" json:"location_id,omitempty"`
	ExpiryDate      time.Time       `db:"expiry_date" json:"expiry_date"`
	UnitCost        decimal.Decimal `db:"unit_cost" json:"unit_cost"`
	InitialQuantity decimal.Decimal `db:"initial_quantity" json:"initial_quantity"`
	CurrentQuantity decimal.Decimal `db:"current_quantity" json:"current_quantity"`
	ReceivedDate    time.Time       `db:"received_date" json:"received_date"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// LotRepository handles stock lot persistence
type LotRepository struct {
	db Querier
}

// NewLotRepository creates a new lot repository
func NewLotRepository(db Querier) *LotRepository {
	return &LotRepository{db: db}
}

// Create creates a new stock lot
func (r *LotRepository) Create(ctx context.Context, lot *StockLot) error {
	if lot.ID == "" {
		lot.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_lots (
			id, item_id, lot_number, location_id, expiry_date, unit_cost,
			initial_quantity, current_quantity, received_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowxContext(ctx, query,
		lot.ID, lot.ItemID, lot.LotNumber, lot.LocationID, lot.ExpiryDate,
		lot.UnitCost, lot.InitialQuantity, lot.CurrentQuantity, lot.ReceivedDate,
	).Scan(&lot.CreatedAt, &lot.UpdatedAt)
}

// GetByID gets a stock lot by ID
func (r *LotRepository) GetByID(ctx context.Context, id string) (*StockLot, error) {
	var lot StockLot
	query := `SELECT * FROM stock_lots WHERE id = $1`
	if err := r.db.GetContext(ctx, &lot, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("lot")
		}
		return nil, err
	}
	return &lot, nil
}

// GetByIDForUpdate gets a stock lot by ID and locks its row for the duration
// of the surrounding transaction.
func (r *LotRepository) GetByIDForUpdate(ctx context.Context, id string) (*StockLot, error) {
	var lot StockLot
	query := `SELECT * FROM stock_lots WHERE id = $1 FOR UPDATE`
	if err := r.db.GetContext(ctx, &lot, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("lot")
		}
		return nil, err
	}
	return &lot, nil
}

// ListByItem lists all lots of an item ordered by expiry date
func (r *LotRepository) ListByItem(ctx context.Context, itemID string) ([]*StockLot, error) {
	var lots []*StockLot
	query := `
		SELECT * FROM stock_lots
		WHERE item_id = $1
		ORDER BY expiry_date, lot_number
	`
	if err := r.db.SelectContext(ctx, &lots, query, itemID); err != nil {
		return nil, err
	}
	return lots, nil
}

// AvailableByItem returns the non-empty lots of an item in consumption
// order: earliest expiry first, lot number as tie-break.
func (r *LotRepository) AvailableByItem(ctx context.Context, itemID string) ([]domain.LotStock, error) {
	return r.availableByItem(ctx, itemID, false)
}

// AvailableByItemForUpdate is AvailableByItem with the returned rows locked.
// Concurrent withdrawals of the same item serialize on these locks, so a
// second transaction re-plans against quantities the first already committed.
func (r *LotRepository) AvailableByItemForUpdate(ctx context.Context, itemID string) ([]domain.LotStock, error) {
	return r.availableByItem(ctx, itemID, true)
}

func (r *LotRepository) availableByItem(ctx context.Context, itemID string, forUpdate bool) ([]domain.LotStock, error) {
	query := `
		SELECT id, lot_number, expiry_date, current_quantity
		FROM stock_lots
		WHERE item_id = $1 AND current_quantity > 0
		ORDER BY expiry_date, lot_number
	`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	rows, err := r.db.QueryxContext(ctx, query, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lots []domain.LotStock
	for rows.Next() {
		var lot domain.LotStock
		if err := rows.Scan(&lot.ID, &lot.LotNumber, &lot.ExpiryDate, &lot.Current); err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	return lots, rows.Err()
}

// Decrement subtracts quantity from a lot. The WHERE clause refuses to take
// the lot below zero; zero rows affected means the stock moved under us.
func (r *LotRepository) Decrement(ctx context.Context, lotID string, quantity decimal.Decimal) error {
	query := `
		UPDATE stock_lots
		SET current_quantity = current_quantity - $2, updated_at = NOW()
		WHERE id = $1 AND current_quantity >= $2
	`
	result, err := r.db.ExecContext(ctx, query, lotID, quantity)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.Conflict("lot quantity changed concurrently")
	}
	return nil
}

// Increment adds quantity back to a lot.
func (r *LotRepository) Increment(ctx context.Context, lotID string, quantity decimal.Decimal) error {
	query := `
		UPDATE stock_lots
		SET current_quantity = current_quantity + $2, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, lotID, quantity)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("lot")
	}
	return nil
}

// Update updates a lot's descriptive fields. Quantities are not touched
// here; they only move through Decrement and Increment.
func (r *LotRepository) Update(ctx context.Context, lot *StockLot) error {
	query := `
		UPDATE stock_lots SET
			lot_number = $2, location_id = $3, expiry_date = $4,
			unit_cost = $5, received_date = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		lot.ID, lot.LotNumber, lot.LocationID, lot.ExpiryDate,
		lot.UnitCost, lot.ReceivedDate,
	).Scan(&lot.UpdatedAt)
	if err == sql.ErrNoRows {
		return errors.NotFound("lot")
	}
	return err
}

// Delete deletes a stock lot
func (r *LotRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM stock_lots WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("lot")
	}
	return nil
}
