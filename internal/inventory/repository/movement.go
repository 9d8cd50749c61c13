package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/labstock/labstock-backend/internal/inventory/domain"
	"github.com/labstock/labstock-backend/pkg/errors"
)

// StockMovement is one row of the append-only movement ledger. Quantity is
// signed the way the movement affected the lot: entries are positive,
// withdrawals and discards negative, adjustments either. Rows are never
// updated or deleted.
type StockMovement struct {
	ID              string              `db:"id" json:"id"`
	ItemID          string              `db:"item_id" json:"item_id"`
	LotID           string              `db:"lot_id" json:"lot_id"`
	Kind            domain.MovementKind `db:"kind" json:"kind"`
	Quantity        decimal.Decimal     `db:"quantity" json:"quantity"`
	PerformedBy     string              `db:"performed_by" json:"performed_by"`
	PerformedByName *string             `db:"performed_by_name" json:"performed_by_name,omitempty"`
	Note            *string             `db:"note" json:"note,omitempty"`
	CreatedAt       time.Time           `db:"created_at" json:"created_at"`
}

// MovementWithNames joins a movement with item and lot labels for listings.
type MovementWithNames struct {
	StockMovement
	ItemName  string `db:"item_name" json:"item_name"`
	LotNumber string `db:"lot_number" json:"lot_number"`
}

// MovementFilter narrows ledger listings.
type MovementFilter struct {
	ItemID *string
	LotID  *string
	Kind   *domain.MovementKind
	Actor  *string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// MovementRepository appends to and reads the movement ledger.
type MovementRepository struct {
	db Querier
}

// NewMovementRepository creates a new movement repository
func NewMovementRepository(db Querier) *MovementRepository {
	return &MovementRepository{db: db}
}

// Create appends a movement to the ledger.
func (r *MovementRepository) Create(ctx context.Context, m *StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (
			id, item_id, lot_id, kind, quantity, performed_by, performed_by_name, note
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	return r.db.QueryRowxContext(ctx, query,
		m.ID, m.ItemID, m.LotID, m.Kind, m.Quantity,
		m.PerformedBy, m.PerformedByName, m.Note,
	).Scan(&m.CreatedAt)
}

// GetByID gets a movement by ID
func (r *MovementRepository) GetByID(ctx context.Context, id string) (*StockMovement, error) {
	var m StockMovement
	query := `SELECT * FROM stock_movements WHERE id = $1`
	if err := r.db.GetContext(ctx, &m, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("movement")
		}
		return nil, err
	}
	return &m, nil
}

// List lists movements newest first, applying the filter.
func (r *MovementRepository) List(ctx context.Context, filter MovementFilter) ([]*MovementWithNames, error) {
	query := `
		SELECT m.*, i.name AS item_name, l.lot_number
		FROM stock_movements m
		JOIN inventory_items i ON i.id = m.item_id
		JOIN stock_lots l ON l.id = m.lot_id
		WHERE 1=1
	`
	args := []interface{}{}
	argPos := 1

	if filter.ItemID != nil {
		query += fmt.Sprintf(" AND m.item_id = $%d", argPos)
		args = append(args, *filter.ItemID)
		argPos++
	}
	if filter.LotID != nil {
		query += fmt.Sprintf(" AND m.lot_id = $%d", argPos)
		args = append(args, *filter.LotID)
		argPos++
	}
	if filter.Kind != nil {
		query += fmt.Sprintf(" AND m.kind = $%d", argPos)
		args = append(args, *filter.Kind)
		argPos++
	}
	if filter.Actor != nil {
		query += fmt.Sprintf(" AND m.performed_by = $%d", argPos)
		args = append(args, *filter.Actor)
		argPos++
	}
	if filter.From != nil {
		query += fmt.Sprintf(" AND m.created_at >= $%d", argPos)
		args = append(args, *filter.From)
		argPos++
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND m.created_at < $%d", argPos)
		args = append(args, *filter.To)
		argPos++
	}

	query += " ORDER BY m.created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, filter.Limit)
		argPos++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argPos)
		args = append(args, filter.Offset)
	}

	var movements []*MovementWithNames
	if err := r.db.SelectContext(ctx, &movements, query, args...); err != nil {
		return nil, err
	}
	return movements, nil
}
