package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/labstock/labstock-backend/pkg/errors"
)

// InventoryItem is a catalog entry for a reagent or material. Actual stock
// lives in the stock lots pointing at it.
type InventoryItem struct {
	ID           string          `db:"id" json:"id"`
	SKU          string          `db:"sku" json:"sku"`
	Name         string          `db:"name" json:"name"`
	Description  *string         `db:"description" json:"description,omitempty"`
	Unit         string          `db:"unit" json:"unit"`
	MinimumStock decimal.Decimal `db:"minimum_stock" json:"minimum_stock"`
	CategoryID   *string         `db:"category_id" json:"category_id,omitempty"`
	SupplierID   *string         `db:"supplier_id" json:"supplier_id,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// ItemWithStock is an item joined with the sum of its lot quantities.
type ItemWithStock struct {
	InventoryItem
	CurrentStock decimal.Decimal `db:"current_stock" json:"current_stock"`
}

// ItemFilter narrows item listings.
type ItemFilter struct {
	CategoryID *string
	SupplierID *string
	Search     *string
	Limit      int
	Offset     int
}

// ItemRepository handles item persistence
type ItemRepository struct {
	db Querier
}

// NewItemRepository creates a new item repository
func NewItemRepository(db Querier) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create creates a new item
func (r *ItemRepository) Create(ctx context.Context, item *InventoryItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	query := `
		INSERT INTO inventory_items (
			id, sku, name, description, unit, minimum_stock, category_id, supplier_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowxContext(ctx, query,
		item.ID, item.SKU, item.Name, item.Description, item.Unit,
		item.MinimumStock, item.CategoryID, item.SupplierID,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
}

// GetByID gets an item by ID
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*InventoryItem, error) {
	var item InventoryItem
	query := `SELECT * FROM inventory_items WHERE id = $1`
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("item")
		}
		return nil, err
	}
	return &item, nil
}

// GetBySKU gets an item by its SKU
func (r *ItemRepository) GetBySKU(ctx context.Context, sku string) (*InventoryItem, error) {
	var item InventoryItem
	query := `SELECT * FROM inventory_items WHERE sku = $1`
	if err := r.db.GetContext(ctx, &item, query, sku); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("item")
		}
		return nil, err
	}
	return &item, nil
}

// List lists items with their aggregated lot stock, applying the filter.
func (r *ItemRepository) List(ctx context.Context, filter ItemFilter) ([]*ItemWithStock, error) {
	query := `
		SELECT i.*, COALESCE(SUM(l.current_quantity), 0) AS current_stock
		FROM inventory_items i
		LEFT JOIN stock_lots l ON l.item_id = i.id
		WHERE 1=1
	`
	args := []interface{}{}
	argPos := 1

	if filter.CategoryID != nil {
		query += fmt.Sprintf(" AND i.category_id = $%d", argPos)
		args = append(args, *filter.CategoryID)
		argPos++
	}
	if filter.SupplierID != nil {
		query += fmt.Sprintf(" AND i.supplier_id = $%d", argPos)
		args = append(args, *filter.SupplierID)
		argPos++
	}
	if filter.Search != nil {
		query += fmt.Sprintf(" AND (i.name ILIKE $%d OR i.sku ILIKE $%d)", argPos, argPos)
		args = append(args, "%"+*filter.Search+"%")
		argPos++
	}

	query += " GROUP BY i.id ORDER BY i.name"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, filter.Limit)
		argPos++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argPos)
		args = append(args, filter.Offset)
	}

	var items []*ItemWithStock
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, err
	}
	return items, nil
}

// ListBelowMinimum lists items whose aggregated stock is at or below their
// minimum stock threshold.
func (r *ItemRepository) ListBelowMinimum(ctx context.Context) ([]*ItemWithStock, error) {
	query := `
		SELECT i.*, COALESCE(SUM(l.current_quantity), 0) AS current_stock
		FROM inventory_items i
		LEFT JOIN stock_lots l ON l.item_id = i.id
		GROUP BY i.id
		HAVING COALESCE(SUM(l.current_quantity), 0) <= i.minimum_stock
		ORDER BY i.name
	`
	var items []*ItemWithStock
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, err
	}
	return items, nil
}

// Update updates an item
func (r *ItemRepository) Update(ctx context.Context, item *InventoryItem) error {
	query := `
		UPDATE inventory_items SET
			sku = $2, name = $3, description = $4, unit = $5,
			minimum_stock = $6, category_id = $7, supplier_id = $8,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		item.ID, item.SKU, item.Name, item.Description, item.Unit,
		item.MinimumStock, item.CategoryID, item.SupplierID,
	).Scan(&item.UpdatedAt)
	if err == sql.ErrNoRows {
		return errors.NotFound("item")
	}
	return err
}

// Delete deletes an item
func (r *ItemRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("item")
	}
	return nil
}
