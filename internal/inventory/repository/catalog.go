package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/labstock/labstock-backend/pkg/errors"
)

// Category groups inventory items by kind of reagent or material.
type Category struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Supplier is a vendor that stock lots are purchased from.
type Supplier struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Location is a physical storage place for stock lots.
type Location struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CatalogRepository handles the reference entities items point at.
type CatalogRepository struct {
	db Querier
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db Querier) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// CreateCategory creates a new category
func (r *CatalogRepository) CreateCategory(ctx context.Context, c *Category) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	query := `
		INSERT INTO categories (id, name, description)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowxContext(ctx, query, c.ID, c.Name, c.Description).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

// GetCategory gets a category by ID
func (r *CatalogRepository) GetCategory(ctx context.Context, id string) (*Category, error) {
	var c Category
	query := `SELECT * FROM categories WHERE id = $1`
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("category")
		}
		return nil, err
	}
	return &c, nil
}

// ListCategories lists all categories ordered by name
func (r *CatalogRepository) ListCategories(ctx context.Context) ([]*Category, error) {
	var categories []*Category
	query := `SELECT * FROM categories ORDER BY name`
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, err
	}
	return categories, nil
}

// UpdateCategory updates a category
func (r *CatalogRepository) UpdateCategory(ctx context.Context, c *Category) error {
	query := `
		UPDATE categories SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, c.ID, c.Name, c.Description).Scan(&c.UpdatedAt)
	if err == sql.ErrNoRows {
		return errors.NotFound("category")
	}
	return err
}

// DeleteCategory deletes a category
func (r *CatalogRepository) DeleteCategory(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("category")
	}
	return nil
}

// CreateSupplier creates a new supplier
func (r *CatalogRepository) CreateSupplier(ctx context.Context, s *Supplier) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	query := `
		INSERT INTO suppliers (id, name, email, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowxContext(ctx, query, s.ID, s.Name, s.Email, s.Phone).
		Scan(&s.CreatedAt, &s.UpdatedAt)
}

// GetSupplier gets a supplier by ID
func (r *CatalogRepository) GetSupplier(ctx context.Context, id string) (*Supplier, error) {
	var s Supplier
	query := `SELECT * FROM suppliers WHERE id = $1`
	if err := r.db.GetContext(ctx, &s, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("supplier")
		}
		return nil, err
	}
	return &s, nil
}

// ListSuppliers lists all suppliers ordered by name
func (r *CatalogRepository) ListSuppliers(ctx context.Context) ([]*Supplier, error) {
	var suppliers []*Supplier
	query := `SELECT * FROM suppliers ORDER BY name`
	if err := r.db.SelectContext(ctx, &suppliers, query); err != nil {
		return nil, err
	}
	return suppliers, nil
}

// UpdateSupplier updates a supplier
func (r *CatalogRepository) UpdateSupplier(ctx context.Context, s *Supplier) error {
	query := `
		UPDATE suppliers SET name = $2, email = $3, phone = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, s.ID, s.Name, s.Email, s.Phone).Scan(&s.UpdatedAt)
	if err == sql.ErrNoRows {
		return errors.NotFound("supplier")
	}
	return err
}

// DeleteSupplier deletes a supplier
func (r *CatalogRepository) DeleteSupplier(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("supplier")
	}
	return nil
}

// CreateLocation creates a new storage location
func (r *CatalogRepository) CreateLocation(ctx context.Context, l *Location) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	query := `
		INSERT INTO locations (id, name, description)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowxContext(ctx, query, l.ID, l.Name, l.Description).
		Scan(&l.CreatedAt, &l.UpdatedAt)
}

// GetLocation gets a storage location by ID
func (r *CatalogRepository) GetLocation(ctx context.Context, id string) (*Location, error) {
	var l Location
	query := `SELECT * FROM locations WHERE id = $1`
	if err := r.db.GetContext(ctx, &l, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("location")
		}
		return nil, err
	}
	return &l, nil
}

// ListLocations lists all storage locations ordered by name
func (r *CatalogRepository) ListLocations(ctx context.Context) ([]*Location, error) {
	var locations []*Location
	query := `SELECT * FROM locations ORDER BY name`
	if err := r.db.SelectContext(ctx, &locations, query); err != nil {
		return nil, err
	}
	return locations, nil
}

// UpdateLocation updates a storage location
func (r *CatalogRepository) UpdateLocation(ctx context.Context, l *Location) error {
	query := `
		UPDATE locations SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, l.ID, l.Name, l.Description).Scan(&l.UpdatedAt)
	if err == sql.ErrNoRows {
		return errors.NotFound("location")
	}
	return err
}

// DeleteLocation deletes a storage location
func (r *CatalogRepository) DeleteLocation(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("location")
	}
	return nil
}
