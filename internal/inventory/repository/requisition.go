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

// Requisition is a request to withdraw stock that needs sign-off before
// anything moves. ResolvedBy and ResolvedAt stay empty while pending.
type Requisition struct {
	ID              string                   `db:"id" json:"id"`
	ItemID          string                   `db:"item_id" json:"item_id"`
	Quantity        decimal.Decimal          `db:"quantity" json:"quantity"`
	Status          domain.RequisitionStatus `db:"status" json:"status"`
	Reason          *string                  `db:"reason" json:"reason,omitempty"`
	RequestedBy     string                   `db:"requested_by" json:"requested_by"`
	RequestedByName *string                  `db:"requested_by_name" json:"requested_by_name,omitempty"`
	ResolvedBy      *string                  `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedByName  *string                  `db:"resolved_by_name" json:"resolved_by_name,omitempty"`
	ResolvedAt      *time.Time               `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt       time.Time                `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time                `db:"updated_at" json:"updated_at"`
}

// RequisitionWithItem joins a requisition with its item label.
type RequisitionWithItem struct {
	Requisition
	ItemName string `db:"item_name" json:"item_name"`
}

// RequisitionFilter narrows requisition listings.
type RequisitionFilter struct {
	Status      *domain.RequisitionStatus
	ItemID      *string
	RequestedBy *string
	Limit       int
	Offset      int
}

// RequisitionRepository handles requisition persistence
type RequisitionRepository struct {
	db Querier
}

// NewRequisitionRepository creates a new requisition repository
func NewRequisitionRepository(db Querier) *RequisitionRepository {
	return &RequisitionRepository{db: db}
}

// Create creates a new requisition in pending state
func (r *RequisitionRepository) Create(ctx context.Context, req *Requisition) error {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	req.Status = domain.RequisitionPending

	query := `
		INSERT INTO requisitions (
			id, item_id, quantity, status, reason, requested_by, requested_by_name
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowxContext(ctx, query,
		req.ID, req.ItemID, req.Quantity, req.Status, req.Reason,
		req.RequestedBy, req.RequestedByName,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
}

// GetByID gets a requisition by ID
func (r *RequisitionRepository) GetByID(ctx context.Context, id string) (*Requisition, error) {
	var req Requisition
	query := `SELECT * FROM requisitions WHERE id = $1`
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("requisition")
		}
		return nil, err
	}
	return &req, nil
}

// GetByIDForUpdate gets a requisition by ID and locks its row so two
// approvers cannot resolve it at the same time.
func (r *RequisitionRepository) GetByIDForUpdate(ctx context.Context, id string) (*Requisition, error) {
	var req Requisition
	query := `SELECT * FROM requisitions WHERE id = $1 FOR UPDATE`
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("requisition")
		}
		return nil, err
	}
	return &req, nil
}

// List lists requisitions newest first, applying the filter.
func (r *RequisitionRepository) List(ctx context.Context, filter RequisitionFilter) ([]*RequisitionWithItem, error) {
	query := `
		SELECT q.*, i.name AS item_name
		FROM requisitions q
		JOIN inventory_items i ON i.id = q.item_id
		WHERE 1=1
	`
	args := []interface{}{}
	argPos := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND q.status = $%d", argPos)
		args = append(args, *filter.Status)
		argPos++
	}
	if filter.ItemID != nil {
		query += fmt.Sprintf(" AND q.item_id = $%d", argPos)
		args = append(args, *filter.ItemID)
		argPos++
	}
	if filter.RequestedBy != nil {
		query += fmt.Sprintf(" AND q.requested_by = $%d", argPos)
		args = append(args, *filter.RequestedBy)
		argPos++
	}

	query += " ORDER BY q.created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, filter.Limit)
		argPos++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argPos)
		args = append(args, filter.Offset)
	}

	var reqs []*RequisitionWithItem
	if err := r.db.SelectContext(ctx, &reqs, query, args...); err != nil {
		return nil, err
	}
	return reqs, nil
}

// Resolve moves a pending requisition to a terminal status and stamps the
// resolver. The WHERE clause only matches pending rows, so a requisition
// already resolved by someone else comes back as a state conflict.
func (r *RequisitionRepository) Resolve(ctx context.Context, id string, status domain.RequisitionStatus, resolvedBy string, resolvedByName *string) error {
	query := `
		UPDATE requisitions SET
			status = $2, resolved_by = $3, resolved_by_name = $4,
			resolved_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $5
	`
	result, err := r.db.ExecContext(ctx, query, id, status, resolvedBy, resolvedByName, domain.RequisitionPending)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.InvalidState("requisition is not pending")
	}
	return nil
}

// Delete deletes a pending requisition. Resolved requisitions are part of
// the historical record and cannot be removed.
func (r *RequisitionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM requisitions WHERE id = $1 AND status = $2`,
		id, domain.RequisitionPending,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return errors.InvalidState("only pending requisitions can be deleted")
	}
	return nil
}
