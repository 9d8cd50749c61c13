package service

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/labstock/labstock-backend/internal/inventory/domain"
	"github.com/labstock/labstock-backend/internal/inventory/events"
	"github.com/labstock/labstock-backend/internal/inventory/repository"
	"github.com/labstock/labstock-backend/pkg/database"
	"github.com/labstock/labstock-backend/pkg/errors"
	"github.com/labstock/labstock-backend/pkg/logger"
)

// RequisitionService handles the request-and-approve workflow. Approval
// and the resulting withdrawal commit together or not at all.
type RequisitionService struct {
	db           *database.DB
	items        *repository.ItemRepository
	requisitions *repository.RequisitionRepository
	publisher    *events.StockEventPublisher
	logger       *logger.Logger
}

// NewRequisitionService creates a new requisition service
func NewRequisitionService(db *database.DB, publisher *events.StockEventPublisher, log *logger.Logger) *RequisitionService {
	return &RequisitionService{
		db:           db,
		items:        repository.NewItemRepository(db),
		requisitions: repository.NewRequisitionRepository(db),
		publisher:    publisher,
		logger:       log,
	}
}

// Create opens a pending requisition for the calling actor. Stock is not
// checked here; availability is decided at approval time.
func (s *RequisitionService) Create(ctx context.Context, itemID string, quantity decimal.Decimal, reason *string) (*repository.Requisition, error) {
	act, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	if quantity.Sign() <= 0 {
		return nil, errors.BadRequest("requested quantity must be positive")
	}

	if _, err := s.items.GetByID(ctx, itemID); err != nil {
		return nil, err
	}

	req := &repository.Requisition{
		ItemID:          itemID,
		Quantity:        quantity,
		Reason:          reason,
		RequestedBy:     act.ID,
		RequestedByName: actorName(act),
	}
	if err := s.requisitions.Create(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("requisition_id", req.ID).
		Str("item_id", itemID).
		Str("quantity", quantity.String()).
		Msg("requisition created")

	s.publisher.PublishRequisitionCreated(ctx, req)

	return req, nil
}

// Get gets a requisition by ID
func (s *RequisitionService) Get(ctx context.Context, id string) (*repository.Requisition, error) {
	return s.requisitions.GetByID(ctx, id)
}

// List lists requisitions newest first
func (s *RequisitionService) List(ctx context.Context, filter repository.RequisitionFilter) ([]*repository.RequisitionWithItem, error) {
	return s.requisitions.List(ctx, filter)
}

// Approve resolves a pending requisition and performs the withdrawal it
// asked for. The requisition row is locked first, so a second approver
// blocks and then sees the terminal state. If stock no longer covers the
// request, the approval rolls back and the requisition stays pending.
func (s *RequisitionService) Approve(ctx context.Context, id string) (*repository.Requisition, []*repository.StockMovement, error) {
	act, err := requireActor(ctx)
	if err != nil {
		return nil, nil, err
	}

	var (
		req       *repository.Requisition
		item      *repository.InventoryItem
		movements []*repository.StockMovement
	)
	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		reqRepo := repository.NewRequisitionRepository(tx)

		req, err = reqRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := req.Status.EnsurePending(); err != nil {
			return err
		}

		item, err = repository.NewItemRepository(tx).GetByID(ctx, req.ItemID)
		if err != nil {
			return err
		}

		movements, err = applyWithdrawal(ctx, tx, item, req.Quantity, req.Reason, act)
		if err != nil {
			return err
		}

		if err := reqRepo.Resolve(ctx, req.ID, domain.RequisitionApproved, act.ID, actorName(act)); err != nil {
			return err
		}
		req, err = reqRepo.GetByID(ctx, req.ID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info().
		Str("requisition_id", req.ID).
		Str("item_id", req.ItemID).
		Str("resolved_by", act.ID).
		Msg("requisition approved")

	s.publisher.PublishRequisitionResolved(ctx, req)
	s.publisher.PublishStockWithdrawn(ctx, item, req.Quantity, movements)

	return req, movements, nil
}

// Reject resolves a pending requisition without moving any stock.
func (s *RequisitionService) Reject(ctx context.Context, id string) (*repository.Requisition, error) {
	act, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	var req *repository.Requisition
	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		reqRepo := repository.NewRequisitionRepository(tx)

		req, err = reqRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := req.Status.EnsurePending(); err != nil {
			return err
		}

		if err := reqRepo.Resolve(ctx, req.ID, domain.RequisitionRejected, act.ID, actorName(act)); err != nil {
			return err
		}
		req, err = reqRepo.GetByID(ctx, req.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("requisition_id", req.ID).
		Str("resolved_by", act.ID).
		Msg("requisition rejected")

	s.publisher.PublishRequisitionResolved(ctx, req)

	return req, nil
}

// Delete deletes a pending requisition
func (s *RequisitionService) Delete(ctx context.Context, id string) error {
	return s.requisitions.Delete(ctx, id)
}
