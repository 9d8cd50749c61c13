// Package service implements the inventory business logic. Writes that
// touch lot quantities always pair the quantity change with a ledger
// movement inside one transaction, so the ledger replays to the current
// stock by construction.
package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/labstock/labstock-backend/internal/inventory/domain"
	"github.com/labstock/labstock-backend/internal/inventory/events"
	"github.com/labstock/labstock-backend/internal/inventory/repository"
	"github.com/labstock/labstock-backend/pkg/actor"
	"github.com/labstock/labstock-backend/pkg/database"
	"github.com/labstock/labstock-backend/pkg/errors"
	"github.com/labstock/labstock-backend/pkg/logger"
)

// WithdrawalPlan is the dry-run result of a FEFO withdrawal. Nothing has
// been written when it is returned.
type WithdrawalPlan struct {
	ItemID      string              `json:"item_id"`
	ItemName    string              `json:"item_name"`
	Quantity    decimal.Decimal     `json:"quantity"`
	Allocations []domain.Allocation `json:"allocations"`
}

// StockService handles lot intake, withdrawals, adjustments, discards and
// the movement ledger.
type StockService struct {
	db        *database.DB
	items     *repository.ItemRepository
	lots      *repository.LotRepository
	movements *repository.MovementRepository
	publisher *events.StockEventPublisher
	logger    *logger.Logger
	now       func() time.Time
}

// NewStockService creates a new stock service
func NewStockService(db *database.DB, publisher *events.StockEventPublisher, log *logger.Logger) *StockService {
	return &StockService{
		db:        db,
		items:     repository.NewItemRepository(db),
		lots:      repository.NewLotRepository(db),
		movements: repository.NewMovementRepository(db),
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

func requireActor(ctx context.Context) (*actor.Actor, error) {
	act := actor.FromContext(ctx)
	if act == nil {
		return nil, errors.BadRequest("actor identity required")
	}
	return act, nil
}

// PlanWithdrawal computes which lots a withdrawal would consume, earliest
// expiry first, without writing anything.
func (s *StockService) PlanWithdrawal(ctx context.Context, itemID string, quantity decimal.Decimal) (*WithdrawalPlan, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	lots, err := s.lots.AvailableByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	allocations, err := domain.PlanWithdrawal(item.Name, lots, quantity)
	if err != nil {
		return nil, err
	}

	return &WithdrawalPlan{
		ItemID:      item.ID,
		ItemName:    item.Name,
		Quantity:    quantity,
		Allocations: allocations,
	}, nil
}

// applyWithdrawal plans against row-locked lots and applies the plan:
// one guarded decrement plus one ledger movement per consumed lot. Runs
// inside the caller's transaction so a failure anywhere rolls back the
// whole withdrawal.
func applyWithdrawal(ctx context.Context, tx *sqlx.Tx, item *repository.InventoryItem, quantity decimal.Decimal, note *string, act *actor.Actor) ([]*repository.StockMovement, error) {
	lotRepo := repository.NewLotRepository(tx)
	movementRepo := repository.NewMovementRepository(tx)

	lots, err := lotRepo.AvailableByItemForUpdate(ctx, item.ID)
	if err != nil {
		return nil, err
	}

	allocations, err := domain.PlanWithdrawal(item.Name, lots, quantity)
	if err != nil {
		return nil, err
	}

	movements := make([]*repository.StockMovement, 0, len(allocations))
	for _, alloc := range allocations {
		if err := lotRepo.Decrement(ctx, alloc.LotID, alloc.Quantity); err != nil {
			return nil, err
		}

		movement := &repository.StockMovement{
			ItemID:          item.ID,
			LotID:           alloc.LotID,
			Kind:            domain.MovementWithdrawal,
			Quantity:        alloc.Quantity.Neg(),
			PerformedBy:     act.ID,
			PerformedByName: actorName(act),
			Note:            note,
		}
		if err := movementRepo.Create(ctx, movement); err != nil {
			return nil, err
		}
		movements = append(movements, movement)
	}

	return movements, nil
}

// PerformWithdrawal withdraws quantity of an item across its lots in
// expiry order. The plan is recomputed against locked rows inside the
// transaction, so a concurrent withdrawal either waits or fails cleanly
// with the stock that is actually left.
func (s *StockService) PerformWithdrawal(ctx context.Context, itemID string, quantity decimal.Decimal, note *string) ([]*repository.StockMovement, error) {
	act, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	var movements []*repository.StockMovement
	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		movements, err = applyWithdrawal(ctx, tx, item, quantity, note, act)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("item_id", item.ID).
		Str("quantity", quantity.String()).
		Int("lots_consumed", len(movements)).
		Str("actor_id", act.ID).
		Msg("stock withdrawn")

	s.publisher.PublishStockWithdrawn(ctx, item, quantity, movements)

	return movements, nil
}

// CreateLot receives a new lot into stock and records the matching entry
// movement.
func (s *StockService) CreateLot(ctx context.Context, lot *repository.StockLot) error {
	act, err := requireActor(ctx)
	if err != nil {
		return err
	}

	if lot.InitialQuantity.Sign() <= 0 {
		return errors.BadRequest("initial quantity must be positive")
	}
	if lot.UnitCost.Sign() < 0 {
		return errors.BadRequest("unit cost cannot be negative")
	}

	if _, err := s.items.GetByID(ctx, lot.ItemID); err != nil {
		return err
	}

	lot.CurrentQuantity = lot.InitialQuantity
	if lot.ReceivedDate.IsZero() {
		lot.ReceivedDate = s.now()
	}

	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := repository.NewLotRepository(tx).Create(ctx, lot); err != nil {
			return err
		}

		movement := &repository.StockMovement{
			ItemID:          lot.ItemID,
			LotID:           lot.ID,
			Kind:            domain.MovementEntry,
			Quantity:        lot.InitialQuantity,
			PerformedBy:     act.ID,
			PerformedByName: actorName(act),
		}
		return repository.NewMovementRepository(tx).Create(ctx, movement)
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("lot_id", lot.ID).
		Str("item_id", lot.ItemID).
		Str("quantity", lot.InitialQuantity.String()).
		Msg("lot received")

	s.publisher.PublishStockEntered(ctx, lot, act.ID)

	return nil
}

// AdjustLot corrects a lot's quantity by a signed delta and records an
// adjustment movement. The delta may push the lot above its initial
// quantity; it may never push it below zero.
func (s *StockService) AdjustLot(ctx context.Context, lotID string, delta decimal.Decimal, note *string) (*repository.StockLot, error) {
	act, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	if delta.IsZero() {
		return nil, errors.BadRequest("adjustment delta cannot be zero")
	}

	var lot *repository.StockLot
	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		lotRepo := repository.NewLotRepository(tx)

		lot, err = lotRepo.GetByIDForUpdate(ctx, lotID)
		if err != nil {
			return err
		}

		if delta.Sign() > 0 {
			if err := lotRepo.Increment(ctx, lot.ID, delta); err != nil {
				return err
			}
		} else {
			loss := delta.Neg()
			if lot.CurrentQuantity.LessThan(loss) {
				item, itemErr := repository.NewItemRepository(tx).GetByID(ctx, lot.ItemID)
				if itemErr != nil {
					return itemErr
				}
				return errors.InsufficientStock(item.Name, loss, lot.CurrentQuantity)
			}
			if err := lotRepo.Decrement(ctx, lot.ID, loss); err != nil {
				return err
			}
		}
		lot.CurrentQuantity = lot.CurrentQuantity.Add(delta)

		movement := &repository.StockMovement{
			ItemID:          lot.ItemID,
			LotID:           lot.ID,
			Kind:            domain.MovementAdjustment,
			Quantity:        delta,
			PerformedBy:     act.ID,
			PerformedByName: actorName(act),
			Note:            note,
		}
		return repository.NewMovementRepository(tx).Create(ctx, movement)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("lot_id", lot.ID).
		Str("delta", delta.String()).
		Str("new_quantity", lot.CurrentQuantity.String()).
		Msg("lot adjusted")

	s.publisher.PublishStockAdjusted(ctx, lot, delta, note, act.ID)

	return lot, nil
}

// DiscardLot removes spoiled or expired stock from a lot and records a
// discard movement.
func (s *StockService) DiscardLot(ctx context.Context, lotID string, quantity decimal.Decimal, note *string) (*repository.StockLot, error) {
	act, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	if quantity.Sign() <= 0 {
		return nil, errors.BadRequest("discard quantity must be positive")
	}

	var lot *repository.StockLot
	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		lotRepo := repository.NewLotRepository(tx)

		lot, err = lotRepo.GetByIDForUpdate(ctx, lotID)
		if err != nil {
			return err
		}

		if lot.CurrentQuantity.LessThan(quantity) {
			item, itemErr := repository.NewItemRepository(tx).GetByID(ctx, lot.ItemID)
			if itemErr != nil {
				return itemErr
			}
			return errors.InsufficientStock(item.Name, quantity, lot.CurrentQuantity)
		}

		if err := lotRepo.Decrement(ctx, lot.ID, quantity); err != nil {
			return err
		}
		lot.CurrentQuantity = lot.CurrentQuantity.Sub(quantity)

		movement := &repository.StockMovement{
			ItemID:          lot.ItemID,
			LotID:           lot.ID,
			Kind:            domain.MovementDiscard,
			Quantity:        quantity.Neg(),
			PerformedBy:     act.ID,
			PerformedByName: actorName(act),
			Note:            note,
		}
		return repository.NewMovementRepository(tx).Create(ctx, movement)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("lot_id", lot.ID).
		Str("quantity", quantity.String()).
		Msg("stock discarded")

	s.publisher.PublishStockDiscarded(ctx, lot, quantity, note, act.ID)

	return lot, nil
}

// GetLot gets a stock lot by ID
func (s *StockService) GetLot(ctx context.Context, id string) (*repository.StockLot, error) {
	return s.lots.GetByID(ctx, id)
}

// ListLotsByItem lists all lots of an item in expiry order
func (s *StockService) ListLotsByItem(ctx context.Context, itemID string) ([]*repository.StockLot, error) {
	if _, err := s.items.GetByID(ctx, itemID); err != nil {
		return nil, err
	}
	return s.lots.ListByItem(ctx, itemID)
}

// UpdateLot updates a lot's descriptive fields
func (s *StockService) UpdateLot(ctx context.Context, lot *repository.StockLot) error {
	return s.lots.Update(ctx, lot)
}

// DeleteLot deletes an empty lot. Lots that still hold stock or have
// ledger history must be discarded or adjusted instead.
func (s *StockService) DeleteLot(ctx context.Context, id string) error {
	lot, err := s.lots.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if lot.CurrentQuantity.Sign() > 0 {
		return errors.InvalidState("lot still holds stock")
	}
	return s.lots.Delete(ctx, id)
}

// ListMovements lists ledger movements newest first
func (s *StockService) ListMovements(ctx context.Context, filter repository.MovementFilter) ([]*repository.MovementWithNames, error) {
	return s.movements.List(ctx, filter)
}

func actorName(act *actor.Actor) *string {
	if act.Name == "" {
		return nil
	}
	name := act.Name
	return &name
}
