package events

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/labstock/labstock-backend/internal/inventory/domain"
	"github.com/labstock/labstock-backend/internal/inventory/repository"
	"github.com/labstock/labstock-backend/pkg/logger"
	"github.com/labstock/labstock-backend/pkg/messaging"
)

// StockEventPublisher publishes stock and requisition events. A nil
// publisher is valid and drops everything, which is how the service runs
// when RabbitMQ is disabled.
type StockEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewStockEventPublisher creates a new stock event publisher
func NewStockEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*StockEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeStockEvents, "inventory-service", log)
	if err != nil {
		return nil, err
	}

	return &StockEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishStockWithdrawn publishes a stock withdrawn event
func (p *StockEventPublisher) PublishStockWithdrawn(ctx context.Context, item *repository.InventoryItem, quantity decimal.Decimal, movements []*repository.StockMovement) {
	if p == nil {
		return
	}

	lotIDs := make([]string, 0, len(movements))
	performedBy := ""
	for _, m := range movements {
		lotIDs = append(lotIDs, m.LotID)
		performedBy = m.PerformedBy
	}

	data := messaging.StockWithdrawnEvent{
		ItemID:      item.ID,
		ItemSKU:     item.SKU,
		Quantity:    quantity.String(),
		LotIDs:      lotIDs,
		PerformedBy: performedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockWithdrawn, data); err != nil {
		p.logger.Error().Err(err).Str("item_id", item.ID).Msg("failed to publish stock withdrawn event")
	}
}

// PublishStockEntered publishes a stock entered event
func (p *StockEventPublisher) PublishStockEntered(ctx context.Context, lot *repository.StockLot, performedBy string) {
	if p == nil {
		return
	}

	data := messaging.StockEnteredEvent{
		ItemID:      lot.ItemID,
		LotID:       lot.ID,
		LotNumber:   lot.LotNumber,
		Quantity:    lot.InitialQuantity.String(),
		ExpiryDate:  lot.ExpiryDate.Format("2006-01-02"),
		PerformedBy: performedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockEntered, data); err != nil {
		p.logger.Error().Err(err).Str("lot_id", lot.ID).Msg("failed to publish stock entered event")
	}
}

// PublishStockAdjusted publishes a stock adjusted event
func (p *StockEventPublisher) PublishStockAdjusted(ctx context.Context, lot *repository.StockLot, delta decimal.Decimal, note *string, performedBy string) {
	if p == nil {
		return
	}

	noteStr := ""
	if note != nil {
		noteStr = *note
	}

	data := messaging.StockAdjustedEvent{
		ItemID:      lot.ItemID,
		LotID:       lot.ID,
		Delta:       delta.String(),
		NewQuantity: lot.CurrentQuantity.String(),
		Note:        noteStr,
		PerformedBy: performedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockAdjusted, data); err != nil {
		p.logger.Error().Err(err).Str("lot_id", lot.ID).Msg("failed to publish stock adjusted event")
	}
}

// PublishStockDiscarded publishes a stock discarded event
func (p *StockEventPublisher) PublishStockDiscarded(ctx context.Context, lot *repository.StockLot, quantity decimal.Decimal, note *string, performedBy string) {
	if p == nil {
		return
	}

	noteStr := ""
	if note != nil {
		noteStr = *note
	}

	data := messaging.StockDiscardedEvent{
		ItemID:      lot.ItemID,
		LotID:       lot.ID,
		Quantity:    quantity.String(),
		Note:        noteStr,
		PerformedBy: performedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockDiscarded, data); err != nil {
		p.logger.Error().Err(err).Str("lot_id", lot.ID).Msg("failed to publish stock discarded event")
	}
}

// PublishRequisitionCreated publishes a requisition created event
func (p *StockEventPublisher) PublishRequisitionCreated(ctx context.Context, req *repository.Requisition) {
	if p == nil {
		return
	}

	data := messaging.RequisitionResolvedEvent{
		RequisitionID: req.ID,
		ItemID:        req.ItemID,
		Quantity:      req.Quantity.String(),
		Status:        string(req.Status),
		RequestedBy:   req.RequestedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventRequisitionCreated, data); err != nil {
		p.logger.Error().Err(err).Str("requisition_id", req.ID).Msg("failed to publish requisition created event")
	}
}

// PublishRequisitionResolved publishes an approved or rejected event
// depending on the requisition's terminal status.
func (p *StockEventPublisher) PublishRequisitionResolved(ctx context.Context, req *repository.Requisition) {
	if p == nil {
		return
	}

	resolvedBy := ""
	if req.ResolvedBy != nil {
		resolvedBy = *req.ResolvedBy
	}

	data := messaging.RequisitionResolvedEvent{
		RequisitionID: req.ID,
		ItemID:        req.ItemID,
		Quantity:      req.Quantity.String(),
		Status:        string(req.Status),
		RequestedBy:   req.RequestedBy,
		ResolvedBy:    resolvedBy,
	}

	eventType := messaging.EventRequisitionApproved
	if req.Status == domain.RequisitionRejected {
		eventType = messaging.EventRequisitionRejected
	}

	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Str("requisition_id", req.ID).Msg("failed to publish requisition resolved event")
	}
}
