package messaging

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types
const (
	// Stock events
	EventStockWithdrawn = "stock.withdrawn"
	EventStockEntered   = "stock.entered"
	EventStockAdjusted  = "stock.adjusted"
	EventStockDiscarded = "stock.discarded"

	// Requisition events
	EventRequisitionCreated  = "requisition.created"
	EventRequisitionApproved = "requisition.approved"
	EventRequisitionRejected = "requisition.rejected"
)

// Exchange names
const (
	ExchangeStockEvents = "stock.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// StockWithdrawnEvent is published after a FEFO withdrawal commits.
// Quantities are decimal strings to avoid float drift in consumers.
type StockWithdrawnEvent struct {
	ItemID      string   `json:"item_id"`
	ItemSKU     string   `json:"item_sku"`
	Quantity    string   `json:"quantity"`
	LotIDs      []string `json:"lot_ids"`
	PerformedBy string   `json:"performed_by"`
}

// StockEnteredEvent is published when a new lot is received into stock
type StockEnteredEvent struct {
	ItemID      string `json:"item_id"`
	LotID       string `json:"lot_id"`
	LotNumber   string `json:"lot_number"`
	Quantity    string `json:"quantity"`
	ExpiryDate  string `json:"expiry_date"`
	PerformedBy string `json:"performed_by"`
}

// StockAdjustedEvent is published when a lot quantity is manually adjusted
type StockAdjustedEvent struct {
	ItemID      string `json:"item_id"`
	LotID       string `json:"lot_id"`
	Delta       string `json:"delta"`
	NewQuantity string `json:"new_quantity"`
	Note        string `json:"note,omitempty"`
	PerformedBy string `json:"performed_by"`
}

// StockDiscardedEvent is published when stock is discarded from a lot
type StockDiscardedEvent struct {
	ItemID      string `json:"item_id"`
	LotID       string `json:"lot_id"`
	Quantity    string `json:"quantity"`
	Note        string `json:"note,omitempty"`
	PerformedBy string `json:"performed_by"`
}

// RequisitionResolvedEvent is published when a requisition is approved or rejected
type RequisitionResolvedEvent struct {
	RequisitionID string `json:"requisition_id"`
	ItemID        string `json:"item_id"`
	Quantity      string `json:"quantity"`
	Status        string `json:"status"`
	RequestedBy   string `json:"requested_by"`
	ResolvedBy    string `json:"resolved_by"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), time.Now().Nanosecond()%10000)
}
