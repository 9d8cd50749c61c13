package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CategoryFixture represents test category data
type CategoryFixture struct {
	ID   string
	Name string
}

// SupplierFixture represents test supplier data
type SupplierFixture struct {
	ID    string
	Name  string
	Email string
}

// LocationFixture represents test storage location data
type LocationFixture struct {
	ID   string
	Name string
}

// ItemFixture represents test inventory item data
type ItemFixture struct {
	ID           string
	SKU          string
	Name         string
	Unit         string
	MinimumStock decimal.Decimal
	CategoryID   *string
	SupplierID   *string
}

// LotFixture represents test stock lot data
type LotFixture struct {
	ID              string
	ItemID          string
	LotNumber       string
	LocationID      *string
	ExpiryDate      time.Time
	UnitCost        decimal.Decimal
	InitialQuantity decimal.Decimal
	CurrentQuantity decimal.Decimal
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Category creates a category fixture with defaults
func (f *FixtureFactory) Category(opts ...func(*CategoryFixture)) CategoryFixture {
	seq := f.nextSeq()
	c := CategoryFixture{
		ID:   uuid.New().String(),
		Name: fmt.Sprintf("Category %d", seq),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Supplier creates a supplier fixture with defaults
func (f *FixtureFactory) Supplier(opts ...func(*SupplierFixture)) SupplierFixture {
	seq := f.nextSeq()
	s := SupplierFixture{
		ID:    uuid.New().String(),
		Name:  fmt.Sprintf("Supplier %d", seq),
		Email: fmt.Sprintf("orders%d@supplier.test", seq),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Location creates a storage location fixture with defaults
func (f *FixtureFactory) Location(opts ...func(*LocationFixture)) LocationFixture {
	seq := f.nextSeq()
	l := LocationFixture{
		ID:   uuid.New().String(),
		Name: fmt.Sprintf("Shelf %d", seq),
	}
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

// Item creates an item fixture with defaults
func (f *FixtureFactory) Item(opts ...func(*ItemFixture)) ItemFixture {
	seq := f.nextSeq()
	item := ItemFixture{
		ID:           uuid.New().String(),
		SKU:          fmt.Sprintf("SKU-%04d", seq),
		Name:         fmt.Sprintf("Reagent %d", seq),
		Unit:         "mL",
		MinimumStock: decimal.NewFromInt(10),
	}
	for _, opt := range opts {
		opt(&item)
	}
	return item
}

// Lot creates a stock lot fixture with defaults. Pass the owning item's ID.
func (f *FixtureFactory) Lot(itemID string, opts ...func(*LotFixture)) LotFixture {
	seq := f.nextSeq()
	qty := decimal.NewFromInt(100)
	lot := LotFixture{
		ID:              uuid.New().String(),
		ItemID:          itemID,
		LotNumber:       fmt.Sprintf("LOT-%04d", seq),
		ExpiryDate:      time.Now().AddDate(1, 0, 0),
		UnitCost:        decimal.RequireFromString("2.50"),
		InitialQuantity: qty,
		CurrentQuantity: qty,
	}
	for _, opt := range opts {
		opt(&lot)
	}
	return lot
}
