// Package domain holds the pure business rules of the stock engine:
// movement kinds, the FEFO allocation planner, and the requisition state
// machine. Nothing in this package touches the database.
package domain

// MovementKind discriminates the four kinds of quantity change recorded in
// the movement ledger. The kind is chosen explicitly by the caller at the API
// boundary; nothing in the write path infers it from payload shape.
type MovementKind string

const (
	// MovementEntry records stock received into a lot (positive quantity).
	MovementEntry MovementKind = "entry"

	// MovementWithdrawal records stock drawn from a lot by the FEFO
	// allocator (positive quantity, decrements the lot).
	MovementWithdrawal MovementKind = "withdrawal"

	// MovementAdjustment records a manual correction. The quantity is
	// signed: negative adjustments count toward waste/loss reporting.
	MovementAdjustment MovementKind = "adjustment"

	// MovementDiscard records stock disposed of (positive quantity,
	// decrements the lot).
	MovementDiscard MovementKind = "discard"
)

// Valid reports whether k is a known movement kind.
func (k MovementKind) Valid() bool {
	switch k {
	case MovementEntry, MovementWithdrawal, MovementAdjustment, MovementDiscard:
		return true
	}
	return false
}
