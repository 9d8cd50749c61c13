package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/labstock/labstock-backend/pkg/errors"
)

// LotStock is the planner's view of a stock lot: just enough to order
// candidates and take quantity from them.
type LotStock struct {
	ID         string
	LotNumber  string
	ExpiryDate time.Time
	Current    decimal.Decimal
}

// Allocation is one line of a withdrawal plan: draw Quantity from the lot.
type Allocation struct {
	LotID     string
	LotNumber string
	Quantity  decimal.Decimal
}

// PlanWithdrawal selects lots to cover a withdrawal using FEFO
// (First-Expire, First-Out): candidates are consumed in ascending expiry
// order, ties broken by lot number so the plan is deterministic. Lots with no
// remaining quantity are skipped entirely.
//
// The function is pure: it never mutates its inputs and performs no I/O, so
// the apply step can re-run it against freshly locked rows.
//
// A non-positive quantity is rejected as a bad request; asking to withdraw
// nothing is a caller bug, not a no-op. A shortfall fails with
// InsufficientStock carrying the requested and available totals.
func PlanWithdrawal(itemName string, lots []LotStock, quantity decimal.Decimal) ([]Allocation, error) {
	if quantity.Sign() <= 0 {
		return nil, errors.BadRequest("withdrawal quantity must be greater than zero")
	}

	candidates := make([]LotStock, 0, len(lots))
	for _, lot := range lots {
		if lot.Current.Sign() > 0 {
			candidates = append(candidates, lot)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].ExpiryDate.Equal(candidates[j].ExpiryDate) {
			return candidates[i].ExpiryDate.Before(candidates[j].ExpiryDate)
		}
		return candidates[i].LotNumber < candidates[j].LotNumber
	})

	plan := make([]Allocation, 0, len(candidates))
	remaining := quantity

	for _, lot := range candidates {
		if remaining.Sign() <= 0 {
			break
		}

		take := decimal.Min(remaining, lot.Current)
		plan = append(plan, Allocation{
			LotID:     lot.ID,
			LotNumber: lot.LotNumber,
			Quantity:  take,
		})
		remaining = remaining.Sub(take)
	}

	if remaining.Sign() > 0 {
		return nil, errors.InsufficientStock(itemName, quantity, quantity.Sub(remaining))
	}

	return plan, nil
}

// PlanTotal returns the summed quantity of a plan. On a successful plan this
// equals the requested quantity.
func PlanTotal(plan []Allocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range plan {
		total = total.Add(a.Quantity)
	}
	return total
}
