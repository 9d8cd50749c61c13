package domain

import (
	"fmt"

	"github.com/labstock/labstock-backend/pkg/errors"
)

// RequisitionStatus is the state of a requisition. Pending is the only
// non-terminal state; Approved and Rejected admit no further transitions.
type RequisitionStatus string

const (
	RequisitionPending  RequisitionStatus = "pending"
	RequisitionApproved RequisitionStatus = "approved"
	RequisitionRejected RequisitionStatus = "rejected"
)

// Valid reports whether s is a known requisition status.
func (s RequisitionStatus) Valid() bool {
	switch s {
	case RequisitionPending, RequisitionApproved, RequisitionRejected:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s RequisitionStatus) Terminal() bool {
	return s == RequisitionApproved || s == RequisitionRejected
}

// EnsurePending guards the approve/reject transitions: both are only legal
// from Pending.
func (s RequisitionStatus) EnsurePending() error {
	if s != RequisitionPending {
		return errors.InvalidState(fmt.Sprintf("requisition is %s, not pending", s))
	}
	return nil
}
