// Package period implements the accounting period lifecycle:
// open -> closed -> locked, monotonic, with locked terminal from a
// mutation standpoint. It gates ledger writes that land in a
// non-open period and tracks the override/adjusting-entry exceptions
// that force approval.
package period

import "time"

// Status is the fixed enumeration a period's status must belong to.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
	StatusLocked Status = "locked"
)

// Period is one Accounting Period row.
type Period struct {
	PeriodID  string
	PeriodKey string // YYYY-MM
	EntityID  string
	Status    Status
	ActorID   *string
	ClosedAt  *time.Time
	LockedAt  *time.Time
}

// WriteConstraintPayload is the subset of a pending ledger write that
// the period engine needs to decide whether the write may proceed and
// whether it forces approval.
type WriteConstraintPayload struct {
	EntityID           string
	TransactionDate    time.Time
	IsAdjustingEntry   bool
	OverridePeriodLock bool
}

// DerivePeriodKey returns the UTC year-month key (YYYY-MM) for t.
func DerivePeriodKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// ErrPeriodClosedRequiresAdjustingEntry is returned when a non-adjusting
// write targets a closed period.
type ErrPeriodClosedRequiresAdjustingEntry struct {
	PeriodKey string
	EntityID  string
}

func (e *ErrPeriodClosedRequiresAdjustingEntry) Error() string {
	return "period_closed_requires_adjusting_entry: " + e.PeriodKey + "/" + e.EntityID
}

func (e *ErrPeriodClosedRequiresAdjustingEntry) Code() string {
	return "period_closed_requires_adjusting_entry"
}

// ErrPeriodLocked is returned when a write targets a locked period
// without an explicit override.
type ErrPeriodLocked struct {
	PeriodKey string
	EntityID  string
}

func (e *ErrPeriodLocked) Error() string {
	return "period_locked: " + e.PeriodKey + "/" + e.EntityID
}

func (e *ErrPeriodLocked) Code() string {
	return "period_locked"
}
