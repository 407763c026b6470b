package period

import (
	"context"
	"database/sql"
	"time"
)

// EnforcePeriodWriteConstraints derives the period for payload and
// decides whether the pending write may proceed, and whether it must
// force approval regardless of the policy engine's own threshold
// decision.
func (s *Store) EnforcePeriodWriteConstraints(ctx context.Context, tx *sql.Tx, payload WriteConstraintPayload) (forceApproval bool, err error) {
	periodKey := DerivePeriodKey(payload.TransactionDate)
	p, err := s.GetPeriod(ctx, tx, periodKey, payload.EntityID)
	if err != nil {
		return false, err
	}

	switch p.Status {
	case StatusOpen:
		return false, nil
	case StatusClosed:
		if !payload.IsAdjustingEntry {
			return false, &ErrPeriodClosedRequiresAdjustingEntry{PeriodKey: periodKey, EntityID: payload.EntityID}
		}
		return true, nil
	case StatusLocked:
		if !payload.OverridePeriodLock {
			return false, &ErrPeriodLocked{PeriodKey: periodKey, EntityID: payload.EntityID}
		}
		return true, nil
	default:
		return false, nil
	}
}

// CloseResult is the idempotent outcome of ClosePeriod/LockPeriod.
type CloseResult string

const (
	ResultClosed        CloseResult = "closed"
	ResultAlreadyClosed CloseResult = "already_closed"
	ResultLocked        CloseResult = "locked"
	ResultAlreadyLocked CloseResult = "already_locked"
)

// ClosePeriod transitions a period to closed. Idempotent: closing an
// already-closed period returns already_closed; closing a locked
// period returns already_locked without regressing its status (locked
// is terminal from a mutation standpoint).
func (s *Store) ClosePeriod(ctx context.Context, periodKey, entityID, actorID string, at time.Time) (CloseResult, Period, error) {
	current, err := s.GetPeriod(ctx, nil, periodKey, entityID)
	if err != nil {
		return "", Period{}, err
	}
	switch current.Status {
	case StatusClosed:
		return ResultAlreadyClosed, current, nil
	case StatusLocked:
		return ResultAlreadyLocked, current, nil
	}

	p, err := s.upsertStatus(ctx, periodKey, entityID, actorID, StatusClosed, "closed_at", at)
	if err != nil {
		return "", Period{}, err
	}
	return ResultClosed, p, nil
}

// LockPeriod transitions a period to locked. Idempotent: locking an
// already-locked period returns already_locked.
func (s *Store) LockPeriod(ctx context.Context, periodKey, entityID, actorID string, at time.Time) (CloseResult, Period, error) {
	current, err := s.GetPeriod(ctx, nil, periodKey, entityID)
	if err != nil {
		return "", Period{}, err
	}
	if current.Status == StatusLocked {
		return ResultAlreadyLocked, current, nil
	}

	p, err := s.upsertStatus(ctx, periodKey, entityID, actorID, StatusLocked, "locked_at", at)
	if err != nil {
		return "", Period{}, err
	}
	return ResultLocked, p, nil
}
