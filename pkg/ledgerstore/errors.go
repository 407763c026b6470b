package ledgerstore

import "errors"

// ErrNotFound is returned by single-row lookups that find no row.
var ErrNotFound = errors.New("ledgerstore: not found")

// ErrUnbalancedPostings is returned by InsertTransactionBundle when
// the supplied postings do not sum to exactly zero.
var ErrUnbalancedPostings = errors.New("ledgerstore: postings do not sum to zero")

// ErrCurrencyMismatch is returned when a bundle's postings do not all
// share the same currency.
var ErrCurrencyMismatch = errors.New("ledgerstore: currency mismatch")

// ErrAccountNotFound is returned when a posting or account references
// an account that does not exist.
var ErrAccountNotFound = errors.New("ledgerstore: referenced account does not exist")

// ErrDuplicateKey is returned by InsertTransactionBundle when
// (source_system, external_id) already exists — the caller is
// responsible for invoking the idempotency resolver instead of
// treating this as a hard failure.
var ErrDuplicateKey = errors.New("ledgerstore: duplicate (source_system, external_id)")

// AccountCycleError is returned when an account's parent chain would
// form a cycle.
type AccountCycleError struct {
	AccountID string
}

func (e *AccountCycleError) Error() string {
	return "ledgerstore: account " + e.AccountID + " would create a parent cycle"
}

// DuplicateAccountCodeError is returned when an account code is
// already used within the database.
type DuplicateAccountCodeError struct {
	Code string
}

func (e *DuplicateAccountCodeError) Error() string {
	return "ledgerstore: account code " + e.Code + " already exists"
}

// AppendOnlyViolationError is returned when a caller attempts to
// mutate an immutable column on an append-only table.
type AppendOnlyViolationError struct {
	Table  string
	Column string
}

func (e *AppendOnlyViolationError) Error() string {
	return "ledgerstore: " + e.Table + "." + e.Column + " is immutable"
}
