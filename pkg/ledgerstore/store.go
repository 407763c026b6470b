package ledgerstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ChrisPatten/capital-os/pkg/canonicalize"
	"github.com/ChrisPatten/capital-os/pkg/money"
)

// Store is the single owner of the ledger's tables. Every write
// method either opens its own transaction or, where the caller needs
// to extend the transaction (e.g. the approval package committing a
// proposal), accepts a *sql.Tx directly.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Init creates the schema. Safe to call on every process start — all
// statements are idempotent (CREATE TABLE IF NOT EXISTS, CREATE OR
// REPLACE FUNCTION, DROP TRIGGER IF EXISTS).
func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// CreateAccount inserts a new account after checking that its
// parent_account_id (if any) exists and that linking to it would not
// create a cycle — "parent links form a DAG; cycles are
// forbidden and enforced on insert/update", ported from
// domain/accounts/service.py's ancestor walk.
func (s *Store) CreateAccount(ctx context.Context, a Account) error {
	if a.AccountID == "" {
		a.AccountID = uuid.New().String()
	}

	if a.ParentAccountID != nil {
		ancestors, err := s.accountAncestors(ctx, *a.ParentAccountID)
		if err != nil {
			return err
		}
		for _, ancestor := range ancestors {
			if ancestor == a.AccountID {
				return &AccountCycleError{AccountID: a.AccountID}
			}
		}
	}

	metaJSON, err := marshalMetadata(a.Metadata)
	if err != nil {
		return err
	}

	const insert = `
		INSERT INTO accounts (account_id, code, name, account_type, parent_account_id, entity_id, metadata)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`
	_, err = s.db.ExecContext(ctx, insert, a.AccountID, a.Code, a.Name, a.AccountType, a.ParentAccountID, a.EntityID, metaJSON)
	if isUniqueViolation(err, "accounts_code_key") {
		return &DuplicateAccountCodeError{Code: a.Code}
	}
	if isForeignKeyViolation(err) {
		return ErrAccountNotFound
	}
	return err
}

// accountAncestors walks parent_account_id links upward from
// accountID, returning every ancestor's id. Used both to detect
// cycles before insert and to validate an account's existence.
func (s *Store) accountAncestors(ctx context.Context, accountID string) ([]string, error) {
	const walk = `
		WITH RECURSIVE ancestors AS (
			SELECT account_id, parent_account_id FROM accounts WHERE account_id = $1
			UNION ALL
			SELECT a.account_id, a.parent_account_id
			FROM accounts a
			JOIN ancestors anc ON a.account_id = anc.parent_account_id
		)
		SELECT account_id FROM ancestors
	`
	rows, err := s.db.QueryContext(ctx, walk, accountID)
	if err != nil {
		return nil, fmt.Errorf("ledgerstore: walk ancestors: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateAccountMetadata merges new metadata fields into an existing
// account. It does not permit account_type or parent changes through
// this path — those require a dedicated operation, never exposed in
// this system's tool set.
func (s *Store) UpdateAccountMetadata(ctx context.Context, accountID string, metadata map[string]any) error {
	metaJSON, err := marshalMetadata(metadata)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE accounts SET metadata = $1 WHERE account_id = $2`, metaJSON, accountID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// InsertTransactionBundle validates and writes a balanced transaction
// and its postings in one transaction. Postings are
// reordered into canonical (account_id, amount-as-string, memo) order
// before insert so replays produce byte-identical payloads.
func (s *Store) InsertTransactionBundle(ctx context.Context, bundle TransactionBundle) (transactionID string, postingIDs []string, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", nil, err
	}
	defer func() { _ = tx.Rollback() }()

	transactionID, postingIDs, err = s.InsertTransactionBundleTx(ctx, tx, bundle)
	if err != nil {
		return "", nil, err
	}
	if err := tx.Commit(); err != nil {
		return "", nil, err
	}
	return transactionID, postingIDs, nil
}

// InsertTransactionBundleTx is InsertTransactionBundle's tx-scoped
// form, used by the approval package's commit path so the decision
// insert, the transaction+postings insert, the response save, and the
// event log append all land in one database transaction.
func (s *Store) InsertTransactionBundleTx(ctx context.Context, tx *sql.Tx, bundle TransactionBundle) (transactionID string, postingIDs []string, err error) {
	if err := validateBundle(bundle); err != nil {
		return "", nil, err
	}

	for _, p := range bundle.Postings {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE account_id = $1)`, p.AccountID).Scan(&exists); err != nil {
			return "", nil, err
		}
		if !exists {
			return "", nil, ErrAccountNotFound
		}
	}

	transactionID = uuid.New().String()
	const insertTxn = `
		INSERT INTO ledger_transactions
			(transaction_id, source_system, external_id, transaction_date, description,
			 correlation_id, input_hash, entity_id, is_adjusting_entry, adjusting_reason_code)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`
	_, err = tx.ExecContext(ctx, insertTxn,
		transactionID, bundle.SourceSystem, bundle.ExternalID, bundle.TransactionDate.Time, bundle.Description,
		bundle.CorrelationID, bundle.InputHash, bundle.EntityID, bundle.IsAdjustingEntry, bundle.AdjustingReasonCode,
	)
	if isUniqueViolation(err, "ledger_transactions_source_system_external_id_key") {
		return "", nil, ErrDuplicateKey
	}
	if err != nil {
		return "", nil, err
	}

	ordered := canonicalPostingOrder(bundle.Postings)
	postingIDs = make([]string, 0, len(ordered))
	const insertPosting = `
		INSERT INTO ledger_postings (posting_id, transaction_id, account_id, amount, currency, memo)
		VALUES ($1,$2,$3,$4,$5,$6)
	`
	for _, p := range ordered {
		postingID := uuid.New().String()
		if _, err := tx.ExecContext(ctx, insertPosting, postingID, transactionID, p.AccountID, p.Amount.String(), p.Currency, p.Memo); err != nil {
			return "", nil, err
		}
		postingIDs = append(postingIDs, postingID)
	}

	return transactionID, postingIDs, nil
}

// validateBundle enforces the balanced-postings and single-currency
// invariants before any row is written.
func validateBundle(bundle TransactionBundle) error {
	if len(bundle.Postings) == 0 {
		return fmt.Errorf("%w: empty posting set", ErrUnbalancedPostings)
	}
	amounts := make([]money.Amount, 0, len(bundle.Postings))
	currency := bundle.Postings[0].Currency
	for _, p := range bundle.Postings {
		if p.Currency != currency {
			return ErrCurrencyMismatch
		}
		amounts = append(amounts, p.Amount)
	}
	if !money.Sum(amounts).IsZero() {
		return ErrUnbalancedPostings
	}
	return nil
}

// canonicalPostingOrder sorts postings by (account_id, amount-as-string, memo).
func canonicalPostingOrder(postings []PostingInput) []PostingInput {
	ordered := make([]PostingInput, len(postings))
	copy(ordered, postings)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].AccountID != ordered[j].AccountID {
			return ordered[i].AccountID < ordered[j].AccountID
		}
		if ordered[i].Amount.String() != ordered[j].Amount.String() {
			return ordered[i].Amount.String() < ordered[j].Amount.String()
		}
		return memoValue(ordered[i].Memo) < memoValue(ordered[j].Memo)
	})
	return ordered
}

func memoValue(m *string) string {
	if m == nil {
		return ""
	}
	return *m
}

// SaveTransactionResponse persists the canonical response payload and
// its hash on an already-inserted transaction. The append-only
// trigger permits exactly one NULL→value transition per column.
func (s *Store) SaveTransactionResponse(ctx context.Context, tx *sql.Tx, transactionID, responsePayload, outputHash string) error {
	exec := s.execer(tx)
	const update = `
		UPDATE ledger_transactions
		SET response_payload = $1, output_hash = $2
		WHERE transaction_id = $3 AND response_payload IS NULL
	`
	res, err := exec.ExecContext(ctx, update, responsePayload, outputHash, transactionID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return &AppendOnlyViolationError{Table: "ledger_transactions", Column: "response_payload"}
	}
	return nil
}

// UpsertBalanceSnapshot inserts or replaces the snapshot for
// (account_id, snapshot_date) — the snapshot's natural key.
func (s *Store) UpsertBalanceSnapshot(ctx context.Context, snap BalanceSnapshot) (string, error) {
	if snap.SnapshotID == "" {
		snap.SnapshotID = uuid.New().String()
	}
	const upsert = `
		INSERT INTO balance_snapshots (snapshot_id, account_id, snapshot_date, source_system, balance, currency, source_artifact_id, entity_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (account_id, snapshot_date) DO UPDATE SET
			source_system = EXCLUDED.source_system,
			balance = EXCLUDED.balance,
			currency = EXCLUDED.currency,
			source_artifact_id = EXCLUDED.source_artifact_id,
			entity_id = EXCLUDED.entity_id
		RETURNING snapshot_id
	`
	var id string
	err := s.db.QueryRowContext(ctx, upsert,
		snap.SnapshotID, snap.AccountID, snap.SnapshotDate.Time, snap.SourceSystem, snap.Balance.String(), snap.Currency, snap.SourceArtifactID, snap.EntityID,
	).Scan(&id)
	return id, err
}

// UpsertObligation inserts or replaces the obligation for
// (source_system, name, account_id).
func (s *Store) UpsertObligation(ctx context.Context, o Obligation) (string, error) {
	if o.ObligationID == "" {
		o.ObligationID = uuid.New().String()
	}
	metaJSON, err := marshalMetadata(o.Metadata)
	if err != nil {
		return "", err
	}
	const upsert = `
		INSERT INTO obligations (obligation_id, source_system, name, account_id, cadence, expected_amount, variability_flag, next_due_date, metadata, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (source_system, name, account_id) DO UPDATE SET
			cadence = EXCLUDED.cadence,
			expected_amount = EXCLUDED.expected_amount,
			variability_flag = EXCLUDED.variability_flag,
			next_due_date = EXCLUDED.next_due_date,
			metadata = EXCLUDED.metadata,
			active = EXCLUDED.active
		RETURNING obligation_id
	`
	var id string
	err = s.db.QueryRowContext(ctx, upsert,
		o.ObligationID, o.SourceSystem, o.Name, o.AccountID, o.Cadence, o.ExpectedAmount.String(), o.VariabilityFlag, o.NextDueDate.Time, metaJSON, o.Active,
	).Scan(&id)
	return id, err
}

// FulfillObligation links an obligation to the transaction that
// satisfied it.
func (s *Store) FulfillObligation(ctx context.Context, obligationID string, fulfilledByTransactionID *string, fulfilledAt *canonicalize.Timestamp) error {
	const update = `
		UPDATE obligations SET fulfilled_by_transaction_id = $1, fulfilled_at = $2 WHERE obligation_id = $3
	`
	var fulfilledAtValue any
	if fulfilledAt != nil {
		fulfilledAtValue = fulfilledAt.Time
	}
	res, err := s.db.ExecContext(ctx, update, fulfilledByTransactionID, fulfilledAtValue, obligationID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// execer lets write methods that need to participate in a
// caller-owned transaction (the approval package committing a
// proposal) share it, while standalone calls use the store's pool.
func (s *Store) execer(tx *sql.Tx) interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
} {
	if tx != nil {
		return tx
	}
	return s.db
}

func marshalMetadata(m map[string]any) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("ledgerstore: marshal metadata: %w", err)
	}
	return b, nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && (constraint == "" || strings.Contains(pqErr.Constraint, constraint))
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	return false
}
