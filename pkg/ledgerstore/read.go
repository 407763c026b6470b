package ledgerstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/ChrisPatten/capital-os/pkg/canonicalize"
	"github.com/ChrisPatten/capital-os/pkg/money"
)

// AccountPageRow is one row of ListAccountsPage, ordered per the
// §4.8: (code asc, account_id asc).
type AccountPageRow struct {
	Account
}

// ListAccountsPage fetches up to limit+1 accounts ordered by
// (code, account_id), starting strictly after (afterCode, afterID)
// when both are non-empty — the pkg/query cursor layer supplies those
// from a decoded cursor.
func (s *Store) ListAccountsPage(ctx context.Context, afterCode, afterID string, limit int) ([]Account, error) {
	const q = `
		SELECT account_id, code, name, account_type, parent_account_id, entity_id, metadata
		FROM accounts
		WHERE ($1 = '' AND $2 = '') OR (code, account_id) > ($1, $2)
		ORDER BY code ASC, account_id ASC
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, q, afterCode, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		var a Account
		var parent sql.NullString
		var metaRaw []byte
		if err := rows.Scan(&a.AccountID, &a.Code, &a.Name, &a.AccountType, &parent, &a.EntityID, &metaRaw); err != nil {
			return nil, err
		}
		if parent.Valid {
			v := parent.String
			a.ParentAccountID = &v
		}
		if len(metaRaw) > 0 {
			if err := json.Unmarshal(metaRaw, &a.Metadata); err != nil {
				return nil, err
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// FetchAccountTreeRows fetches every account in rootAccountID's
// subtree, ordered by (code, account_id). The caller
// (pkg/query) links children to parents and determines roots as
// "rows whose parent is missing from the fetch."
func (s *Store) FetchAccountTreeRows(ctx context.Context, rootAccountID string) ([]Account, error) {
	const q = `
		WITH RECURSIVE subtree AS (
			SELECT account_id, code, name, account_type, parent_account_id, entity_id, metadata
			FROM accounts WHERE account_id = $1
			UNION ALL
			SELECT a.account_id, a.code, a.name, a.account_type, a.parent_account_id, a.entity_id, a.metadata
			FROM accounts a
			JOIN subtree s ON a.parent_account_id = s.account_id
		)
		SELECT account_id, code, name, account_type, parent_account_id, entity_id, metadata
		FROM subtree
		ORDER BY code ASC, account_id ASC
	`
	rows, err := s.db.QueryContext(ctx, q, rootAccountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		var a Account
		var parent sql.NullString
		var metaRaw []byte
		if err := rows.Scan(&a.AccountID, &a.Code, &a.Name, &a.AccountType, &parent, &a.EntityID, &metaRaw); err != nil {
			return nil, err
		}
		if parent.Valid {
			v := parent.String
			a.ParentAccountID = &v
		}
		if len(metaRaw) > 0 {
			if err := json.Unmarshal(metaRaw, &a.Metadata); err != nil {
				return nil, err
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AccountBalanceRow is the per-account output of
// FetchAccountBalancesAsOf: the ledger-derived balance and the most
// recent snapshot balance as of a date, before source-policy
// selection (pkg/query applies the policy).
type AccountBalanceRow struct {
	AccountID       string
	LedgerBalance   money.Amount
	HasSnapshot     bool
	SnapshotBalance money.Amount
}

// FetchAccountBalancesAsOf computes, for each account in accountIDs,
// the signed sum of postings with transaction_date <= asOf
// (ledger_balance) and the latest snapshot with snapshot_date <= asOf
// (snapshot_balance).
func (s *Store) FetchAccountBalancesAsOf(ctx context.Context, accountIDs []string, asOf time.Time) ([]AccountBalanceRow, error) {
	// The ledger sum is accumulated in Go from the raw posting rows
	// rather than summed with a database-side numeric aggregate,
	// since it must be exact integer arithmetic on the scale-4
	// string representation, not floating-point SQL SUM.
	ledgerRows, err := s.db.QueryContext(ctx, `
		SELECT p.account_id, p.amount
		FROM ledger_postings p
		JOIN ledger_transactions t ON t.transaction_id = p.transaction_id
		WHERE t.transaction_date <= $2 AND p.account_id = ANY($1)
	`, pq.Array(accountIDs), asOf)
	if err != nil {
		return nil, err
	}
	sums := make(map[string][]money.Amount, len(accountIDs))
	for ledgerRows.Next() {
		var accountID, amountStr string
		if err := ledgerRows.Scan(&accountID, &amountStr); err != nil {
			ledgerRows.Close()
			return nil, err
		}
		amt, err := money.Parse(amountStr)
		if err != nil {
			ledgerRows.Close()
			return nil, err
		}
		sums[accountID] = append(sums[accountID], amt)
	}
	if err := ledgerRows.Err(); err != nil {
		return nil, err
	}
	ledgerRows.Close()

	snapRows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT ON (account_id) account_id, balance
		FROM balance_snapshots
		WHERE snapshot_date <= $2 AND account_id = ANY($1)
		ORDER BY account_id, snapshot_date DESC
	`, pq.Array(accountIDs), asOf)
	if err != nil {
		return nil, err
	}
	defer snapRows.Close()

	snapshots := make(map[string]money.Amount, len(accountIDs))
	for snapRows.Next() {
		var accountID, balanceStr string
		if err := snapRows.Scan(&accountID, &balanceStr); err != nil {
			return nil, err
		}
		amt, err := money.Parse(balanceStr)
		if err != nil {
			return nil, err
		}
		snapshots[accountID] = amt
	}
	if err := snapRows.Err(); err != nil {
		return nil, err
	}

	out := make([]AccountBalanceRow, 0, len(accountIDs))
	for _, accountID := range accountIDs {
		row := AccountBalanceRow{
			AccountID:     accountID,
			LedgerBalance: money.Sum(sums[accountID]),
		}
		if snap, ok := snapshots[accountID]; ok {
			row.HasSnapshot = true
			row.SnapshotBalance = snap
		}
		out = append(out, row)
	}
	return out, nil
}

// ListTransactionsPage fetches transactions ordered by
// (transaction_date desc, transaction_id asc).
func (s *Store) ListTransactionsPage(ctx context.Context, afterDate time.Time, afterID string, hasAfter bool, limit int) ([]Transaction, error) {
	const q = `
		SELECT transaction_id, source_system, external_id, transaction_date, description,
			correlation_id, input_hash, entity_id, is_adjusting_entry, adjusting_reason_code,
			response_payload, output_hash
		FROM ledger_transactions
		WHERE $3 = false OR (transaction_date, transaction_id) < ($1, $2)
		ORDER BY transaction_date DESC, transaction_id ASC
		LIMIT $4
	`
	rows, err := s.db.QueryContext(ctx, q, afterDate, afterID, !hasAfter, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// FetchTransactionWithPostingsByExternalID looks up a transaction (and
// its postings) by its natural key, used by the idempotency resolver
// and by reconciliation lookups.
func (s *Store) FetchTransactionWithPostingsByExternalID(ctx context.Context, sourceSystem, externalID string) (Transaction, []Posting, error) {
	const q = `
		SELECT transaction_id, source_system, external_id, transaction_date, description,
			correlation_id, input_hash, entity_id, is_adjusting_entry, adjusting_reason_code,
			response_payload, output_hash
		FROM ledger_transactions WHERE source_system = $1 AND external_id = $2
	`
	row := s.db.QueryRowContext(ctx, q, sourceSystem, externalID)
	txn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Transaction{}, nil, ErrNotFound
		}
		return Transaction{}, nil, err
	}

	postingRows, err := s.db.QueryContext(ctx, `
		SELECT posting_id, transaction_id, account_id, amount, currency, memo
		FROM ledger_postings WHERE transaction_id = $1
		ORDER BY account_id ASC, amount ASC, COALESCE(memo, '') ASC
	`, txn.TransactionID)
	if err != nil {
		return Transaction{}, nil, err
	}
	defer postingRows.Close()

	var postings []Posting
	for postingRows.Next() {
		var p Posting
		var amountStr string
		var memo sql.NullString
		if err := postingRows.Scan(&p.PostingID, &p.TransactionID, &p.AccountID, &amountStr, &p.Currency, &memo); err != nil {
			return Transaction{}, nil, err
		}
		amt, err := money.Parse(amountStr)
		if err != nil {
			return Transaction{}, nil, err
		}
		p.Amount = amt
		if memo.Valid {
			v := memo.String
			p.Memo = &v
		}
		postings = append(postings, p)
	}
	return txn, postings, postingRows.Err()
}

// ListObligationsPage fetches obligations ordered by
// (next_due_date asc, obligation_id asc).
func (s *Store) ListObligationsPage(ctx context.Context, afterDueDate time.Time, afterID string, hasAfter bool, limit int) ([]Obligation, error) {
	const q = `
		SELECT obligation_id, source_system, name, account_id, cadence, expected_amount,
			variability_flag, next_due_date, metadata, active, fulfilled_by_transaction_id, fulfilled_at
		FROM obligations
		WHERE $3 = false OR (next_due_date, obligation_id) > ($1, $2)
		ORDER BY next_due_date ASC, obligation_id ASC
		LIMIT $4
	`
	rows, err := s.db.QueryContext(ctx, q, afterDueDate, afterID, !hasAfter, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Obligation
	for rows.Next() {
		var o Obligation
		var expectedStr string
		var metaRaw []byte
		var fulfilledBy sql.NullString
		var fulfilledAt sql.NullTime
		if err := rows.Scan(&o.ObligationID, &o.SourceSystem, &o.Name, &o.AccountID, &o.Cadence, &expectedStr,
			&o.VariabilityFlag, &o.NextDueDate.Time, &metaRaw, &o.Active, &fulfilledBy, &fulfilledAt); err != nil {
			return nil, err
		}
		amt, err := money.Parse(expectedStr)
		if err != nil {
			return nil, err
		}
		o.ExpectedAmount = amt
		if len(metaRaw) > 0 {
			if err := json.Unmarshal(metaRaw, &o.Metadata); err != nil {
				return nil, err
			}
		}
		if fulfilledBy.Valid {
			v := fulfilledBy.String
			o.FulfilledByTransactionID = &v
		}
		if fulfilledAt.Valid {
			ts := canonicalize.NewTimestamp(fulfilledAt.Time)
			o.FulfilledAt = &ts
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (Transaction, error) {
	var t Transaction
	var adjustingReason, responsePayload, outputHash sql.NullString
	err := row.Scan(&t.TransactionID, &t.SourceSystem, &t.ExternalID, &t.TransactionDate.Time, &t.Description,
		&t.CorrelationID, &t.InputHash, &t.EntityID, &t.IsAdjustingEntry, &adjustingReason,
		&responsePayload, &outputHash)
	if err != nil {
		return Transaction{}, err
	}
	if adjustingReason.Valid {
		v := adjustingReason.String
		t.AdjustingReasonCode = &v
	}
	if responsePayload.Valid {
		v := responsePayload.String
		t.ResponsePayload = &v
	}
	if outputHash.Valid {
		v := outputHash.String
		t.OutputHash = &v
	}
	return t, nil
}

func scanTransactions(rows *sql.Rows) ([]Transaction, error) {
	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
