package query

import (
	"context"
	"time"

	"github.com/ChrisPatten/capital-os/pkg/ledgerstore"
	"github.com/ChrisPatten/capital-os/pkg/money"
)

// PlaceholderOffsetAccount marks the proposed adjustment bundle's
// offset leg as requiring caller edit before it can be committed.
const PlaceholderOffsetAccount = "__OFFSET_ACCOUNT_REQUIRED__"

// ReconciliationMethod selects which balance reconciliation treats as
// authoritative for the delta calculation.
type ReconciliationMethod string

const (
	MethodLedgerVsSnapshot ReconciliationMethod = "ledger_vs_snapshot"
)

// ReconciliationResult is the output of Reconcile.
type ReconciliationResult struct {
	AccountID          string
	LedgerBalance      money.Amount
	SnapshotBalance    money.Amount
	HasSnapshot        bool
	Delta              money.Amount
	ProposedAdjustment *ledgerstore.TransactionBundle
}

// Reconcile compares an account's ledger-derived balance against its
// most recent snapshot as of asOf, and — when a snapshot exists and
// the delta is nonzero — proposes a non-committing adjustment bundle
// with a placeholder offset account the caller must edit before
// committing.
func Reconcile(ctx context.Context, store *ledgerstore.Store, accountID string, asOf time.Time, method ReconciliationMethod, currency, correlationID, inputHash string) (ReconciliationResult, error) {
	rows, err := store.FetchAccountBalancesAsOf(ctx, []string{accountID}, asOf)
	if err != nil {
		return ReconciliationResult{}, err
	}
	if len(rows) == 0 {
		return ReconciliationResult{AccountID: accountID}, nil
	}
	row := rows[0]

	result := ReconciliationResult{
		AccountID:       accountID,
		LedgerBalance:   row.LedgerBalance,
		SnapshotBalance: row.SnapshotBalance,
		HasSnapshot:     row.HasSnapshot,
	}

	if !row.HasSnapshot {
		result.Delta = money.Zero
		return result, nil
	}

	result.Delta = money.Sub(row.SnapshotBalance, row.LedgerBalance)
	if result.Delta.IsZero() {
		return result, nil
	}

	result.ProposedAdjustment = &ledgerstore.TransactionBundle{
		Description:      "reconciliation adjustment (auto_commit=false, edit offset before committing)",
		CorrelationID:    correlationID,
		InputHash:        inputHash,
		IsAdjustingEntry: true,
		Postings: []ledgerstore.PostingInput{
			{AccountID: accountID, Amount: result.Delta, Currency: currency},
			{AccountID: PlaceholderOffsetAccount, Amount: money.Negate(result.Delta), Currency: currency},
		},
	}
	return result, nil
}
