package query

import (
	"context"
	"time"

	"github.com/ChrisPatten/capital-os/pkg/ledgerstore"
	"github.com/ChrisPatten/capital-os/pkg/money"
)

// SourcePolicy selects which balance an account-balances-as-of query
// reports.
type SourcePolicy string

const (
	SourceLedgerOnly    SourcePolicy = "ledger_only"
	SourceSnapshotOnly  SourcePolicy = "snapshot_only"
	SourceBestAvailable SourcePolicy = "best_available"
)

// AccountBalance is one account's as-of balance after source-policy
// selection.
type AccountBalance struct {
	AccountID       string
	LedgerBalance   money.Amount
	HasSnapshot     bool
	SnapshotBalance money.Amount
	SelectedBalance *money.Amount // nil when snapshot_only has no snapshot
}

// FetchAccountBalancesAsOf computes per-account balances and applies
// the source-selection policy.
func FetchAccountBalancesAsOf(ctx context.Context, store *ledgerstore.Store, accountIDs []string, asOf time.Time, policy SourcePolicy) ([]AccountBalance, error) {
	rows, err := store.FetchAccountBalancesAsOf(ctx, accountIDs, asOf)
	if err != nil {
		return nil, err
	}

	out := make([]AccountBalance, 0, len(rows))
	for _, r := range rows {
		ab := AccountBalance{
			AccountID:       r.AccountID,
			LedgerBalance:   r.LedgerBalance,
			HasSnapshot:     r.HasSnapshot,
			SnapshotBalance: r.SnapshotBalance,
		}
		switch policy {
		case SourceLedgerOnly:
			v := r.LedgerBalance
			ab.SelectedBalance = &v
		case SourceSnapshotOnly:
			if r.HasSnapshot {
				v := r.SnapshotBalance
				ab.SelectedBalance = &v
			}
		default: // best_available
			if r.HasSnapshot {
				v := r.SnapshotBalance
				ab.SelectedBalance = &v
			} else {
				v := r.LedgerBalance
				ab.SelectedBalance = &v
			}
		}
		out = append(out, ab)
	}
	return out, nil
}
