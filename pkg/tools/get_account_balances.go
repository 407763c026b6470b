package tools

import (
	"context"
	"database/sql"
	"time"

	"github.com/ChrisPatten/capital-os/pkg/query"
)

// GetAccountBalances handles get_account_balances. Grounded on
// original_source/.../tools/get_account_balances.py. When the payload
// omits balance_source_policy, the configured default applies.
func (d Deps) GetAccountBalances(ctx context.Context, _ *sql.Tx, payload map[string]any) (any, error) {
	accountIDs, err := requireStringSlice(payload, "account_ids")
	if err != nil {
		return nil, err
	}
	asOf := time.Now()
	if ts, err := optionalTimestamp(payload, "as_of"); err != nil {
		return nil, err
	} else if ts != nil {
		asOf = ts.Time
	}
	correlationID, err := requireString(payload, "correlation_id")
	if err != nil {
		return nil, err
	}

	policy := d.Config.BalanceSourcePolicy
	if s := optionalString(payload, "balance_source_policy"); s != nil {
		policy = query.SourcePolicy(*s)
	}

	balances, err := query.FetchAccountBalancesAsOf(ctx, d.Ledger, accountIDs, asOf, policy)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]any, 0, len(balances))
	for _, b := range balances {
		row := map[string]any{
			"account_id":       b.AccountID,
			"ledger_balance":   b.LedgerBalance.String(),
			"has_snapshot":     b.HasSnapshot,
			"snapshot_balance": b.SnapshotBalance.String(),
		}
		if b.SelectedBalance != nil {
			row["selected_balance"] = b.SelectedBalance.String()
		} else {
			row["selected_balance"] = nil
		}
		rows = append(rows, row)
	}

	response := map[string]any{
		"balances":       rows,
		"correlation_id": correlationID,
	}
	response, _, err = canonicalResponse(response)
	return response, err
}
