package tools

import (
	"context"
	"database/sql"
	"time"

	"github.com/ChrisPatten/capital-os/pkg/canonicalize"
	"github.com/ChrisPatten/capital-os/pkg/ledgerstore"
	"github.com/ChrisPatten/capital-os/pkg/query"
)

// ReconcileAccount handles reconcile_account. Grounded on
// original_source/.../tools/reconcile_account.py and
// domain/reconciliation/service.py — it never commits anything
// itself, only proposes an adjustment the caller must edit and submit
// through record_transaction_bundle.
func (d Deps) ReconcileAccount(ctx context.Context, _ *sql.Tx, payload map[string]any) (any, error) {
	accountID, err := requireString(payload, "account_id")
	if err != nil {
		return nil, err
	}
	asOf := time.Now()
	if ts, err := optionalTimestamp(payload, "as_of"); err != nil {
		return nil, err
	} else if ts != nil {
		asOf = ts.Time
	}
	currency, err := requireString(payload, "currency")
	if err != nil {
		return nil, err
	}
	correlationID, err := requireString(payload, "correlation_id")
	if err != nil {
		return nil, err
	}

	inputHash, err := canonicalize.PayloadHash(payload)
	if err != nil {
		return nil, err
	}

	result, err := query.Reconcile(ctx, d.Ledger, accountID, asOf, query.MethodLedgerVsSnapshot, currency, correlationID, inputHash)
	if err != nil {
		return nil, err
	}

	response := map[string]any{
		"account_id":       result.AccountID,
		"ledger_balance":   result.LedgerBalance.String(),
		"snapshot_balance": result.SnapshotBalance.String(),
		"has_snapshot":     result.HasSnapshot,
		"delta":            result.Delta.String(),
		"correlation_id":   correlationID,
	}
	if result.ProposedAdjustment != nil {
		response["proposed_adjustment"] = bundleToMap(*result.ProposedAdjustment)
	} else {
		response["proposed_adjustment"] = nil
	}
	response, _, err = canonicalResponse(response)
	return response, err
}

func bundleToMap(b ledgerstore.TransactionBundle) map[string]any {
	postings := make([]map[string]any, 0, len(b.Postings))
	for _, p := range b.Postings {
		postings = append(postings, map[string]any{
			"account_id": p.AccountID,
			"amount":     p.Amount.String(),
			"currency":   p.Currency,
			"memo":       p.Memo,
		})
	}
	return map[string]any{
		"source_system":         b.SourceSystem,
		"external_id":           b.ExternalID,
		"description":           b.Description,
		"correlation_id":        b.CorrelationID,
		"entity_id":             b.EntityID,
		"is_adjusting_entry":    b.IsAdjustingEntry,
		"adjusting_reason_code": b.AdjustingReasonCode,
		"postings":              postings,
	}
}
