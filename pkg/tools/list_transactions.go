package tools

import (
	"context"
	"database/sql"

	"github.com/ChrisPatten/capital-os/pkg/ledgerstore"
	"github.com/ChrisPatten/capital-os/pkg/query"
)

// ListTransactions handles list_transactions. Grounded on
// original_source/.../tools/list_transactions.py.
func (d Deps) ListTransactions(ctx context.Context, _ *sql.Tx, payload map[string]any) (any, error) {
	cursor := ""
	if s := optionalString(payload, "cursor"); s != nil {
		cursor = *s
	}
	limit := optionalInt(payload, "limit", 50)
	correlationID, err := requireString(payload, "correlation_id")
	if err != nil {
		return nil, err
	}

	page, err := query.ListTransactions(ctx, d.Ledger, cursor, limit)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]any, 0, len(page.Transactions))
	for _, t := range page.Transactions {
		rows = append(rows, transactionToMap(t))
	}

	response := map[string]any{
		"transactions":   rows,
		"next_cursor":    cursorOrNil(page.NextCursor),
		"correlation_id": correlationID,
	}
	response, _, err = canonicalResponse(response)
	return response, err
}

func transactionToMap(t ledgerstore.Transaction) map[string]any {
	return map[string]any{
		"transaction_id":        t.TransactionID,
		"source_system":         t.SourceSystem,
		"external_id":           t.ExternalID,
		"transaction_date":      t.TransactionDate.String(),
		"description":           t.Description,
		"correlation_id":        t.CorrelationID,
		"entity_id":             t.EntityID,
		"is_adjusting_entry":    t.IsAdjustingEntry,
		"adjusting_reason_code": t.AdjustingReasonCode,
		"response_payload":      t.ResponsePayload,
		"output_hash":           t.OutputHash,
	}
}
