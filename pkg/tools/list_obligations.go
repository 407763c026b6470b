package tools

import (
	"context"
	"database/sql"

	"github.com/ChrisPatten/capital-os/pkg/ledgerstore"
	"github.com/ChrisPatten/capital-os/pkg/query"
)

// ListObligations handles list_obligations. Grounded on
// original_source/.../tools/list_obligations.py.
func (d Deps) ListObligations(ctx context.Context, _ *sql.Tx, payload map[string]any) (any, error) {
	cursor := ""
	if s := optionalString(payload, "cursor"); s != nil {
		cursor = *s
	}
	limit := optionalInt(payload, "limit", 50)
	correlationID, err := requireString(payload, "correlation_id")
	if err != nil {
		return nil, err
	}

	page, err := query.ListObligations(ctx, d.Ledger, cursor, limit)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]any, 0, len(page.Obligations))
	for _, o := range page.Obligations {
		rows = append(rows, obligationToMap(o))
	}

	response := map[string]any{
		"obligations":    rows,
		"next_cursor":    cursorOrNil(page.NextCursor),
		"correlation_id": correlationID,
	}
	response, _, err = canonicalResponse(response)
	return response, err
}

func obligationToMap(o ledgerstore.Obligation) map[string]any {
	return map[string]any{
		"obligation_id":               o.ObligationID,
		"source_system":               o.SourceSystem,
		"name":                        o.Name,
		"account_id":                  o.AccountID,
		"cadence":                     string(o.Cadence),
		"expected_amount":             o.ExpectedAmount.String(),
		"variability_flag":            o.VariabilityFlag,
		"next_due_date":               o.NextDueDate.String(),
		"metadata":                    o.Metadata,
		"active":                      o.Active,
		"fulfilled_by_transaction_id": o.FulfilledByTransactionID,
		"fulfilled_at":                fulfilledAtString(o),
	}
}

func fulfilledAtString(o ledgerstore.Obligation) any {
	if o.FulfilledAt == nil {
		return nil
	}
	return o.FulfilledAt.String()
}
