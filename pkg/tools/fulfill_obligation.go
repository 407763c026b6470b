package tools

import (
	"context"
	"database/sql"
	"time"

	"github.com/ChrisPatten/capital-os/pkg/canonicalize"
)

// FulfillObligation handles fulfill_obligation: marks an obligation as
// satisfied and optionally links the transaction that paid it.
// Grounded on original_source/.../tools/fulfill_obligation.py.
func (d Deps) FulfillObligation(ctx context.Context, _ *sql.Tx, payload map[string]any) (any, error) {
	obligationID, err := requireString(payload, "obligation_id")
	if err != nil {
		return nil, err
	}
	fulfilledByTransactionID := optionalString(payload, "fulfilled_by_transaction_id")
	fulfilledAt, err := optionalTimestamp(payload, "fulfilled_at")
	if err != nil {
		return nil, err
	}
	if fulfilledAt == nil {
		now := canonicalize.NewTimestamp(time.Now())
		fulfilledAt = &now
	}

	if err := d.Ledger.FulfillObligation(ctx, obligationID, fulfilledByTransactionID, fulfilledAt); err != nil {
		return nil, err
	}

	response := map[string]any{
		"status":        "fulfilled",
		"obligation_id": obligationID,
	}
	response, _, err = canonicalResponse(response)
	return response, err
}
