// Package idempotency implements resolve_transaction_idempotency
// the replay path a caller falls back to when
// InsertTransactionBundle reports a (source_system, external_id)
// collision.
package idempotency

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ChrisPatten/capital-os/pkg/ledgerstore"
)

// Response is the canonical stored response for a transaction,
// replayed verbatim except for its status field.
type Response struct {
	Status string `json:"status"`
	Fields map[string]any
}

// MarshalJSON flattens Fields alongside Status so the replayed
// response has exactly the same shape as the original commit
// response, not a wrapper around it.
func (r Response) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+1)
	for k, v := range r.Fields {
		out[k] = v
	}
	out["status"] = r.Status
	return json.Marshal(out)
}

// ResolveTransactionIdempotency fetches the stored canonical response
// for (sourceSystem, externalID) and overrides its status to
// "idempotent-replay". Returns (nil, nil) if no such
// transaction exists yet — the caller distinguishes "genuinely new
// external_id" from "replay" by this nil check before treating a
// unique-constraint violation as anything other than a replay.
func ResolveTransactionIdempotency(ctx context.Context, store *ledgerstore.Store, sourceSystem, externalID string) (*Response, error) {
	txn, _, err := store.FetchTransactionWithPostingsByExternalID(ctx, sourceSystem, externalID)
	if err != nil {
		if err == ledgerstore.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("idempotency: lookup: %w", err)
	}
	if txn.ResponsePayload == nil {
		return nil, fmt.Errorf("idempotency: transaction %s has no stored response yet", txn.TransactionID)
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(*txn.ResponsePayload), &fields); err != nil {
		return nil, fmt.Errorf("idempotency: decode stored response: %w", err)
	}
	delete(fields, "status")

	return &Response{Status: "idempotent-replay", Fields: fields}, nil
}
