package tools

import (
	"context"
	"database/sql"

	"github.com/ChrisPatten/capital-os/pkg/ledgerstore"
)

// CreateOrUpdateObligation handles create_or_update_obligation.
// Grounded on original_source/.../tools/create_or_update_obligation.py.
func (d Deps) CreateOrUpdateObligation(ctx context.Context, _ *sql.Tx, payload map[string]any) (any, error) {
	sourceSystem, err := requireString(payload, "source_system")
	if err != nil {
		return nil, err
	}
	name, err := requireString(payload, "name")
	if err != nil {
		return nil, err
	}
	accountID, err := requireString(payload, "account_id")
	if err != nil {
		return nil, err
	}
	cadence, err := requireString(payload, "cadence")
	if err != nil {
		return nil, err
	}
	expectedAmount, err := requireAmount(payload, "expected_amount")
	if err != nil {
		return nil, err
	}
	variabilityFlag := requireBool(payload, "variability_flag", false)
	nextDueDate, err := requireTimestamp(payload, "next_due_date")
	if err != nil {
		return nil, err
	}
	metadata := optionalMap(payload, "metadata")
	active := requireBool(payload, "active", true)

	obligationID, err := d.Ledger.UpsertObligation(ctx, ledgerstore.Obligation{
		SourceSystem:    sourceSystem,
		Name:            name,
		AccountID:       accountID,
		Cadence:         ledgerstore.ObligationCadence(cadence),
		ExpectedAmount:  expectedAmount,
		VariabilityFlag: variabilityFlag,
		NextDueDate:     nextDueDate,
		Metadata:        metadata,
		Active:          active,
	})
	if err != nil {
		return nil, err
	}

	response := map[string]any{
		"status":        "upserted",
		"obligation_id": obligationID,
	}
	response, _, err = canonicalResponse(response)
	return response, err
}
