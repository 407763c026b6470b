package tools

import (
	"context"
	"database/sql"

	"github.com/ChrisPatten/capital-os/pkg/ledgerstore"
)

// RecordBalanceSnapshot handles record_balance_snapshot. Grounded on
// original_source/.../tools/record_balance_snapshot.py.
func (d Deps) RecordBalanceSnapshot(ctx context.Context, _ *sql.Tx, payload map[string]any) (any, error) {
	accountID, err := requireString(payload, "account_id")
	if err != nil {
		return nil, err
	}
	snapshotDate, err := requireTimestamp(payload, "snapshot_date")
	if err != nil {
		return nil, err
	}
	sourceSystem, err := requireString(payload, "source_system")
	if err != nil {
		return nil, err
	}
	balance, err := requireAmount(payload, "balance")
	if err != nil {
		return nil, err
	}
	currency, err := requireString(payload, "currency")
	if err != nil {
		return nil, err
	}
	entityID, err := requireString(payload, "entity_id")
	if err != nil {
		return nil, err
	}
	sourceArtifactID := optionalString(payload, "source_artifact_id")

	snapshotID, err := d.Ledger.UpsertBalanceSnapshot(ctx, ledgerstore.BalanceSnapshot{
		AccountID:        accountID,
		SnapshotDate:     snapshotDate,
		SourceSystem:     sourceSystem,
		Balance:          balance,
		Currency:         currency,
		SourceArtifactID: sourceArtifactID,
		EntityID:         entityID,
	})
	if err != nil {
		return nil, err
	}

	response := map[string]any{
		"status":      "recorded",
		"snapshot_id": snapshotID,
		"account_id":  accountID,
	}
	response, _, err = canonicalResponse(response)
	return response, err
}
