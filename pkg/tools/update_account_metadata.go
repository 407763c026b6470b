package tools

import (
	"context"
	"database/sql"
)

// UpdateAccountMetadata handles update_account_metadata. Grounded on
// original_source/.../tools/update_account_metadata.py.
func (d Deps) UpdateAccountMetadata(ctx context.Context, _ *sql.Tx, payload map[string]any) (any, error) {
	accountID, err := requireString(payload, "account_id")
	if err != nil {
		return nil, err
	}
	metadata, err := requireMap(payload, "metadata")
	if err != nil {
		return nil, err
	}

	if err := d.Ledger.UpdateAccountMetadata(ctx, accountID, metadata); err != nil {
		return nil, err
	}

	response := map[string]any{
		"status":     "updated",
		"account_id": accountID,
	}
	response, _, err = canonicalResponse(response)
	return response, err
}
