package tools

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/ChrisPatten/capital-os/pkg/ledgerstore"
)

// CreateAccount handles create_account. Grounded on
// original_source/.../tools/create_account.py.
func (d Deps) CreateAccount(ctx context.Context, _ *sql.Tx, payload map[string]any) (any, error) {
	code, err := requireString(payload, "code")
	if err != nil {
		return nil, err
	}
	name, err := requireString(payload, "name")
	if err != nil {
		return nil, err
	}
	accountType, err := requireString(payload, "account_type")
	if err != nil {
		return nil, err
	}
	entityID, err := requireString(payload, "entity_id")
	if err != nil {
		return nil, err
	}
	parentAccountID := optionalString(payload, "parent_account_id")
	metadata := optionalMap(payload, "metadata")

	account := ledgerstore.Account{
		AccountID:       uuid.New().String(),
		Code:            code,
		Name:            name,
		AccountType:     ledgerstore.AccountType(accountType),
		ParentAccountID: parentAccountID,
		EntityID:        entityID,
		Metadata:        metadata,
	}
	if err := d.Ledger.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	response := map[string]any{
		"status":     "created",
		"account_id": account.AccountID,
		"code":       code,
	}
	response, _, err = canonicalResponse(response)
	return response, err
}
