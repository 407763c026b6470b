package tools

import (
	"context"
	"database/sql"

	"github.com/ChrisPatten/capital-os/pkg/ledgerstore"
	"github.com/ChrisPatten/capital-os/pkg/query"
)

// ListAccounts handles list_accounts. Grounded on
// original_source/.../tools/list_accounts.py.
func (d Deps) ListAccounts(ctx context.Context, _ *sql.Tx, payload map[string]any) (any, error) {
	cursor := ""
	if s := optionalString(payload, "cursor"); s != nil {
		cursor = *s
	}
	limit := optionalInt(payload, "limit", 50)
	correlationID, err := requireString(payload, "correlation_id")
	if err != nil {
		return nil, err
	}

	page, err := query.ListAccounts(ctx, d.Ledger, cursor, limit)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]any, 0, len(page.Accounts))
	for _, a := range page.Accounts {
		rows = append(rows, accountToMap(a))
	}

	response := map[string]any{
		"accounts":       rows,
		"next_cursor":    cursorOrNil(page.NextCursor),
		"correlation_id": correlationID,
	}
	response, _, err = canonicalResponse(response)
	return response, err
}

func accountToMap(a ledgerstore.Account) map[string]any {
	return map[string]any{
		"account_id":        a.AccountID,
		"code":              a.Code,
		"name":              a.Name,
		"account_type":      string(a.AccountType),
		"parent_account_id": a.ParentAccountID,
		"entity_id":         a.EntityID,
		"metadata":          a.Metadata,
	}
}

func cursorOrNil(cursor *string) any {
	if cursor == nil {
		return nil
	}
	return *cursor
}
