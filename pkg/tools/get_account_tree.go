package tools

import (
	"context"
	"database/sql"

	"github.com/ChrisPatten/capital-os/pkg/query"
)

// GetAccountTree handles get_account_tree. Grounded on
// original_source/.../tools/get_account_tree.py.
func (d Deps) GetAccountTree(ctx context.Context, _ *sql.Tx, payload map[string]any) (any, error) {
	rootAccountID, err := requireString(payload, "root_account_id")
	if err != nil {
		return nil, err
	}
	correlationID, err := requireString(payload, "correlation_id")
	if err != nil {
		return nil, err
	}

	roots, err := query.FetchAccountTree(ctx, d.Ledger, rootAccountID)
	if err != nil {
		return nil, err
	}

	response := map[string]any{
		"tree":           treeNodesToMaps(roots),
		"correlation_id": correlationID,
	}
	response, _, err = canonicalResponse(response)
	return response, err
}

func treeNodesToMaps(nodes []*query.AccountTreeNode) []map[string]any {
	out := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		row := accountToMap(n.Account)
		row["children"] = treeNodesToMaps(n.Children)
		out = append(out, row)
	}
	return out
}
