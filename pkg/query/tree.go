package query

import (
	"context"

	"github.com/ChrisPatten/capital-os/pkg/ledgerstore"
)

// AccountTreeNode is one assembled node of an account tree: the
// account plus its direct children, recursively.
type AccountTreeNode struct {
	Account  ledgerstore.Account
	Children []*AccountTreeNode
}

// FetchAccountTree fetches rootAccountID's subtree rows and links
// children to parents present in the same result set; rows whose
// parent is missing from the fetch become roots.
func FetchAccountTree(ctx context.Context, store *ledgerstore.Store, rootAccountID string) ([]*AccountTreeNode, error) {
	rows, err := store.FetchAccountTreeRows(ctx, rootAccountID)
	if err != nil {
		return nil, err
	}

	nodes := make(map[string]*AccountTreeNode, len(rows))
	for _, a := range rows {
		nodes[a.AccountID] = &AccountTreeNode{Account: a}
	}

	var roots []*AccountTreeNode
	for _, a := range rows {
		node := nodes[a.AccountID]
		if a.ParentAccountID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*a.ParentAccountID]
		if !ok {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}
	return roots, nil
}
