package query

import (
	"context"
	"fmt"
	"time"

	"github.com/ChrisPatten/capital-os/pkg/approval"
	"github.com/ChrisPatten/capital-os/pkg/ledgerstore"
)

// AccountsPage is one page of ListAccounts, with a non-nil NextCursor
// when more rows exist beyond this page.
type AccountsPage struct {
	Accounts   []ledgerstore.Account
	NextCursor *string
}

// ListAccounts fetches a page ordered by (code asc, account_id asc).
// It requests limit+1 rows and trims the extra row into NextCursor,
// the cursor-pagination rule every list endpoint shares.
func ListAccounts(ctx context.Context, store *ledgerstore.Store, cursor string, limit int) (AccountsPage, error) {
	afterCode, afterID := "", ""
	if cursor != "" {
		fields, err := DecodeCursor(cursor)
		if err != nil {
			return AccountsPage{}, err
		}
		afterCode, _ = fields["code"].(string)
		afterID, _ = fields["account_id"].(string)
	}

	rows, err := store.ListAccountsPage(ctx, afterCode, afterID, limit+1)
	if err != nil {
		return AccountsPage{}, err
	}

	page := AccountsPage{Accounts: rows}
	if len(rows) > limit {
		page.Accounts = rows[:limit]
		last := page.Accounts[limit-1]
		next, err := EncodeCursor(map[string]any{"code": last.Code, "account_id": last.AccountID})
		if err != nil {
			return AccountsPage{}, err
		}
		page.NextCursor = &next
	}
	return page, nil
}

// TransactionsPage is one page of ListTransactions.
type TransactionsPage struct {
	Transactions []ledgerstore.Transaction
	NextCursor   *string
}

// ListTransactions fetches a page ordered by
// (transaction_date desc, transaction_id asc).
func ListTransactions(ctx context.Context, store *ledgerstore.Store, cursor string, limit int) (TransactionsPage, error) {
	var afterDate time.Time
	afterID := ""
	hasAfter := false
	if cursor != "" {
		fields, err := DecodeCursor(cursor)
		if err != nil {
			return TransactionsPage{}, err
		}
		dateStr, _ := fields["transaction_date"].(string)
		afterID, _ = fields["transaction_id"].(string)
		afterDate, err = time.Parse(time.RFC3339Nano, dateStr)
		if err != nil {
			return TransactionsPage{}, fmt.Errorf("query: invalid cursor transaction_date: %w", err)
		}
		hasAfter = true
	}

	rows, err := store.ListTransactionsPage(ctx, afterDate, afterID, hasAfter, limit+1)
	if err != nil {
		return TransactionsPage{}, err
	}

	page := TransactionsPage{Transactions: rows}
	if len(rows) > limit {
		page.Transactions = rows[:limit]
		last := page.Transactions[limit-1]
		next, err := EncodeCursor(map[string]any{
			"transaction_date": last.TransactionDate.String(),
			"transaction_id":   last.TransactionID,
		})
		if err != nil {
			return TransactionsPage{}, err
		}
		page.NextCursor = &next
	}
	return page, nil
}

// ObligationsPage is one page of ListObligations.
type ObligationsPage struct {
	Obligations []ledgerstore.Obligation
	NextCursor  *string
}

// ListObligations fetches a page ordered by
// (next_due_date asc, obligation_id asc).
func ListObligations(ctx context.Context, store *ledgerstore.Store, cursor string, limit int) (ObligationsPage, error) {
	var afterDate time.Time
	afterID := ""
	hasAfter := false
	if cursor != "" {
		fields, err := DecodeCursor(cursor)
		if err != nil {
			return ObligationsPage{}, err
		}
		dateStr, _ := fields["next_due_date"].(string)
		afterID, _ = fields["obligation_id"].(string)
		afterDate, err = time.Parse(time.RFC3339Nano, dateStr)
		if err != nil {
			return ObligationsPage{}, fmt.Errorf("query: invalid cursor next_due_date: %w", err)
		}
		hasAfter = true
	}

	rows, err := store.ListObligationsPage(ctx, afterDate, afterID, hasAfter, limit+1)
	if err != nil {
		return ObligationsPage{}, err
	}

	page := ObligationsPage{Obligations: rows}
	if len(rows) > limit {
		page.Obligations = rows[:limit]
		last := page.Obligations[limit-1]
		next, err := EncodeCursor(map[string]any{
			"next_due_date": last.NextDueDate.String(),
			"obligation_id": last.ObligationID,
		})
		if err != nil {
			return ObligationsPage{}, err
		}
		page.NextCursor = &next
	}
	return page, nil
}

// ProposalsPage is one page of ListProposals.
type ProposalsPage struct {
	Proposals  []approval.Proposal
	NextCursor *string
}

// ListProposals fetches a page ordered by (created_at desc, proposal_id asc).
func ListProposals(ctx context.Context, store *approval.Store, cursor string, limit int) (ProposalsPage, error) {
	var afterCreatedAtUnix int64
	afterID := ""
	hasAfter := false
	if cursor != "" {
		fields, err := DecodeCursor(cursor)
		if err != nil {
			return ProposalsPage{}, err
		}
		createdAt, _ := fields["created_at"].(float64)
		afterCreatedAtUnix = int64(createdAt)
		afterID, _ = fields["proposal_id"].(string)
		hasAfter = true
	}

	rows, err := store.ListProposalsPage(ctx, afterCreatedAtUnix, afterID, hasAfter, limit+1)
	if err != nil {
		return ProposalsPage{}, err
	}

	page := ProposalsPage{Proposals: rows}
	if len(rows) > limit {
		page.Proposals = rows[:limit]
		last := page.Proposals[limit-1]
		next, err := EncodeCursor(map[string]any{
			"created_at":  last.CreatedAt.Unix(),
			"proposal_id": last.ProposalID,
		})
		if err != nil {
			return ProposalsPage{}, err
		}
		page.NextCursor = &next
	}
	return page, nil
}
