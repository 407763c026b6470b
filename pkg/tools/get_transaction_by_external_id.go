package tools

import (
	"context"
	"database/sql"

	"github.com/ChrisPatten/capital-os/pkg/ledgerstore"
)

// GetTransactionByExternalID handles get_transaction_by_external_id.
// Grounded on original_source/.../tools/get_transaction_by_external_id.py.
func (d Deps) GetTransactionByExternalID(ctx context.Context, _ *sql.Tx, payload map[string]any) (any, error) {
	sourceSystem, err := requireString(payload, "source_system")
	if err != nil {
		return nil, err
	}
	externalID, err := requireString(payload, "external_id")
	if err != nil {
		return nil, err
	}
	correlationID, err := requireString(payload, "correlation_id")
	if err != nil {
		return nil, err
	}

	txn, postings, err := d.Ledger.FetchTransactionWithPostingsByExternalID(ctx, sourceSystem, externalID)
	if err != nil {
		return nil, err
	}

	postingRows := make([]map[string]any, 0, len(postings))
	for _, p := range postings {
		postingRows = append(postingRows, postingToMap(p))
	}

	response := transactionToMap(txn)
	response["postings"] = postingRows
	response["correlation_id"] = correlationID
	response, _, err = canonicalResponse(response)
	return response, err
}

func postingToMap(p ledgerstore.Posting) map[string]any {
	return map[string]any{
		"posting_id":     p.PostingID,
		"transaction_id": p.TransactionID,
		"account_id":     p.AccountID,
		"amount":         p.Amount.String(),
		"currency":       p.Currency,
		"memo":           p.Memo,
	}
}
