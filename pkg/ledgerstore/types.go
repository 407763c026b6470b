// Package ledgerstore owns accounts, transactions, postings, balance
// snapshots, and obligations — the append-only double-entry ledger
// It is the only package that writes these tables;
// the approval, period, and query packages read through it or take a
// *sql.Tx it participates in.
package ledgerstore

import (
	"github.com/ChrisPatten/capital-os/pkg/canonicalize"
	"github.com/ChrisPatten/capital-os/pkg/money"
)

// AccountType is the fixed enumeration an account's type must belong to.
type AccountType string

const (
	AccountAsset     AccountType = "asset"
	AccountLiability AccountType = "liability"
	AccountEquity    AccountType = "equity"
	AccountIncome    AccountType = "income"
	AccountExpense   AccountType = "expense"
)

// Account is one node of the account DAG.
type Account struct {
	AccountID       string
	Code            string
	Name            string
	AccountType     AccountType
	ParentAccountID *string
	EntityID        string
	Metadata        map[string]any
}

// Transaction is one Ledger Transaction row. ResponsePayload/OutputHash
// are nullable until SaveTransactionResponse fills them in (the
// append-only trigger permits that one NULL→value transition only).
type Transaction struct {
	TransactionID        string
	SourceSystem         string
	ExternalID           string
	TransactionDate      canonicalize.Timestamp
	Description          string
	CorrelationID        string
	InputHash            string
	EntityID             string
	IsAdjustingEntry     bool
	AdjustingReasonCode  *string
	ResponsePayload      *string
	OutputHash           *string
}

// Posting is one signed leg of a transaction.
type Posting struct {
	PostingID     string
	TransactionID string
	AccountID     string
	Amount        money.Amount
	Currency      string
	Memo          *string
}

// BalanceSnapshot is an externally-reported balance for an account on
// a given date, distinct from the ledger's own derived balance.
type BalanceSnapshot struct {
	SnapshotID       string
	AccountID        string
	SnapshotDate     canonicalize.Timestamp
	SourceSystem     string
	Balance          money.Amount
	Currency         string
	SourceArtifactID *string
	EntityID         string
}

// ObligationCadence is the fixed enumeration an obligation's cadence
// must belong to.
type ObligationCadence string

const (
	CadenceMonthly ObligationCadence = "monthly"
	CadenceAnnual  ObligationCadence = "annual"
	CadenceCustom  ObligationCadence = "custom"
)

// Obligation is a recurring expected cash flow tracked against an account.
type Obligation struct {
	ObligationID            string
	SourceSystem            string
	Name                    string
	AccountID               string
	Cadence                 ObligationCadence
	ExpectedAmount          money.Amount
	VariabilityFlag         bool
	NextDueDate             canonicalize.Timestamp
	Metadata                map[string]any
	Active                  bool
	FulfilledByTransactionID *string
	FulfilledAt              *canonicalize.Timestamp
}

// TransactionBundle is the write-side input to InsertTransactionBundle:
// a transaction header plus its balanced postings, in caller-supplied
// order (the store re-sorts into canonical order before insert).
type TransactionBundle struct {
	SourceSystem        string
	ExternalID          string
	TransactionDate     canonicalize.Timestamp
	Description         string
	CorrelationID       string
	InputHash           string
	EntityID            string
	IsAdjustingEntry    bool
	AdjustingReasonCode *string
	Postings            []PostingInput
}

// PostingInput is one posting leg as supplied by a caller, prior to
// ID assignment.
type PostingInput struct {
	AccountID string
	Amount    money.Amount
	Currency  string
	Memo      *string
}
