// Package approval implements the approval proposal/decision state
// machine: proposed -> {committed, rejected}, with both
// single-party and M-of-N quorum commit paths.
package approval

import (
	"time"

	"github.com/ChrisPatten/capital-os/pkg/ledgerstore"
	"github.com/ChrisPatten/capital-os/pkg/money"
)

// Status is the fixed enumeration a proposal's status must belong to.
type Status string

const (
	StatusProposed  Status = "proposed"
	StatusCommitted Status = "committed"
	StatusRejected  Status = "rejected"
)

// Action is the fixed enumeration a decision's action must belong to.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Proposal is one Approval Proposal row.
type Proposal struct {
	ProposalID            string
	ToolName              string
	SourceSystem          string
	ExternalID            string
	CorrelationID         string
	InputHash             string
	PolicyThresholdAmount money.Amount
	ImpactAmount          money.Amount
	Status                Status
	MatchedRuleID         *string
	RequiredApprovals     int
	EntityID              string
	RequestPayload        string // canonical JSON of the original write request
	ResponsePayload       *string
	OutputHash            *string
	ApprovedTransactionID *string
	CreatedAt             time.Time
}

// Decision is one Approval Decision row.
type Decision struct {
	DecisionID    string
	ProposalID    string
	Action        Action
	CorrelationID string
	ApproverID    *string
	Reason        *string
}

// ErrTerminalProposal is returned when an approve/reject targets a
// proposal that already reached a terminal state in a way the
// caller's action cannot replay (approve-on-rejected, reject-on-committed).
type ErrTerminalProposal struct {
	ProposalID string
	Status     Status
	Action     Action
}

func (e *ErrTerminalProposal) Error() string {
	return "approval: proposal " + e.ProposalID + " is terminal (" + string(e.Status) + "), cannot " + string(e.Action)
}

// PendingTransactionBundle is the write the proposal defers; it is
// reconstructed from the proposal's request_payload when a commit
// actually happens.
type PendingTransactionBundle = ledgerstore.TransactionBundle
