package tools

import (
	"context"
	"database/sql"

	"github.com/ChrisPatten/capital-os/pkg/approval"
)

// ApproveProposedTransaction handles approve_proposed_transaction.
// Grounded on original_source/.../tools/approve_proposed_transaction.py.
// The Orchestrator owns its own transaction boundary (it may need to
// commit a deferred ledger bundle alongside the decision), so this
// handler ignores the tx the runtime opened for it.
func (d Deps) ApproveProposedTransaction(ctx context.Context, _ *sql.Tx, payload map[string]any) (any, error) {
	proposalID, err := requireString(payload, "proposal_id")
	if err != nil {
		return nil, err
	}
	correlationID, err := requireString(payload, "correlation_id")
	if err != nil {
		return nil, err
	}
	approverID := optionalString(payload, "approver_id")

	proposal, err := d.Orchestrator.Decide(ctx, proposalID, approval.ActionApprove, correlationID, approverID, nil)
	if err != nil {
		return nil, err
	}

	response := proposalToMap(proposal)
	response["correlation_id"] = correlationID
	response, _, err = canonicalResponse(response)
	return response, err
}

// RejectProposedTransaction handles reject_proposed_transaction.
// Grounded on original_source/.../tools/reject_proposed_transaction.py.
func (d Deps) RejectProposedTransaction(ctx context.Context, _ *sql.Tx, payload map[string]any) (any, error) {
	proposalID, err := requireString(payload, "proposal_id")
	if err != nil {
		return nil, err
	}
	correlationID, err := requireString(payload, "correlation_id")
	if err != nil {
		return nil, err
	}
	approverID := optionalString(payload, "approver_id")
	reason := optionalString(payload, "reason")

	proposal, err := d.Orchestrator.Decide(ctx, proposalID, approval.ActionReject, correlationID, approverID, reason)
	if err != nil {
		return nil, err
	}

	response := proposalToMap(proposal)
	response["correlation_id"] = correlationID
	response, _, err = canonicalResponse(response)
	return response, err
}
