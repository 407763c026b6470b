package tools

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/ChrisPatten/capital-os/pkg/approval"
)

// ApproveConfigChange handles approve_config_change: it goes straight
// through approval.Store's decision/commit primitives rather than
// approval.Orchestrator, since there is no ledger bundle to insert on
// commit — the "applied_change" is just the request_payload the
// matching propose_config_change stored. Grounded on
// original_source/.../tools/approve_config_change.py.
func (d Deps) ApproveConfigChange(ctx context.Context, tx *sql.Tx, payload map[string]any) (any, error) {
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

	proposal, err := d.Approval.GetProposal(ctx, tx, proposalID)
	if err != nil {
		return nil, err
	}
	if proposal.ToolName != configChangeToolName {
		return nil, fieldError("proposal_id", "does not refer to a config change proposal")
	}

	switch proposal.Status {
	case approval.StatusRejected:
		response := map[string]any{
			"status":             "rejected",
			"proposal_id":        proposal.ProposalID,
			"approvals_received": 0,
			"required_approvals": 1,
			"applied_change":     nil,
			"correlation_id":     correlationID,
		}
		response, _, err = canonicalResponse(response)
		return response, err
	case approval.StatusCommitted:
		applied, err := appliedChangeOf(proposal)
		if err != nil {
			return nil, err
		}
		response := map[string]any{
			"status":             "already_applied",
			"proposal_id":        proposal.ProposalID,
			"approvals_received": 1,
			"required_approvals": 1,
			"applied_change":     applied,
			"correlation_id":     correlationID,
		}
		response, _, err = canonicalResponse(response)
		return response, err
	}

	if _, err := d.Approval.InsertDecision(ctx, tx, approval.Decision{
		ProposalID:    proposal.ProposalID,
		Action:        approval.ActionApprove,
		CorrelationID: correlationID,
		ApproverID:    approverID,
		Reason:        reason,
	}); err != nil {
		return nil, err
	}

	applied, err := appliedChangeOf(proposal)
	if err != nil {
		return nil, err
	}
	response := map[string]any{
		"status":             "applied",
		"proposal_id":        proposal.ProposalID,
		"approvals_received": 1,
		"required_approvals": 1,
		"applied_change":     applied,
		"correlation_id":     correlationID,
	}
	response, outputHash, err := canonicalResponse(response)
	if err != nil {
		return nil, err
	}
	responseJSON, err := canonicalJSON(response)
	if err != nil {
		return nil, err
	}
	if err := d.Approval.MarkCommitted(ctx, tx, proposal.ProposalID, "", responseJSON, outputHash); err != nil {
		return nil, err
	}
	return response, nil
}

func appliedChangeOf(p approval.Proposal) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal([]byte(p.RequestPayload), &out); err != nil {
		return nil, err
	}
	return out, nil
}
