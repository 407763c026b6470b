package tools

import (
	"context"
	"database/sql"

	"github.com/ChrisPatten/capital-os/pkg/approval"
	"github.com/ChrisPatten/capital-os/pkg/query"
)

// ListProposals handles list_proposals. Grounded on
// original_source/.../tools/list_proposals.py.
func (d Deps) ListProposals(ctx context.Context, _ *sql.Tx, payload map[string]any) (any, error) {
	cursor := ""
	if s := optionalString(payload, "cursor"); s != nil {
		cursor = *s
	}
	limit := optionalInt(payload, "limit", 50)
	correlationID, err := requireString(payload, "correlation_id")
	if err != nil {
		return nil, err
	}

	page, err := query.ListProposals(ctx, d.Approval, cursor, limit)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]any, 0, len(page.Proposals))
	for _, p := range page.Proposals {
		rows = append(rows, proposalToMap(p))
	}

	response := map[string]any{
		"proposals":      rows,
		"next_cursor":    cursorOrNil(page.NextCursor),
		"correlation_id": correlationID,
	}
	response, _, err = canonicalResponse(response)
	return response, err
}

// GetProposal handles get_proposal. Grounded on
// original_source/.../tools/get_proposal.py.
func (d Deps) GetProposal(ctx context.Context, tx *sql.Tx, payload map[string]any) (any, error) {
	proposalID, err := requireString(payload, "proposal_id")
	if err != nil {
		return nil, err
	}
	correlationID, err := requireString(payload, "correlation_id")
	if err != nil {
		return nil, err
	}

	proposal, err := d.Approval.GetProposal(ctx, tx, proposalID)
	if err != nil {
		return nil, err
	}

	response := proposalToMap(proposal)
	response["correlation_id"] = correlationID
	response, _, err = canonicalResponse(response)
	return response, err
}

func proposalToMap(p approval.Proposal) map[string]any {
	return map[string]any{
		"proposal_id":             p.ProposalID,
		"tool_name":               p.ToolName,
		"source_system":           p.SourceSystem,
		"external_id":             p.ExternalID,
		"correlation_id":          p.CorrelationID,
		"policy_threshold_amount": p.PolicyThresholdAmount.String(),
		"impact_amount":           p.ImpactAmount.String(),
		"status":                  string(p.Status),
		"matched_rule_id":         p.MatchedRuleID,
		"required_approvals":      p.RequiredApprovals,
		"entity_id":               p.EntityID,
		"approved_transaction_id": p.ApprovedTransactionID,
		"created_at":              p.CreatedAt.UTC().Format("2006-01-02T15:04:05.000000Z"),
	}
}
