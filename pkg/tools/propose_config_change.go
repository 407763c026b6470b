package tools

import (
	"context"
	"database/sql"

	"github.com/ChrisPatten/capital-os/pkg/approval"
	"github.com/ChrisPatten/capital-os/pkg/canonicalize"
	"github.com/ChrisPatten/capital-os/pkg/money"
)

const configChangeToolName = "propose_config_change"

// ProposeConfigChange handles propose_config_change. Unlike
// record_transaction_bundle, this never builds a TransactionBundle —
// it stores the (scope, change_payload) pair on the proposal's
// request_payload and later just echoes it back once approved.
// Grounded on original_source/.../tools/propose_config_change.py,
// which goes straight to approval.Store's primitives rather than
// the Orchestrator, since there's no ledger bundle to commit.
func (d Deps) ProposeConfigChange(ctx context.Context, _ *sql.Tx, payload map[string]any) (any, error) {
	sourceSystem, err := requireString(payload, "source_system")
	if err != nil {
		return nil, err
	}
	externalID, err := requireString(payload, "external_id")
	if err != nil {
		return nil, err
	}
	scope, err := requireString(payload, "scope")
	if err != nil {
		return nil, err
	}
	changePayload, err := requireMap(payload, "change_payload")
	if err != nil {
		return nil, err
	}
	correlationID, err := requireString(payload, "correlation_id")
	if err != nil {
		return nil, err
	}
	entityID := optionalString(payload, "entity_id")
	entity := ""
	if entityID != nil {
		entity = *entityID
	}

	existing, found, err := d.Approval.FindProposalBySourceExternal(ctx, configChangeToolName, sourceSystem, externalID)
	if err != nil {
		return nil, err
	}

	zero, err := money.Parse("0.0000")
	if err != nil {
		return nil, err
	}
	inputHash, err := canonicalize.PayloadHash(payload)
	if err != nil {
		return nil, err
	}

	status := "proposed"
	proposalID := ""
	if found {
		proposalID = existing.ProposalID
		status = "idempotent-replay"
	} else {
		requestPayload, err := canonicalJSON(map[string]any{
			"scope":          scope,
			"change_payload": changePayload,
		})
		if err != nil {
			return nil, err
		}
		proposalID, err = d.Approval.CreateProposal(ctx, approval.Proposal{
			ToolName:              configChangeToolName,
			SourceSystem:          sourceSystem,
			ExternalID:            externalID,
			CorrelationID:         correlationID,
			InputHash:             inputHash,
			PolicyThresholdAmount: zero,
			ImpactAmount:          zero,
			Status:                approval.StatusProposed,
			RequiredApprovals:     1,
			EntityID:              entity,
			RequestPayload:        requestPayload,
		})
		if err != nil {
			return nil, err
		}
	}

	response := map[string]any{
		"status":             status,
		"proposal_id":        proposalID,
		"required_approvals": 1,
		"approvals_received": 0,
		"correlation_id":     correlationID,
	}
	response, _, err = canonicalResponse(response)
	return response, err
}
