package tools

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/ChrisPatten/capital-os/pkg/approval"
	"github.com/ChrisPatten/capital-os/pkg/canonicalize"
	"github.com/ChrisPatten/capital-os/pkg/idempotency"
	"github.com/ChrisPatten/capital-os/pkg/ledgerstore"
	"github.com/ChrisPatten/capital-os/pkg/money"
	"github.com/ChrisPatten/capital-os/pkg/period"
	"github.com/ChrisPatten/capital-os/pkg/policy"
)

// RecordTransactionBundle handles record_transaction_bundle: the one
// write path that can itself resolve into either a committed ledger
// transaction or a deferred approval proposal, depending on what
// evaluate_transaction_policy decides. Grounded on
// original_source/.../tools/record_transaction_bundle.py, which does
// the same period-check/policy-evaluate/branch sequence before ever
// touching ledger_transactions.
func (d Deps) RecordTransactionBundle(ctx context.Context, tx *sql.Tx, payload map[string]any) (any, error) {
	sourceSystem, err := requireString(payload, "source_system")
	if err != nil {
		return nil, err
	}
	externalID, err := requireString(payload, "external_id")
	if err != nil {
		return nil, err
	}
	transactionDate, err := requireTimestamp(payload, "transaction_date")
	if err != nil {
		return nil, err
	}
	description, err := requireString(payload, "description")
	if err != nil {
		return nil, err
	}
	correlationID, err := requireString(payload, "correlation_id")
	if err != nil {
		return nil, err
	}
	entityID, err := requireString(payload, "entity_id")
	if err != nil {
		return nil, err
	}
	isAdjustingEntry := requireBool(payload, "is_adjusting_entry", false)
	adjustingReasonCode := optionalString(payload, "adjusting_reason_code")
	overridePeriodLock := requireBool(payload, "override_period_lock", false)
	transactionCategory := ""
	if s := optionalString(payload, "transaction_category"); s != nil {
		transactionCategory = *s
	}
	riskBand := ""
	if s := optionalString(payload, "risk_band"); s != nil {
		riskBand = *s
	}

	postings, err := parsePostings(payload)
	if err != nil {
		return nil, err
	}

	bundle := ledgerstore.TransactionBundle{
		SourceSystem:        sourceSystem,
		ExternalID:          externalID,
		TransactionDate:     transactionDate,
		Description:         description,
		CorrelationID:       correlationID,
		EntityID:            entityID,
		IsAdjustingEntry:    isAdjustingEntry,
		AdjustingReasonCode: adjustingReasonCode,
		Postings:            postings,
	}

	inputHash, err := canonicalize.PayloadHash(payload)
	if err != nil {
		return nil, err
	}
	bundle.InputHash = inputHash

	forceApproval, err := d.Period.EnforcePeriodWriteConstraints(ctx, tx, period.WriteConstraintPayload{
		EntityID:           entityID,
		TransactionDate:    transactionDate.Time,
		IsAdjustingEntry:   isAdjustingEntry,
		OverridePeriodLock: overridePeriodLock,
	})
	if err != nil {
		return nil, err
	}

	impactAmount, err := policy.ImpactAmount(postingAmountsOf(postings))
	if err != nil {
		return nil, err
	}

	decision, err := policy.EvaluateTransactionPolicy(ctx, d.Policy, policy.TransactionPayload{
		ToolName:            "record_transaction_bundle",
		EntityID:            entityID,
		TransactionCategory: transactionCategory,
		RiskBand:            riskBand,
		SourceSystem:        sourceSystem,
		DateUnixSeconds:     transactionDate.Time.Unix(),
	}, impactAmount, forceApproval, d.Config.ApprovalThresholdAmount)
	if err != nil {
		return nil, err
	}

	if decision.ApprovalRequired {
		return d.proposeTransaction(ctx, tx, bundle, decision, correlationID)
	}
	return d.commitTransaction(ctx, tx, bundle, correlationID)
}

// proposeTransaction defers the bundle to the approval queue instead
// of committing it directly. A duplicate (tool_name, source_system,
// external_id) is treated as a replay of the original proposal rather
// than a new one.
func (d Deps) proposeTransaction(ctx context.Context, tx *sql.Tx, bundle ledgerstore.TransactionBundle, decision policy.Decision, correlationID string) (any, error) {
	requestJSON, err := canonicalJSON(bundle)
	if err != nil {
		return nil, err
	}

	proposal := approval.Proposal{
		ToolName:              "record_transaction_bundle",
		SourceSystem:          bundle.SourceSystem,
		ExternalID:            bundle.ExternalID,
		CorrelationID:         correlationID,
		InputHash:             bundle.InputHash,
		PolicyThresholdAmount: decision.ThresholdAmount,
		ImpactAmount:          decision.ImpactAmount,
		MatchedRuleID:         decision.MatchedRuleID,
		RequiredApprovals:     decision.RequiredApprovals,
		EntityID:              bundle.EntityID,
		RequestPayload:        requestJSON,
	}

	proposalID, err := d.Approval.CreateProposal(ctx, proposal)
	if err != nil {
		if err == approval.ErrDuplicateProposal {
			existing, found, ferr := d.Approval.FindProposalBySourceExternal(ctx, proposal.ToolName, proposal.SourceSystem, proposal.ExternalID)
			if ferr != nil {
				return nil, ferr
			}
			if !found {
				return nil, err
			}
			return replayedProposalResponse(existing), nil
		}
		return nil, err
	}

	response := map[string]any{
		"status":             "proposed",
		"proposal_id":        proposalID,
		"required_approvals": decision.RequiredApprovals,
		"approvals_received": 0,
		"matched_rule_id":    decision.MatchedRuleID,
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
	if err := d.Approval.SavePartialApprovalResponse(ctx, tx, proposalID, responseJSON, outputHash); err != nil {
		return nil, err
	}
	return response, nil
}

// commitTransaction writes the bundle straight to the ledger. A
// (source_system, external_id) collision is resolved through the
// idempotency replay path rather than surfaced as an error — a
// duplicate submission is a client retry, not a failure.
func (d Deps) commitTransaction(ctx context.Context, tx *sql.Tx, bundle ledgerstore.TransactionBundle, correlationID string) (any, error) {
	transactionID, postingIDs, err := d.Ledger.InsertTransactionBundleTx(ctx, tx, bundle)
	if err != nil {
		if err == ledgerstore.ErrDuplicateKey {
			replay, rerr := idempotency.ResolveTransactionIdempotency(ctx, d.Ledger, bundle.SourceSystem, bundle.ExternalID)
			if rerr != nil {
				return nil, rerr
			}
			if replay == nil {
				return nil, err
			}
			return replay, nil
		}
		return nil, err
	}

	response := map[string]any{
		"status":         "committed",
		"transaction_id": transactionID,
		"posting_ids":    postingIDs,
		"correlation_id": correlationID,
	}
	response, outputHash, err := canonicalResponse(response)
	if err != nil {
		return nil, err
	}
	responseJSON, err := canonicalJSON(response)
	if err != nil {
		return nil, err
	}
	if err := d.Ledger.SaveTransactionResponse(ctx, tx, transactionID, responseJSON, outputHash); err != nil {
		return nil, err
	}
	return response, nil
}

// replayedProposalResponse reconstructs the stored response for an
// already-proposed bundle, with its status overridden the same way
// the ledger's own idempotency resolver does.
func replayedProposalResponse(p approval.Proposal) map[string]any {
	if p.ResponsePayload == nil {
		return map[string]any{
			"status":             "idempotent-replay",
			"proposal_id":        p.ProposalID,
			"required_approvals": p.RequiredApprovals,
			"correlation_id":     p.CorrelationID,
		}
	}
	var fields map[string]any
	if err := jsonUnmarshal(*p.ResponsePayload, &fields); err != nil {
		return map[string]any{
			"status":      "idempotent-replay",
			"proposal_id": p.ProposalID,
		}
	}
	fields["status"] = "idempotent-replay"
	return fields
}

// postingAmountsOf extracts each posting's signed amount in bundle order.
func postingAmountsOf(postings []ledgerstore.PostingInput) []money.Amount {
	out := make([]money.Amount, len(postings))
	for i, p := range postings {
		out[i] = p.Amount
	}
	return out
}

// parsePostings decodes the "postings" array: each entry is an object
// with account_id, amount, currency, and an optional memo.
func parsePostings(payload map[string]any) ([]ledgerstore.PostingInput, error) {
	raw, ok := payload["postings"]
	if !ok {
		return nil, fieldError("postings", "is required")
	}
	items, ok := raw.([]any)
	if !ok || len(items) == 0 {
		return nil, fieldError("postings", "must be a non-empty array")
	}
	out := make([]ledgerstore.PostingInput, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fieldError("postings", "each entry must be an object")
		}
		accountID, err := requireString(m, "account_id")
		if err != nil {
			return nil, err
		}
		amount, err := requireAmount(m, "amount")
		if err != nil {
			return nil, err
		}
		currency, err := requireString(m, "currency")
		if err != nil {
			return nil, err
		}
		out = append(out, ledgerstore.PostingInput{
			AccountID: accountID,
			Amount:    amount,
			Currency:  currency,
			Memo:      optionalString(m, "memo"),
		})
	}
	return out, nil
}

// jsonUnmarshal is a thin indirection so this file's only direct
// encoding/json dependency is explicit at the call site.
func jsonUnmarshal(s string, v any) error {
	return json.Unmarshal([]byte(s), v)
}
