package approval

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ChrisPatten/capital-os/pkg/canonicalize"
	"github.com/ChrisPatten/capital-os/pkg/eventlog"
	"github.com/ChrisPatten/capital-os/pkg/ledgerstore"
)

// Orchestrator composes the approval Store with the ledger Store and
// the database handle that owns transactions spanning both, so a
// commit decision can write the deferred transaction bundle, save its
// response, and append the event log entry atomically.
type Orchestrator struct {
	DB     *sql.DB
	Store  *Store
	Ledger *ledgerstore.Store
}

func NewOrchestrator(db *sql.DB, store *Store, ledger *ledgerstore.Store) *Orchestrator {
	return &Orchestrator{DB: db, Store: store, Ledger: ledger}
}

// Decide applies an approve or reject decision to a proposal. On
// approve, it either records a partial decision (M-of-N not yet at
// quorum) or commits the deferred transaction bundle once quorum is
// reached; on reject, it terminates the proposal. All mutations happen
// in one database transaction, including the event log append.
func (o *Orchestrator) Decide(ctx context.Context, proposalID string, action Action, correlationID string, approverID *string, reason *string) (Proposal, error) {
	start := time.Now()
	tx, err := o.DB.BeginTx(ctx, nil)
	if err != nil {
		return Proposal{}, err
	}
	committedOK := false
	defer func() {
		if !committedOK {
			_ = tx.Rollback()
		}
	}()

	proposal, err := o.Store.GetProposal(ctx, tx, proposalID)
	if err != nil {
		return Proposal{}, err
	}

	// Idempotent replay: the same terminal action on an
	// already-terminal proposal returns the stored response rather
	// than erroring, so a retried approve/reject is safe to resend.
	if proposal.Status == StatusCommitted && action == ActionApprove {
		if cerr := tx.Commit(); cerr != nil {
			return Proposal{}, cerr
		}
		committedOK = true
		return proposal, nil
	}
	if proposal.Status == StatusRejected && action == ActionReject {
		if cerr := tx.Commit(); cerr != nil {
			return Proposal{}, cerr
		}
		committedOK = true
		return proposal, nil
	}
	if proposal.Status != StatusProposed {
		return Proposal{}, &ErrTerminalProposal{ProposalID: proposalID, Status: proposal.Status, Action: action}
	}

	decision := Decision{
		ProposalID:    proposalID,
		Action:        action,
		CorrelationID: correlationID,
		ApproverID:    approverID,
		Reason:        reason,
	}
	inserted, err := o.Store.InsertDecision(ctx, tx, decision)
	if err != nil {
		return Proposal{}, err
	}

	switch action {
	case ActionReject:
		proposal, err = o.reject(ctx, tx, proposal, reason)
	case ActionApprove:
		proposal, err = o.approve(ctx, tx, proposal, start)
	default:
		return Proposal{}, fmt.Errorf("approval: unknown action %q", action)
	}
	if err != nil {
		return Proposal{}, err
	}
	_ = inserted // duplicate decisions are a no-op; quorum recount below already reflects reality

	durationMS := time.Since(start).Milliseconds()
	status := eventlog.StatusOK
	_, logErr := eventlog.LogEvent(ctx, tx, "approval_decision", correlationID, proposal.InputHash, durationMS, status, eventlog.Fields{})
	if logErr != nil {
		return Proposal{}, logErr
	}

	if err := tx.Commit(); err != nil {
		return Proposal{}, err
	}
	committedOK = true
	return proposal, nil
}

func (o *Orchestrator) reject(ctx context.Context, tx *sql.Tx, proposal Proposal, reason *string) (Proposal, error) {
	response := map[string]any{
		"status":      "rejected",
		"proposal_id": proposal.ProposalID,
	}
	if reason != nil {
		response["reason"] = *reason
	}
	payload, hash, err := canonicalResponse(response)
	if err != nil {
		return Proposal{}, err
	}
	if err := o.Store.MarkRejected(ctx, tx, proposal.ProposalID, payload, hash); err != nil {
		return Proposal{}, err
	}
	proposal.Status = StatusRejected
	proposal.ResponsePayload = &payload
	proposal.OutputHash = &hash
	return proposal, nil
}

func (o *Orchestrator) approve(ctx context.Context, tx *sql.Tx, proposal Proposal, start time.Time) (Proposal, error) {
	approverCount, err := o.Store.CountDistinctApprovers(ctx, tx, proposal.ProposalID)
	if err != nil {
		return Proposal{}, err
	}

	if approverCount < proposal.RequiredApprovals {
		response := map[string]any{
			"status":             "pending-approval",
			"proposal_id":        proposal.ProposalID,
			"approvals_received": approverCount,
			"approvals_required": proposal.RequiredApprovals,
		}
		payload, hash, err := canonicalResponse(response)
		if err != nil {
			return Proposal{}, err
		}
		if err := o.Store.SavePartialApprovalResponse(ctx, tx, proposal.ProposalID, payload, hash); err != nil {
			return Proposal{}, err
		}
		proposal.ResponsePayload = &payload
		proposal.OutputHash = &hash
		return proposal, nil
	}

	var bundle ledgerstore.TransactionBundle
	if err := json.Unmarshal([]byte(proposal.RequestPayload), &bundle); err != nil {
		return Proposal{}, fmt.Errorf("approval: decoding deferred transaction bundle: %w", err)
	}

	transactionID, _, err := o.Ledger.InsertTransactionBundleTx(ctx, tx, bundle)
	if err != nil {
		return Proposal{}, err
	}

	response := map[string]any{
		"status":         "committed",
		"proposal_id":    proposal.ProposalID,
		"transaction_id": transactionID,
	}
	payload, hash, err := canonicalResponse(response)
	if err != nil {
		return Proposal{}, err
	}
	if err := o.Ledger.SaveTransactionResponse(ctx, tx, transactionID, payload, hash); err != nil {
		return Proposal{}, err
	}
	if err := o.Store.MarkCommitted(ctx, tx, proposal.ProposalID, transactionID, payload, hash); err != nil {
		return Proposal{}, err
	}

	proposal.Status = StatusCommitted
	proposal.ApprovedTransactionID = &transactionID
	proposal.ResponsePayload = &payload
	proposal.OutputHash = &hash
	return proposal, nil
}

func canonicalResponse(v map[string]any) (payload string, hash string, err error) {
	jcsBytes, err := canonicalize.JCS(v)
	if err != nil {
		return "", "", err
	}
	h, err := canonicalize.CanonicalHash(v)
	if err != nil {
		return "", "", err
	}
	return string(jcsBytes), h, nil
}
