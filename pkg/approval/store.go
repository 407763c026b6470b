package approval

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ChrisPatten/capital-os/pkg/money"
)

const schema = `
CREATE TABLE IF NOT EXISTS approval_proposals (
	proposal_id TEXT PRIMARY KEY,
	tool_name TEXT NOT NULL,
	source_system TEXT NOT NULL,
	external_id TEXT NOT NULL,
	correlation_id TEXT NOT NULL,
	input_hash TEXT NOT NULL,
	policy_threshold_amount TEXT NOT NULL,
	impact_amount TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'proposed',
	matched_rule_id TEXT,
	required_approvals INTEGER NOT NULL DEFAULT 1,
	entity_id TEXT NOT NULL,
	request_payload TEXT NOT NULL,
	response_payload TEXT,
	output_hash TEXT,
	approved_transaction_id TEXT,
	created_at TIMESTAMP NOT NULL DEFAULT now(),
	UNIQUE (tool_name, source_system, external_id)
);

CREATE TABLE IF NOT EXISTS approval_decisions (
	decision_id TEXT PRIMARY KEY,
	proposal_id TEXT NOT NULL REFERENCES approval_proposals(proposal_id),
	action TEXT NOT NULL,
	correlation_id TEXT NOT NULL,
	approver_id TEXT,
	reason TEXT,
	created_at TIMESTAMP NOT NULL DEFAULT now(),
	UNIQUE (proposal_id, action, approver_id)
);

CREATE OR REPLACE FUNCTION reject_approval_mutation() RETURNS trigger AS $$
BEGIN
	RAISE EXCEPTION 'approval_decisions is append-only';
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS trg_approval_decisions_append_only ON approval_decisions;
CREATE TRIGGER trg_approval_decisions_append_only
	BEFORE UPDATE OR DELETE ON approval_decisions
	FOR EACH ROW EXECUTE FUNCTION reject_approval_mutation();
`

// Store owns approval_proposals and approval_decisions.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// ErrDuplicateProposal mirrors ledgerstore.ErrDuplicateKey for the
// proposal's own natural key.
var ErrDuplicateProposal = errors.New("approval: duplicate (tool_name, source_system, external_id)")

// CreateProposal inserts a new proposal in status "proposed".
func (s *Store) CreateProposal(ctx context.Context, p Proposal) (string, error) {
	if p.ProposalID == "" {
		p.ProposalID = uuid.New().String()
	}
	if p.Status == "" {
		p.Status = StatusProposed
	}
	const insert = `
		INSERT INTO approval_proposals
			(proposal_id, tool_name, source_system, external_id, correlation_id, input_hash,
			 policy_threshold_amount, impact_amount, status, matched_rule_id, required_approvals,
			 entity_id, request_payload)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`
	_, err := s.db.ExecContext(ctx, insert,
		p.ProposalID, p.ToolName, p.SourceSystem, p.ExternalID, p.CorrelationID, p.InputHash,
		p.PolicyThresholdAmount.String(), p.ImpactAmount.String(), p.Status, p.MatchedRuleID, p.RequiredApprovals,
		p.EntityID, p.RequestPayload,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return "", ErrDuplicateProposal
	}
	return p.ProposalID, err
}

// ErrProposalNotFound is returned by GetProposal when no such
// proposal exists.
var ErrProposalNotFound = errors.New("approval: proposal not found")

// GetProposal loads a proposal by id, locking the row FOR UPDATE when
// tx is non-nil so a commit decision serializes against concurrent
// approves on the same proposal.
func (s *Store) GetProposal(ctx context.Context, tx *sql.Tx, proposalID string) (Proposal, error) {
	query := `
		SELECT proposal_id, tool_name, source_system, external_id, correlation_id, input_hash,
			policy_threshold_amount, impact_amount, status, matched_rule_id, required_approvals,
			entity_id, request_payload, response_payload, output_hash, approved_transaction_id, created_at
		FROM approval_proposals WHERE proposal_id = $1
	`
	if tx != nil {
		query += " FOR UPDATE"
	}

	var row *sql.Row
	if tx != nil {
		row = tx.QueryRowContext(ctx, query, proposalID)
	} else {
		row = s.db.QueryRowContext(ctx, query, proposalID)
	}

	var p Proposal
	var matchedRule, responsePayload, outputHash, approvedTxnID sql.NullString
	var thresholdStr, impactStr string
	err := row.Scan(&p.ProposalID, &p.ToolName, &p.SourceSystem, &p.ExternalID, &p.CorrelationID, &p.InputHash,
		&thresholdStr, &impactStr, &p.Status, &matchedRule, &p.RequiredApprovals,
		&p.EntityID, &p.RequestPayload, &responsePayload, &outputHash, &approvedTxnID, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Proposal{}, ErrProposalNotFound
		}
		return Proposal{}, err
	}

	p.PolicyThresholdAmount, err = money.Parse(thresholdStr)
	if err != nil {
		return Proposal{}, err
	}
	p.ImpactAmount, err = money.Parse(impactStr)
	if err != nil {
		return Proposal{}, err
	}
	p.MatchedRuleID = nullableString(matchedRule)
	p.ResponsePayload = nullableString(responsePayload)
	p.OutputHash = nullableString(outputHash)
	p.ApprovedTransactionID = nullableString(approvedTxnID)
	return p, nil
}

// FindProposalBySourceExternal looks up a proposal by its natural key
// (tool_name, source_system, external_id) — used by tools like
// propose_config_change that need to detect a replayed request before
// inserting, rather than relying on CreateProposal's unique-violation
// error.
func (s *Store) FindProposalBySourceExternal(ctx context.Context, toolName, sourceSystem, externalID string) (Proposal, bool, error) {
	query := `
		SELECT proposal_id, tool_name, source_system, external_id, correlation_id, input_hash,
			policy_threshold_amount, impact_amount, status, matched_rule_id, required_approvals,
			entity_id, request_payload, response_payload, output_hash, approved_transaction_id, created_at
		FROM approval_proposals WHERE tool_name = $1 AND source_system = $2 AND external_id = $3
	`
	row := s.db.QueryRowContext(ctx, query, toolName, sourceSystem, externalID)

	var p Proposal
	var matchedRule, responsePayload, outputHash, approvedTxnID sql.NullString
	var thresholdStr, impactStr string
	err := row.Scan(&p.ProposalID, &p.ToolName, &p.SourceSystem, &p.ExternalID, &p.CorrelationID, &p.InputHash,
		&thresholdStr, &impactStr, &p.Status, &matchedRule, &p.RequiredApprovals,
		&p.EntityID, &p.RequestPayload, &responsePayload, &outputHash, &approvedTxnID, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Proposal{}, false, nil
		}
		return Proposal{}, false, err
	}

	p.PolicyThresholdAmount, err = money.Parse(thresholdStr)
	if err != nil {
		return Proposal{}, false, err
	}
	p.ImpactAmount, err = money.Parse(impactStr)
	if err != nil {
		return Proposal{}, false, err
	}
	p.MatchedRuleID = nullableString(matchedRule)
	p.ResponsePayload = nullableString(responsePayload)
	p.OutputHash = nullableString(outputHash)
	p.ApprovedTransactionID = nullableString(approvedTxnID)
	return p, true, nil
}

// ListProposalsPage fetches proposals ordered by
// (created_at desc, proposal_id asc).
func (s *Store) ListProposalsPage(ctx context.Context, afterCreatedAtUnix int64, afterID string, hasAfter bool, limit int) ([]Proposal, error) {
	const q = `
		SELECT proposal_id, tool_name, source_system, external_id, correlation_id, input_hash,
			policy_threshold_amount, impact_amount, status, matched_rule_id, required_approvals,
			entity_id, request_payload, response_payload, output_hash, approved_transaction_id, created_at
		FROM approval_proposals
		WHERE $3 = false OR (EXTRACT(EPOCH FROM created_at), proposal_id) < ($1, $2)
		ORDER BY created_at DESC, proposal_id ASC
		LIMIT $4
	`
	rows, err := s.db.QueryContext(ctx, q, afterCreatedAtUnix, afterID, !hasAfter, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Proposal
	for rows.Next() {
		var p Proposal
		var matchedRule, responsePayload, outputHash, approvedTxnID sql.NullString
		var thresholdStr, impactStr string
		if err := rows.Scan(&p.ProposalID, &p.ToolName, &p.SourceSystem, &p.ExternalID, &p.CorrelationID, &p.InputHash,
			&thresholdStr, &impactStr, &p.Status, &matchedRule, &p.RequiredApprovals,
			&p.EntityID, &p.RequestPayload, &responsePayload, &outputHash, &approvedTxnID, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.PolicyThresholdAmount, err = money.Parse(thresholdStr)
		if err != nil {
			return nil, err
		}
		p.ImpactAmount, err = money.Parse(impactStr)
		if err != nil {
			return nil, err
		}
		p.MatchedRuleID = nullableString(matchedRule)
		p.ResponsePayload = nullableString(responsePayload)
		p.OutputHash = nullableString(outputHash)
		p.ApprovedTransactionID = nullableString(approvedTxnID)
		out = append(out, p)
	}
	return out, rows.Err()
}

// InsertDecision records an approve/reject decision. Duplicate
// (proposal_id, action, approver_id) is a no-op — the
// caller distinguishes "freshly inserted" from "already recorded" via
// the inserted return value.
func (s *Store) InsertDecision(ctx context.Context, tx *sql.Tx, d Decision) (inserted bool, err error) {
	if d.DecisionID == "" {
		d.DecisionID = uuid.New().String()
	}
	const insert = `
		INSERT INTO approval_decisions (decision_id, proposal_id, action, correlation_id, approver_id, reason)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (proposal_id, action, approver_id) DO NOTHING
	`
	res, err := tx.ExecContext(ctx, insert, d.DecisionID, d.ProposalID, d.Action, d.CorrelationID, d.ApproverID, d.Reason)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// CountDistinctApprovers counts distinct approver_id values recorded
// against an "approve" decision for proposalID — the M-of-N commit
// trigger check.
func (s *Store) CountDistinctApprovers(ctx context.Context, tx *sql.Tx, proposalID string) (int, error) {
	const q = `
		SELECT COUNT(DISTINCT approver_id) FROM approval_decisions
		WHERE proposal_id = $1 AND action = $2
	`
	var count int
	err := tx.QueryRowContext(ctx, q, proposalID, ActionApprove).Scan(&count)
	return count, err
}

// MarkCommitted transitions a proposal to committed, linking the
// transaction that resulted and saving the canonical response.
func (s *Store) MarkCommitted(ctx context.Context, tx *sql.Tx, proposalID, transactionID, responsePayload, outputHash string) error {
	const update = `
		UPDATE approval_proposals
		SET status = $1, approved_transaction_id = $2, response_payload = $3, output_hash = $4
		WHERE proposal_id = $5 AND status = $6
	`
	res, err := tx.ExecContext(ctx, update, StatusCommitted, transactionID, responsePayload, outputHash, proposalID, StatusProposed)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return &ErrTerminalProposal{ProposalID: proposalID, Status: StatusCommitted, Action: ActionApprove}
	}
	return nil
}

// SavePartialApprovalResponse stores the byte-stable partial-approval
// response for an M-of-N proposal that has not yet reached quorum.
func (s *Store) SavePartialApprovalResponse(ctx context.Context, tx *sql.Tx, proposalID, responsePayload, outputHash string) error {
	const update = `UPDATE approval_proposals SET response_payload = $1, output_hash = $2 WHERE proposal_id = $3`
	_, err := tx.ExecContext(ctx, update, responsePayload, outputHash, proposalID)
	return err
}

// MarkRejected transitions a proposal to rejected, saving the
// canonical reject response.
func (s *Store) MarkRejected(ctx context.Context, tx *sql.Tx, proposalID, responsePayload, outputHash string) error {
	const update = `
		UPDATE approval_proposals
		SET status = $1, response_payload = $2, output_hash = $3
		WHERE proposal_id = $4 AND status = $5
	`
	res, err := tx.ExecContext(ctx, update, StatusRejected, responsePayload, outputHash, proposalID, StatusProposed)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return &ErrTerminalProposal{ProposalID: proposalID, Status: StatusRejected, Action: ActionReject}
	}
	return nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
