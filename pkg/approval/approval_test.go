package approval

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/ChrisPatten/capital-os/pkg/ledgerstore"
)

func TestDecide_RejectTransitionsTerminal(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT proposal_id").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{
			"proposal_id", "tool_name", "source_system", "external_id", "correlation_id", "input_hash",
			"policy_threshold_amount", "impact_amount", "status", "matched_rule_id", "required_approvals",
			"entity_id", "request_payload", "response_payload", "output_hash", "approved_transaction_id", "created_at",
		}).AddRow(
			"p1", "record_transaction_bundle", "plaid", "ext-1", "corr-1", "hash-in",
			"100.0000", "150.0000", string(StatusProposed), nil, 1,
			"entity-1", "{}", nil, nil, nil, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		))

	mock.ExpectExec("INSERT INTO approval_decisions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE approval_proposals").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO event_log").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	store := New(db)
	ledger := ledgerstore.New(db)
	orch := NewOrchestrator(db, store, ledger)

	reason := "duplicate charge"
	proposal, err := orch.Decide(context.Background(), "p1", ActionReject, "corr-2", nil, &reason)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, proposal.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDecide_ApprovePartialQuorumDoesNotCommitLedger(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT proposal_id").
		WithArgs("p2").
		WillReturnRows(sqlmock.NewRows([]string{
			"proposal_id", "tool_name", "source_system", "external_id", "correlation_id", "input_hash",
			"policy_threshold_amount", "impact_amount", "status", "matched_rule_id", "required_approvals",
			"entity_id", "request_payload", "response_payload", "output_hash", "approved_transaction_id", "created_at",
		}).AddRow(
			"p2", "record_transaction_bundle", "plaid", "ext-2", "corr-1", "hash-in",
			"100.0000", "150.0000", string(StatusProposed), nil, 2,
			"entity-1", "{}", nil, nil, nil, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		))

	mock.ExpectExec("INSERT INTO approval_decisions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("p2", ActionApprove).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec("UPDATE approval_proposals").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO event_log").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	store := New(db)
	ledger := ledgerstore.New(db)
	orch := NewOrchestrator(db, store, ledger)

	approver := "bob"
	proposal, err := orch.Decide(context.Background(), "p2", ActionApprove, "corr-3", &approver, nil)
	require.NoError(t, err)
	require.Equal(t, StatusProposed, proposal.Status)
	require.Nil(t, proposal.ApprovedTransactionID)
	require.NoError(t, mock.ExpectationsWereMet())
}
