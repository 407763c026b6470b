package tools

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisPatten/capital-os/pkg/approval"
)

func TestApproveConfigChange_AppliesAndCommitsOnFirstApproval(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT proposal_id").
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows(proposalColumns()).AddRow(
			"p-1", configChangeToolName, "billing", "ext-1", "corr-0", "hash-0",
			"0.0000", "0.0000", string(approval.StatusProposed), nil, 1,
			"entity-1", `{"scope":"policy_rules","change_payload":{"rule":"value"}}`, nil, nil, nil, fixedTime(),
		))
	mock.ExpectExec("INSERT INTO approval_decisions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE approval_proposals").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	deps := Deps{Approval: approval.New(db)}
	tx, err := db.Begin()
	require.NoError(t, err)

	result, err := deps.ApproveConfigChange(context.Background(), tx, map[string]any{
		"proposal_id":    "p-1",
		"correlation_id": "corr-1",
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	resp := result.(map[string]any)
	assert.Equal(t, "applied", resp["status"])
	assert.Equal(t, "p-1", resp["proposal_id"])
	applied := resp["applied_change"].(map[string]any)
	assert.Equal(t, "policy_rules", applied["scope"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveConfigChange_AlreadyCommittedReturnsAlreadyApplied(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT proposal_id").
		WithArgs("p-2").
		WillReturnRows(sqlmock.NewRows(proposalColumns()).AddRow(
			"p-2", configChangeToolName, "billing", "ext-2", "corr-0", "hash-0",
			"0.0000", "0.0000", string(approval.StatusCommitted), nil, 1,
			"entity-1", `{"scope":"policy_rules","change_payload":{"rule":"value"}}`, nil, nil, nil, fixedTime(),
		))
	mock.ExpectCommit()

	deps := Deps{Approval: approval.New(db)}
	tx, err := db.Begin()
	require.NoError(t, err)

	result, err := deps.ApproveConfigChange(context.Background(), tx, map[string]any{
		"proposal_id":    "p-2",
		"correlation_id": "corr-1",
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	resp := result.(map[string]any)
	assert.Equal(t, "already_applied", resp["status"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveConfigChange_RejectedProposalReportsRejected(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT proposal_id").
		WithArgs("p-3").
		WillReturnRows(sqlmock.NewRows(proposalColumns()).AddRow(
			"p-3", configChangeToolName, "billing", "ext-3", "corr-0", "hash-0",
			"0.0000", "0.0000", string(approval.StatusRejected), nil, 1,
			"entity-1", `{"scope":"policy_rules","change_payload":{"rule":"value"}}`, nil, nil, nil, fixedTime(),
		))
	mock.ExpectCommit()

	deps := Deps{Approval: approval.New(db)}
	tx, err := db.Begin()
	require.NoError(t, err)

	result, err := deps.ApproveConfigChange(context.Background(), tx, map[string]any{
		"proposal_id":    "p-3",
		"correlation_id": "corr-1",
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	resp := result.(map[string]any)
	assert.Equal(t, "rejected", resp["status"])
	assert.Nil(t, resp["applied_change"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveConfigChange_WrongToolNameIsValidationError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT proposal_id").
		WithArgs("p-4").
		WillReturnRows(sqlmock.NewRows(proposalColumns()).AddRow(
			"p-4", "record_transaction_bundle", "billing", "ext-4", "corr-0", "hash-0",
			"0.0000", "0.0000", string(approval.StatusProposed), nil, 1,
			"entity-1", "{}", nil, nil, nil, fixedTime(),
		))
	mock.ExpectCommit()

	deps := Deps{Approval: approval.New(db)}
	tx, err := db.Begin()
	require.NoError(t, err)

	_, err = deps.ApproveConfigChange(context.Background(), tx, map[string]any{
		"proposal_id":    "p-4",
		"correlation_id": "corr-1",
	})
	require.Error(t, err)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}
