package tools

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisPatten/capital-os/pkg/approval"
)

func fixedTime() time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
}

func proposalColumns() []string {
	return []string{
		"proposal_id", "tool_name", "source_system", "external_id", "correlation_id", "input_hash",
		"policy_threshold_amount", "impact_amount", "status", "matched_rule_id", "required_approvals",
		"entity_id", "request_payload", "response_payload", "output_hash", "approved_transaction_id", "created_at",
	}
}

func TestProposeConfigChange_CreatesNewProposalWhenNoneExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT proposal_id").
		WithArgs(configChangeToolName, "billing", "ext-1").
		WillReturnRows(sqlmock.NewRows(proposalColumns()))
	mock.ExpectExec("INSERT INTO approval_proposals").
		WillReturnResult(sqlmock.NewResult(1, 1))

	deps := Deps{Approval: approval.New(db)}
	result, err := deps.ProposeConfigChange(context.Background(), nil, map[string]any{
		"source_system":  "billing",
		"external_id":    "ext-1",
		"scope":          "policy_rules",
		"change_payload": map[string]any{"rule": "value"},
		"correlation_id": "corr-1",
	})
	require.NoError(t, err)

	resp := result.(map[string]any)
	assert.Equal(t, "proposed", resp["status"])
	assert.Equal(t, 1, resp["required_approvals"])
	assert.Equal(t, 0, resp["approvals_received"])
	assert.NotEmpty(t, resp["proposal_id"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProposeConfigChange_ReplayReturnsExistingProposal(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT proposal_id").
		WithArgs(configChangeToolName, "billing", "ext-1").
		WillReturnRows(sqlmock.NewRows(proposalColumns()).AddRow(
			"existing-proposal", configChangeToolName, "billing", "ext-1", "corr-0", "hash-0",
			"0.0000", "0.0000", string(approval.StatusProposed), nil, 1,
			"", `{"scope":"policy_rules","change_payload":{"rule":"value"}}`, nil, nil, nil, fixedTime(),
		))

	deps := Deps{Approval: approval.New(db)}
	result, err := deps.ProposeConfigChange(context.Background(), nil, map[string]any{
		"source_system":  "billing",
		"external_id":    "ext-1",
		"scope":          "policy_rules",
		"change_payload": map[string]any{"rule": "value"},
		"correlation_id": "corr-1",
	})
	require.NoError(t, err)

	resp := result.(map[string]any)
	assert.Equal(t, "idempotent-replay", resp["status"])
	assert.Equal(t, "existing-proposal", resp["proposal_id"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProposeConfigChange_MissingChangePayloadIsValidationError(t *testing.T) {
	deps := Deps{}
	_, err := deps.ProposeConfigChange(context.Background(), nil, map[string]any{
		"source_system":  "billing",
		"external_id":    "ext-1",
		"scope":          "policy_rules",
		"correlation_id": "corr-1",
	})
	require.Error(t, err)
}
