package toolruntime

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisPatten/capital-os/pkg/security"
)

func newTestRuntime(t *testing.T, registry Registry) (*Runtime, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	rt := NewRuntime(db, registry)
	rt.Now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return rt, mock, func() { db.Close() }
}

func TestExecuteTool_UnknownToolRejectedBeforeAnyDatabaseAccess(t *testing.T) {
	rt, mock, closeDB := newTestRuntime(t, NewRegistry())
	defer closeDB()

	result := rt.ExecuteTool(context.Background(), "nonexistent_tool", map[string]any{}, "corr-1", InvocationContext{})
	assert.Equal(t, ResultUnknownTool, result.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteTool_InvalidCorrelationIDLogsAndFails(t *testing.T) {
	registry := NewRegistry(ToolDescriptor{
		Name: "list_accounts",
		Handler: func(ctx context.Context, tx *sql.Tx, payload map[string]any) (any, error) {
			return map[string]any{"accounts": []any{}}, nil
		},
	})
	rt, mock, closeDB := newTestRuntime(t, registry)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO event_log").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	result := rt.ExecuteTool(context.Background(), "list_accounts", map[string]any{}, "bad correlation id!!", InvocationContext{})
	assert.Equal(t, ResultValidationError, result.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteTool_SuccessfulWriteCommitsAndLogs(t *testing.T) {
	registry := NewRegistry(ToolDescriptor{
		Name: "create_account",
		Handler: func(ctx context.Context, tx *sql.Tx, payload map[string]any) (any, error) {
			sc, ok := security.FromContext(ctx)
			assert.True(t, ok)
			assert.Equal(t, "alice", sc.ActorID)
			return map[string]any{"account_id": "acct-1"}, nil
		},
	})
	rt, mock, closeDB := newTestRuntime(t, registry)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO event_log").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	result := rt.ExecuteTool(context.Background(), "create_account", map[string]any{"code": "1000"}, "corr-1", InvocationContext{
		ActorID:             "alice",
		AuthnMethod:         "bearer_token",
		AuthorizationResult: security.AuthorizationAllowed,
	})
	assert.Equal(t, ResultOK, result.Status)
	assert.NotEmpty(t, result.OutputHash)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteTool_HandlerErrorRollsBackAndMapsToToolExecutionError(t *testing.T) {
	registry := NewRegistry(ToolDescriptor{
		Name: "record_transaction_bundle",
		Handler: func(ctx context.Context, tx *sql.Tx, payload map[string]any) (any, error) {
			return nil, errors.New("postings do not balance to zero")
		},
	})
	rt, mock, closeDB := newTestRuntime(t, registry)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO event_log").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	result := rt.ExecuteTool(context.Background(), "record_transaction_bundle", map[string]any{}, "corr-2", InvocationContext{})
	assert.Equal(t, ResultToolExecutionError, result.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteTool_ValidationErrorMapsTo422Class(t *testing.T) {
	registry := NewRegistry(ToolDescriptor{
		Name: "create_account",
		Handler: func(ctx context.Context, tx *sql.Tx, payload map[string]any) (any, error) {
			return nil, &ValidationError{Message: "code is required"}
		},
	})
	rt, mock, closeDB := newTestRuntime(t, registry)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO event_log").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	result := rt.ExecuteTool(context.Background(), "create_account", map[string]any{}, "corr-3", InvocationContext{})
	assert.Equal(t, ResultValidationError, result.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassOf_MatchesEnforcedWriteList(t *testing.T) {
	assert.Equal(t, ClassWrite, ClassOf("record_transaction_bundle"))
	assert.Equal(t, ClassRead, ClassOf("list_accounts"))
}
