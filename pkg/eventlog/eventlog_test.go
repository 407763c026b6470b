package eventlog

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/ChrisPatten/capital-os/pkg/security"
)

func TestLogEvent_UsesAmbientSecurityContext(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	nowFunc = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	defer func() { nowFunc = time.Now }()

	mock.ExpectExec("INSERT INTO event_log").
		WithArgs(
			sqlmock.AnyArg(), "record_transaction_bundle", "corr-1", "hash-in", sqlmock.AnyArg(),
			sqlmock.AnyArg(), int64(12), StatusOK, sqlmock.AnyArg(), sqlmock.AnyArg(),
			"alice", "bearer_token", "allowed", sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	tx, err := db.Begin()
	require.NoError(t, err)

	ctx := security.WithSecurityContext(context.Background(), security.Context{
		ActorID:             "alice",
		AuthnMethod:         "bearer_token",
		AuthorizationResult: security.AuthorizationAllowed,
	})

	_, err = LogEvent(ctx, tx, "record_transaction_bundle", "corr-1", "hash-in", 12, StatusOK, Fields{})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLogEvent_ExplicitFieldsOverrideAmbient(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO event_log").
		WithArgs(
			sqlmock.AnyArg(), "create_account", "corr-2", "hash-in", sqlmock.AnyArg(),
			sqlmock.AnyArg(), int64(1), StatusError, "validation_error", "bad input",
			sqlmock.AnyArg(), sqlmock.AnyArg(), "denied", sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	tx, err := db.Begin()
	require.NoError(t, err)

	errCode := "validation_error"
	errMsg := "bad input"
	authzResult := "denied"
	_, err = LogEvent(context.Background(), tx, "create_account", "corr-2", "hash-in", 1, StatusError, Fields{
		ErrorCode:           &errCode,
		ErrorMessage:        &errMsg,
		AuthorizationResult: &authzResult,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}
