package period

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnforcePeriodWriteConstraints_OpenAllowsWrite(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT period_id").
		WithArgs("2026-07", "e1").
		WillReturnError(sql.ErrNoRows)

	s := New(db)
	force, err := s.EnforcePeriodWriteConstraints(context.Background(), nil, WriteConstraintPayload{
		EntityID:        "e1",
		TransactionDate: time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.False(t, force)
}

func TestEnforcePeriodWriteConstraints_ClosedRequiresAdjustingEntry(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT period_id").
		WithArgs("2026-07", "e1").
		WillReturnRows(sqlmock.NewRows([]string{
			"period_id", "period_key", "entity_id", "status", "actor_id", "closed_at", "locked_at",
		}).AddRow("p1", "2026-07", "e1", string(StatusClosed), nil, nil, nil))

	s := New(db)
	_, err = s.EnforcePeriodWriteConstraints(context.Background(), nil, WriteConstraintPayload{
		EntityID:         "e1",
		TransactionDate:  time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC),
		IsAdjustingEntry: false,
	})
	var closedErr *ErrPeriodClosedRequiresAdjustingEntry
	require.ErrorAs(t, err, &closedErr)
}

func TestEnforcePeriodWriteConstraints_ClosedWithAdjustingEntryForcesApproval(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT period_id").
		WithArgs("2026-07", "e1").
		WillReturnRows(sqlmock.NewRows([]string{
			"period_id", "period_key", "entity_id", "status", "actor_id", "closed_at", "locked_at",
		}).AddRow("p1", "2026-07", "e1", string(StatusClosed), nil, nil, nil))

	s := New(db)
	force, err := s.EnforcePeriodWriteConstraints(context.Background(), nil, WriteConstraintPayload{
		EntityID:         "e1",
		TransactionDate:  time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC),
		IsAdjustingEntry: true,
	})
	require.NoError(t, err)
	assert.True(t, force)
}

func TestEnforcePeriodWriteConstraints_LockedWithoutOverrideFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT period_id").
		WithArgs("2026-07", "e1").
		WillReturnRows(sqlmock.NewRows([]string{
			"period_id", "period_key", "entity_id", "status", "actor_id", "closed_at", "locked_at",
		}).AddRow("p1", "2026-07", "e1", string(StatusLocked), nil, nil, nil))

	s := New(db)
	_, err = s.EnforcePeriodWriteConstraints(context.Background(), nil, WriteConstraintPayload{
		EntityID:        "e1",
		TransactionDate: time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC),
	})
	var lockedErr *ErrPeriodLocked
	require.ErrorAs(t, err, &lockedErr)
}

func TestClosePeriod_OnLockedReturnsAlreadyLockedWithoutRegression(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT period_id").
		WithArgs("2026-07", "e1").
		WillReturnRows(sqlmock.NewRows([]string{
			"period_id", "period_key", "entity_id", "status", "actor_id", "closed_at", "locked_at",
		}).AddRow("p1", "2026-07", "e1", string(StatusLocked), nil, nil, nil))

	s := New(db)
	result, _, err := s.ClosePeriod(context.Background(), "2026-07", "e1", "alice", time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, ResultAlreadyLocked, result)
	require.NoError(t, mock.ExpectationsWereMet())
}
