package tools

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisPatten/capital-os/pkg/period"
)

// fakeSink is a no-network export.Sink stand-in for exercising
// ClosePeriod's archival branch.
type fakeSink struct {
	key string
	err error
}

func (f *fakeSink) Archive(_ context.Context, _, _ string, _ []byte) (string, error) {
	return f.key, f.err
}

func TestClosePeriod_ArchivesWhenExportSinkConfigured(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT period_id").
		WithArgs("2026-06", "e1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO accounting_periods").
		WithArgs(sqlmock.AnyArg(), "2026-06", "e1", string(period.StatusClosed), "actor-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"period_id", "period_key", "entity_id", "status", "actor_id", "closed_at", "locked_at",
		}).AddRow("p1", "2026-06", "e1", string(period.StatusClosed), "actor-1", sqlmock.AnyArg(), nil))

	deps := Deps{
		Period: period.New(db),
		Export: &fakeSink{key: "period-close/e1/2026-06-deadbeef.json"},
	}

	result, err := deps.ClosePeriod(context.Background(), nil, map[string]any{
		"period_key":     "2026-06",
		"entity_id":      "e1",
		"actor_id":       "actor-1",
		"correlation_id": "corr-1",
	})
	require.NoError(t, err)

	resp, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "period-close/e1/2026-06-deadbeef.json", resp["archive_key"])
	assert.NotEmpty(t, resp["output_hash"])
}

func TestClosePeriod_NoArchivalWhenExportSinkNil(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT period_id").
		WithArgs("2026-06", "e1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO accounting_periods").
		WithArgs(sqlmock.AnyArg(), "2026-06", "e1", string(period.StatusClosed), "actor-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"period_id", "period_key", "entity_id", "status", "actor_id", "closed_at", "locked_at",
		}).AddRow("p1", "2026-06", "e1", string(period.StatusClosed), "actor-1", sqlmock.AnyArg(), nil))

	deps := Deps{Period: period.New(db)}

	result, err := deps.ClosePeriod(context.Background(), nil, map[string]any{
		"period_key":     "2026-06",
		"entity_id":      "e1",
		"actor_id":       "actor-1",
		"correlation_id": "corr-1",
	})
	require.NoError(t, err)

	resp, ok := result.(map[string]any)
	require.True(t, ok)
	_, hasArchiveKey := resp["archive_key"]
	assert.False(t, hasArchiveKey)
}

func TestClosePeriod_ExportSinkErrorPropagates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT period_id").
		WithArgs("2026-06", "e1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO accounting_periods").
		WithArgs(sqlmock.AnyArg(), "2026-06", "e1", string(period.StatusClosed), "actor-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"period_id", "period_key", "entity_id", "status", "actor_id", "closed_at", "locked_at",
		}).AddRow("p1", "2026-06", "e1", string(period.StatusClosed), "actor-1", sqlmock.AnyArg(), nil))

	deps := Deps{
		Period: period.New(db),
		Export: &fakeSink{err: assert.AnError},
	}

	_, err = deps.ClosePeriod(context.Background(), nil, map[string]any{
		"period_key":     "2026-06",
		"entity_id":      "e1",
		"actor_id":       "actor-1",
		"correlation_id": "corr-1",
	})
	require.Error(t, err)
}
