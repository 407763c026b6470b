package query

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisPatten/capital-os/pkg/ledgerstore"
)

func TestReconcile_NonzeroDeltaProposesPlaceholderAdjustment(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	asOf := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("ledger_postings").
		WillReturnRows(sqlmock.NewRows([]string{"account_id", "amount"}).
			AddRow("acct-1", "100.0000"))
	mock.ExpectQuery("balance_snapshots").
		WillReturnRows(sqlmock.NewRows([]string{"account_id", "balance"}).
			AddRow("acct-1", "90.0000"))

	store := ledgerstore.New(db)
	result, err := Reconcile(context.Background(), store, "acct-1", asOf, MethodLedgerVsSnapshot, "USD", "corr-1", "hash-1")
	require.NoError(t, err)

	assert.True(t, result.HasSnapshot)
	assert.Equal(t, "-10.0000", result.Delta.String())
	require.NotNil(t, result.ProposedAdjustment)
	assert.False(t, result.ProposedAdjustment.Postings[1].AccountID == "")
	assert.Equal(t, PlaceholderOffsetAccount, result.ProposedAdjustment.Postings[1].AccountID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcile_NoSnapshotYieldsZeroDeltaNoAdjustment(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	asOf := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("ledger_postings").
		WillReturnRows(sqlmock.NewRows([]string{"account_id", "amount"}).
			AddRow("acct-1", "100.0000"))
	mock.ExpectQuery("balance_snapshots").
		WillReturnRows(sqlmock.NewRows([]string{"account_id", "balance"}))

	store := ledgerstore.New(db)
	result, err := Reconcile(context.Background(), store, "acct-1", asOf, MethodLedgerVsSnapshot, "USD", "corr-1", "hash-1")
	require.NoError(t, err)

	assert.False(t, result.HasSnapshot)
	assert.Nil(t, result.ProposedAdjustment)
	require.NoError(t, mock.ExpectationsWereMet())
}
