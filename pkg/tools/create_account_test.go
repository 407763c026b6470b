package tools

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisPatten/capital-os/pkg/approval"
	"github.com/ChrisPatten/capital-os/pkg/ledgerstore"
)

func TestCreateAccount_InsertsAndReturnsAccountID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO accounts").
		WillReturnResult(sqlmock.NewResult(1, 1))

	deps := Deps{Ledger: ledgerstore.New(db), Approval: approval.New(db)}
	result, err := deps.CreateAccount(context.Background(), nil, map[string]any{
		"code":         "1000",
		"name":         "Cash",
		"account_type": "asset",
		"entity_id":    "entity-1",
	})
	require.NoError(t, err)

	resp, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "created", resp["status"])
	assert.Equal(t, "1000", resp["code"])
	assert.NotEmpty(t, resp["account_id"])
	assert.NotEmpty(t, resp["output_hash"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAccount_MissingCodeIsValidationError(t *testing.T) {
	deps := Deps{}
	_, err := deps.CreateAccount(context.Background(), nil, map[string]any{
		"name":         "Cash",
		"account_type": "asset",
		"entity_id":    "entity-1",
	})
	require.Error(t, err)
}
