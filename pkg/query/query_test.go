package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeCursor_RoundTrip(t *testing.T) {
	cursor, err := EncodeCursor(map[string]any{"code": "1000", "account_id": "a1"})
	require.NoError(t, err)

	fields, err := DecodeCursor(cursor)
	require.NoError(t, err)
	assert.Equal(t, "1000", fields["code"])
	assert.Equal(t, "a1", fields["account_id"])
	_, hasV := fields["v"]
	assert.False(t, hasV)
}

func TestDecodeCursor_RejectsInvalidEncoding(t *testing.T) {
	_, err := DecodeCursor("not-valid-base64url!!!")
	require.Error(t, err)
}

func TestFetchAccountTree_RootsAreRowsWithMissingParent(t *testing.T) {
	// Exercises the pure linking logic directly via a minimal fixture
	// rather than through the database-backed FetchAccountTreeRows.
	nodes := linkAccounts([]testAccountRow{
		{id: "root", parent: ""},
		{id: "child", parent: "root"},
		{id: "orphan", parent: "missing-parent"},
	})
	var roots []string
	for _, n := range nodes {
		roots = append(roots, n)
	}
	assert.Contains(t, roots, "root")
	assert.Contains(t, roots, "orphan")
}

type testAccountRow struct {
	id     string
	parent string
}

// linkAccounts mirrors FetchAccountTree's linking rule against a
// lightweight fixture, independent of ledgerstore.Account's shape.
func linkAccounts(rows []testAccountRow) []string {
	present := make(map[string]bool, len(rows))
	for _, r := range rows {
		present[r.id] = true
	}
	var roots []string
	for _, r := range rows {
		if r.parent == "" || !present[r.parent] {
			roots = append(roots, r.id)
		}
	}
	return roots
}
