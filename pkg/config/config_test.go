package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenEnvironmentUnset(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.MoneyPrecision)
	assert.Equal(t, "0.0000", cfg.ApprovalThresholdAmount.String())
	assert.Empty(t, cfg.TokenIdentities)
}

func TestLoad_RejectsInvalidBalanceSourcePolicy(t *testing.T) {
	t.Setenv("CAPITAL_OS_BALANCE_SOURCE_POLICY", "not_a_policy")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ParsesTokenIdentitiesJSON(t *testing.T) {
	t.Setenv("CAPITAL_OS_TOKEN_IDENTITIES", `{"tok-1":{"actor_id":"alice","capabilities":["ledger:write"]}}`)
	cfg, err := Load()
	require.NoError(t, err)
	require.Contains(t, cfg.TokenIdentities, "tok-1")
	assert.Equal(t, "alice", cfg.TokenIdentities["tok-1"].ActorID)
}

func TestRedacted_OmitsDatabaseURLAndTokenIdentities(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	redacted := cfg.Redacted()
	_, hasDBURL := redacted["database_url"]
	_, hasTokens := redacted["token_identities"]
	assert.False(t, hasDBURL)
	assert.False(t, hasTokens)
}
