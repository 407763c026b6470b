package security

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithSecurityContext_RoundTrip(t *testing.T) {
	sc := Context{ActorID: "alice", AuthnMethod: "bearer_token", AuthorizationResult: AuthorizationAllowed}
	ctx := WithSecurityContext(context.Background(), sc)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, sc, got)
}

func TestFromContext_AbsentIsFalse(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
}

func TestAuthenticateToken(t *testing.T) {
	identities := map[string]TokenIdentity{
		"tok-1": {ActorID: "alice", Capabilities: []string{"ledger:write"}},
	}

	sc, err := AuthenticateToken(identities, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", sc.ActorID)
	assert.Equal(t, AuthorizationAllowed, sc.AuthorizationResult)

	_, err = AuthenticateToken(identities, "unknown")
	require.Error(t, err)
}

func TestAuthorizeTool(t *testing.T) {
	caps := map[string]string{"record_transaction_bundle": "ledger:write"}

	writer := Context{Capabilities: []string{"ledger:write"}}
	assert.True(t, AuthorizeTool(writer, caps, "record_transaction_bundle"))

	reader := Context{Capabilities: []string{"ledger:read"}}
	assert.False(t, AuthorizeTool(reader, caps, "record_transaction_bundle"))

	assert.True(t, AuthorizeTool(reader, caps, "list_accounts")) // unconfigured tool is open
}

func TestTrustedCLIContext_WildcardSatisfiesAnyCapability(t *testing.T) {
	sc := TrustedCLIContext()
	assert.True(t, sc.HasCapability("ledger:write"))
	assert.Equal(t, AuthorizationBypassedTrusted, sc.AuthorizationResult)
}
