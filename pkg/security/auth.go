package security

import "fmt"

// TokenIdentity is the configured shape of one entry in
// AppConfig.TokenIdentities: a bearer token maps to an actor id and a
// set of capabilities that actor may exercise.
type TokenIdentity struct {
	ActorID      string   `json:"actor_id"`
	Capabilities []string `json:"capabilities"`
}

// AuthenticateToken resolves a bearer token against the configured
// token→identity table. It never consults a database — identity
// configuration is static ("token_identities: JSON
// mapping token → {actor_id, capabilities[]}").
func AuthenticateToken(identities map[string]TokenIdentity, token string) (Context, error) {
	identity, ok := identities[token]
	if !ok {
		return Context{
			AuthnMethod:         "bearer_token",
			AuthorizationResult: AuthorizationDenied,
		}, fmt.Errorf("security: unrecognized bearer token")
	}
	return Context{
		ActorID:             identity.ActorID,
		AuthnMethod:         "bearer_token",
		AuthorizationResult: AuthorizationAllowed,
		Capabilities:        identity.Capabilities,
	}, nil
}

// AuthorizeTool checks the capability a tool requires (per
// AppConfig.ToolCapabilities) against the caller's resolved
// capability set. A tool with no configured required capability is
// open to any authenticated caller.
func AuthorizeTool(sc Context, toolCapabilities map[string]string, toolName string) bool {
	required, ok := toolCapabilities[toolName]
	if !ok || required == "" {
		return true
	}
	return sc.HasCapability(required)
}

// TrustedCLIContext is the security context the local CLI transport
// attaches to every invocation — the trusted-channel path:
// actor_id="local-cli", authn_method="trusted_cli",
// authorization_result="bypassed_trusted_channel".
func TrustedCLIContext() Context {
	return Context{
		ActorID:             "local-cli",
		AuthnMethod:         "trusted_cli",
		AuthorizationResult: AuthorizationBypassedTrusted,
		Capabilities:        []string{"*"},
	}
}
