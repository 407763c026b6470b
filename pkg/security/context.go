// Package security carries the per-invocation security context this
// system threads through every tool execution: who is calling, how
// they authenticated, and what the authorization decision was. It
// replaces the original implementation's ContextVar-based ambient
// state with an explicit value on context.Context, following this
// codebase's convention for request-scoped identity.
package security

import "context"

// AuthorizationResult enumerates the outcomes execute_tool can record
// against a single invocation.
type AuthorizationResult string

const (
	AuthorizationAllowed         AuthorizationResult = "allowed"
	AuthorizationDenied          AuthorizationResult = "denied"
	AuthorizationBypassedTrusted AuthorizationResult = "bypassed_trusted_channel"
)

// Context is the ambient actor/authn/authz triple carried on every
// request. It is attached once at the transport boundary (HTTP
// bearer-token middleware, stdio transport, or the CLI's trusted
// channel) and read by the event log and the tool runtime.
type Context struct {
	ActorID             string
	AuthnMethod         string
	AuthorizationResult AuthorizationResult
	Capabilities        []string
}

// HasCapability reports whether the context's capability set includes
// cap. The "*" wildcard (used by the trusted CLI channel) satisfies
// any requested capability.
func (c Context) HasCapability(cap string) bool {
	for _, have := range c.Capabilities {
		if have == cap || have == "*" {
			return true
		}
	}
	return false
}

type contextKey int

const securityContextKey contextKey = iota

// WithSecurityContext attaches sc to ctx.
func WithSecurityContext(ctx context.Context, sc Context) context.Context {
	return context.WithValue(ctx, securityContextKey, sc)
}

// FromContext retrieves the security context previously attached with
// WithSecurityContext. The second return value is false when no
// context was ever attached (the event log and tool runtime treat
// that as "no actor" rather than as an error, per §4.2's "explicit
// kwargs override the ambient context so pre-dispatch failures can
// record the absence of an actor").
func FromContext(ctx context.Context) (Context, bool) {
	sc, ok := ctx.Value(securityContextKey).(Context)
	return sc, ok
}
