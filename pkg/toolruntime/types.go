// Package toolruntime implements the single execute_tool entrypoint
// unknown-tool rejection, input hashing, correlation-id
// validation, ambient security-context management, one-transaction
// handler dispatch, exception-to-status mapping, and fail-closed
// event logging for write-class tools.
package toolruntime

import (
	"context"
	"database/sql"
	"regexp"

	"github.com/ChrisPatten/capital-os/pkg/security"
)

// correlationIDPattern is the correlation-id validation rule.
var correlationIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// Handler is one tool's business logic. It receives the already-open
// transaction the runtime dispatches inside, the raw payload, and the
// ambient security context (also retrievable via security.FromContext
// on ctx). It returns the canonical response value to hash and
// persist, or an error — a *ValidationError maps to a 422-class
// result, any other error to a 400-class tool_execution_error.
type Handler func(ctx context.Context, tx *sql.Tx, payload map[string]any) (response any, err error)

// ToolClass distinguishes write tools (which fail closed on a logging
// failure) from read tools (which tolerate one).
type ToolClass string

const (
	ClassRead  ToolClass = "read"
	ClassWrite ToolClass = "write"
)

// WriteClassTools is the enforced write-class list. Any tool name
// not in this set is read-class.
var WriteClassTools = map[string]bool{
	"create_account":               true,
	"update_account_metadata":      true,
	"record_transaction_bundle":    true,
	"record_balance_snapshot":      true,
	"create_or_update_obligation":  true,
	"fulfill_obligation":           true,
	"approve_proposed_transaction": true,
	"reject_proposed_transaction":  true,
	"propose_config_change":        true,
	"approve_config_change":        true,
	"close_period":                 true,
	"lock_period":                  true,
}

// ClassOf reports a tool's class per the enforced write list.
func ClassOf(toolName string) ToolClass {
	if WriteClassTools[toolName] {
		return ClassWrite
	}
	return ClassRead
}

// ToolDescriptor registers one tool's handler alongside its name, so
// the runtime can reject unknown names before touching the database.
type ToolDescriptor struct {
	Name    string
	Class   ToolClass
	Handler Handler
}

// Registry is the set of tools execute_tool can dispatch to.
type Registry map[string]ToolDescriptor

// NewRegistry builds a Registry from a list of descriptors, deriving
// Class from ClassOf when the caller leaves it unset.
func NewRegistry(descriptors ...ToolDescriptor) Registry {
	r := make(Registry, len(descriptors))
	for _, d := range descriptors {
		if d.Class == "" {
			d.Class = ClassOf(d.Name)
		}
		r[d.Name] = d
	}
	return r
}

// ValidationError maps to a 422-class result — malformed input shape,
// as opposed to a domain invariant violation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// InvocationContext is the ambient identity execute_tool attaches for
// the duration of one dispatch.
type InvocationContext struct {
	ActorID             string
	AuthnMethod         string
	AuthorizationResult security.AuthorizationResult
}

func (ic InvocationContext) toSecurityContext() security.Context {
	return security.Context{
		ActorID:             ic.ActorID,
		AuthnMethod:         ic.AuthnMethod,
		AuthorizationResult: ic.AuthorizationResult,
	}
}
