package toolruntime

import (
	"context"
	"database/sql"
	"time"

	"github.com/ChrisPatten/capital-os/pkg/canonicalize"
	"github.com/ChrisPatten/capital-os/pkg/eventlog"
	"github.com/ChrisPatten/capital-os/pkg/security"
)

// ResultStatus enumerates execute_tool's terminal outcome classes.
type ResultStatus string

const (
	ResultOK                 ResultStatus = "ok"
	ResultUnknownTool        ResultStatus = "unknown_tool"
	ResultValidationError    ResultStatus = "validation_error"
	ResultToolExecutionError ResultStatus = "tool_execution_error"
	ResultEventLogFailure    ResultStatus = "event_log_failure"
)

// ToolResult is execute_tool's uniform return value.
type ToolResult struct {
	Status       ResultStatus
	Response     any
	OutputHash   string
	ErrorCode    string
	ErrorMessage string
}

// Runtime owns the registry and the database handle every dispatch
// transacts against.
type Runtime struct {
	DB       *sql.DB
	Registry Registry
	Now      func() time.Time
}

// NewRuntime builds a Runtime. now defaults to time.Now when nil.
func NewRuntime(db *sql.DB, registry Registry) *Runtime {
	return &Runtime{DB: db, Registry: registry, Now: time.Now}
}

// ExecuteTool implements the seven-step tool-execution algorithm.
func (r *Runtime) ExecuteTool(ctx context.Context, toolName string, payload map[string]any, correlationID string, invocation InvocationContext) ToolResult {
	start := r.now()

	descriptor, ok := r.Registry[toolName]
	if !ok {
		return ToolResult{Status: ResultUnknownTool, ErrorCode: "unknown_tool", ErrorMessage: "no such tool: " + toolName}
	}

	inputHash, err := canonicalize.PayloadHash(payload)
	if err != nil {
		return ToolResult{Status: ResultValidationError, ErrorCode: "invalid_payload", ErrorMessage: err.Error()}
	}

	if !correlationIDPattern.MatchString(correlationID) {
		r.logValidationFailure(ctx, toolName, correlationID, inputHash, start, invocation, descriptor.Class)
		return ToolResult{
			Status:       ResultValidationError,
			ErrorCode:    "invalid_correlation_id",
			ErrorMessage: "correlation_id must match ^[A-Za-z0-9._:-]{1,128}$",
		}
	}

	// A derived ctx carries the security context only for the
	// duration of this dispatch; the caller's own ctx is untouched and
	// never sees it, so there is nothing to explicitly clear on exit.
	ctx = security.WithSecurityContext(ctx, invocation.toSecurityContext())

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return r.finish(ctx, tx, toolName, correlationID, inputHash, start, descriptor.Class,
			ToolResult{Status: ResultToolExecutionError, ErrorCode: "begin_transaction_failed", ErrorMessage: err.Error()}, false)
	}

	response, handlerErr := descriptor.Handler(ctx, tx, payload)
	if handlerErr != nil {
		_ = tx.Rollback()
		result := mapHandlerError(handlerErr)
		return r.finish(ctx, nil, toolName, correlationID, inputHash, start, descriptor.Class, result, false)
	}

	outputHash, err := canonicalize.PayloadHash(response)
	if err != nil {
		_ = tx.Rollback()
		result := ToolResult{Status: ResultToolExecutionError, ErrorCode: "output_hash_failed", ErrorMessage: err.Error()}
		return r.finish(ctx, nil, toolName, correlationID, inputHash, start, descriptor.Class, result, false)
	}

	result := ToolResult{Status: ResultOK, Response: response, OutputHash: outputHash}
	return r.finish(ctx, tx, toolName, correlationID, inputHash, start, descriptor.Class, result, true)
}

// finish logs the outcome and, when a still-open tx was supplied,
// commits or rolls it back based on whether logging itself succeeded.
// Write-class tools fail closed: a logging failure rolls back an
// otherwise-successful handler result. Read-class tools tolerate a
// logging failure and still return the handler's result.
func (r *Runtime) finish(ctx context.Context, tx *sql.Tx, toolName, correlationID, inputHash string, start time.Time, class ToolClass, result ToolResult, commitOnSuccess bool) ToolResult {
	durationMS := r.now().Sub(start).Milliseconds()

	logStatus := eventlog.StatusOK
	fields := eventlog.Fields{}
	if result.Status != ResultOK {
		logStatus = eventlog.StatusError
		errCode := result.ErrorCode
		errMsg := result.ErrorMessage
		fields.ErrorCode = &errCode
		fields.ErrorMessage = &errMsg
		if result.Status == ResultValidationError || result.Status == ResultUnknownTool {
			violation := string(result.Status)
			fields.ViolationCode = &violation
		}
	} else {
		outputHash := result.OutputHash
		fields.OutputHash = &outputHash
	}

	var logErr error
	if tx != nil {
		_, logErr = eventlog.LogEvent(ctx, tx, toolName, correlationID, inputHash, durationMS, logStatus, fields)
	}

	if tx == nil {
		return result
	}

	if logErr != nil {
		_ = tx.Rollback()
		if class == ClassWrite {
			return ToolResult{
				Status:       ResultEventLogFailure,
				ErrorCode:    "event_log_failure",
				ErrorMessage: logErr.Error(),
			}
		}
		// Read-class: logging failure is tolerated; surface the
		// handler's own result unchanged.
		return result
	}

	if commitOnSuccess {
		if err := tx.Commit(); err != nil {
			return ToolResult{Status: ResultToolExecutionError, ErrorCode: "commit_failed", ErrorMessage: err.Error()}
		}
		return result
	}

	_ = tx.Rollback()
	return result
}

// logValidationFailure records a pre-dispatch correlation-id rejection.
// This must still fail closed for write-class tools:
// there is no handler transaction to roll back, but the event log
// append itself happens in its own short transaction so the failure
// is still durably recorded.
func (r *Runtime) logValidationFailure(ctx context.Context, toolName, correlationID, inputHash string, start time.Time, invocation InvocationContext, class ToolClass) {
	ctx = security.WithSecurityContext(ctx, invocation.toSecurityContext())
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return
	}
	violation := "invalid_correlation_id"
	errCode := "invalid_correlation_id"
	errMsg := "correlation_id failed validation"
	_, _ = eventlog.LogEvent(ctx, tx, toolName, correlationID, inputHash, r.now().Sub(start).Milliseconds(), eventlog.StatusError, eventlog.Fields{
		ErrorCode:     &errCode,
		ErrorMessage:  &errMsg,
		ViolationCode: &violation,
	})
	_ = tx.Commit()
}

func mapHandlerError(err error) ToolResult {
	if ve, ok := err.(*ValidationError); ok {
		return ToolResult{Status: ResultValidationError, ErrorCode: "validation_error", ErrorMessage: ve.Message}
	}
	return ToolResult{Status: ResultToolExecutionError, ErrorCode: "tool_execution_error", ErrorMessage: err.Error()}
}

func (r *Runtime) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
