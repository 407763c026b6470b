// Package eventlog implements the append-only event_log table
// one row per tool invocation, written inside the
// caller's own database transaction so a rolled-back invocation never
// leaves a dangling log entry for a write it didn't commit.
package eventlog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/ChrisPatten/capital-os/pkg/canonicalize"
	"github.com/ChrisPatten/capital-os/pkg/security"
)

// Status is the terminal outcome recorded against an invocation.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Entry is one Event Log Entry row.
type Entry struct {
	EventID             string
	ToolName            string
	CorrelationID       string
	InputHash           string
	OutputHash          sql.NullString
	EventTimestamp      canonicalize.Timestamp
	DurationMS          int64
	Status              Status
	ErrorCode           sql.NullString
	ErrorMessage        sql.NullString
	ActorID             sql.NullString
	AuthnMethod         sql.NullString
	AuthorizationResult sql.NullString
	ViolationCode       sql.NullString
}

// Fields is the set of explicit overrides a caller can pass to
// LogEvent; any zero-value field falls back to the ambient security
// context on ctx, except where explicitly noted — this lets
// pre-dispatch auth/authz failures record the absence of an actor
// even when no security context was ever attached.
type Fields struct {
	ActorID             *string
	AuthnMethod         *string
	AuthorizationResult *string
	OutputHash          *string
	ErrorCode           *string
	ErrorMessage        *string
	ViolationCode       *string
}

const insertEventLog = `
INSERT INTO event_log (
	event_id, tool_name, correlation_id, input_hash, output_hash,
	event_timestamp, duration_ms, status, error_code, error_message,
	actor_id, authn_method, authorization_result, violation_code
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
`

// LogEvent appends one row to event_log within tx. Explicit fields
// override the ambient security context on ctx; fields left nil fall
// back to the ambient context when present, or to NULL when absent.
func LogEvent(ctx context.Context, tx *sql.Tx, toolName, correlationID, inputHash string, durationMS int64, status Status, fields Fields) (Entry, error) {
	ambient, hasAmbient := security.FromContext(ctx)

	entry := Entry{
		EventID:        uuid.New().String(),
		ToolName:       toolName,
		CorrelationID:  correlationID,
		InputHash:      inputHash,
		EventTimestamp: canonicalize.NewTimestamp(nowFunc()),
		DurationMS:     durationMS,
		Status:         status,
	}

	entry.ActorID = resolveNullString(fields.ActorID, hasAmbient, ambient.ActorID)
	entry.AuthnMethod = resolveNullString(fields.AuthnMethod, hasAmbient, ambient.AuthnMethod)
	entry.AuthorizationResult = resolveNullString(fields.AuthorizationResult, hasAmbient, string(ambient.AuthorizationResult))
	entry.OutputHash = optionalNullString(fields.OutputHash)
	entry.ErrorCode = optionalNullString(fields.ErrorCode)
	entry.ErrorMessage = optionalNullString(fields.ErrorMessage)
	entry.ViolationCode = optionalNullString(fields.ViolationCode)

	_, err := tx.ExecContext(ctx, insertEventLog,
		entry.EventID, entry.ToolName, entry.CorrelationID, entry.InputHash, entry.OutputHash,
		entry.EventTimestamp.Time, entry.DurationMS, entry.Status, entry.ErrorCode, entry.ErrorMessage,
		entry.ActorID, entry.AuthnMethod, entry.AuthorizationResult, entry.ViolationCode,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("eventlog: append: %w", err)
	}
	return entry, nil
}

func resolveNullString(override *string, hasAmbient bool, ambientValue string) sql.NullString {
	if override != nil {
		return sql.NullString{String: *override, Valid: *override != ""}
	}
	if hasAmbient && ambientValue != "" {
		return sql.NullString{String: ambientValue, Valid: true}
	}
	return sql.NullString{}
}

func optionalNullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
