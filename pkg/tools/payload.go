// Package tools adapts each tool name execute_tool can dispatch to
// onto the relevant domain package. Every handler follows the same
// shape as the original per-tool modules: parse the payload, call the
// domain service, build a canonical response map. Grounded on
// original_source/.../tools/*.py's thin-wrapper shape.
package tools

import (
	"fmt"
	"time"

	"github.com/ChrisPatten/capital-os/pkg/canonicalize"
	"github.com/ChrisPatten/capital-os/pkg/money"
	"github.com/ChrisPatten/capital-os/pkg/toolruntime"
)

func fieldError(field, reason string) *toolruntime.ValidationError {
	return &toolruntime.ValidationError{Message: fmt.Sprintf("%s: %s", field, reason)}
}

func requireString(payload map[string]any, field string) (string, error) {
	v, ok := payload[field]
	if !ok {
		return "", fieldError(field, "is required")
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fieldError(field, "must be a non-empty string")
	}
	return s, nil
}

func optionalString(payload map[string]any, field string) *string {
	v, ok := payload[field]
	if !ok || v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

func requireAmount(payload map[string]any, field string) (money.Amount, error) {
	s, err := requireString(payload, field)
	if err != nil {
		return money.Amount{}, err
	}
	amt, err := money.Parse(s)
	if err != nil {
		return money.Amount{}, fieldError(field, err.Error())
	}
	return amt, nil
}

func optionalAmount(payload map[string]any, field string) (*money.Amount, error) {
	v, ok := payload[field]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fieldError(field, "must be a string")
	}
	amt, err := money.Parse(s)
	if err != nil {
		return nil, fieldError(field, err.Error())
	}
	return &amt, nil
}

func requireTimestamp(payload map[string]any, field string) (canonicalize.Timestamp, error) {
	s, err := requireString(payload, field)
	if err != nil {
		return canonicalize.Timestamp{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return canonicalize.Timestamp{}, fieldError(field, "must be an RFC 3339 timestamp")
	}
	return canonicalize.NewTimestamp(t), nil
}

func optionalTimestamp(payload map[string]any, field string) (*canonicalize.Timestamp, error) {
	v, ok := payload[field]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fieldError(field, "must be a string")
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, fieldError(field, "must be an RFC 3339 timestamp")
	}
	ts := canonicalize.NewTimestamp(t)
	return &ts, nil
}

func requireBool(payload map[string]any, field string, defaultValue bool) bool {
	v, ok := payload[field]
	if !ok || v == nil {
		return defaultValue
	}
	b, ok := v.(bool)
	if !ok {
		return defaultValue
	}
	return b
}

func requireMap(payload map[string]any, field string) (map[string]any, error) {
	v, ok := payload[field]
	if !ok {
		return nil, fieldError(field, "is required")
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fieldError(field, "must be an object")
	}
	return m, nil
}

func optionalMap(payload map[string]any, field string) map[string]any {
	v, ok := payload[field]
	if !ok || v == nil {
		return nil
	}
	m, _ := v.(map[string]any)
	return m
}

func requireStringSlice(payload map[string]any, field string) ([]string, error) {
	v, ok := payload[field]
	if !ok {
		return nil, fieldError(field, "is required")
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, fieldError(field, "must be an array of strings")
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fieldError(field, "must be an array of strings")
		}
		out = append(out, s)
	}
	return out, nil
}

func requireObjectSlice(payload map[string]any, field string) ([]map[string]any, error) {
	v, ok := payload[field]
	if !ok {
		return nil, fieldError(field, "is required")
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, fieldError(field, "must be an array of objects")
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fieldError(field, "must be an array of objects")
		}
		out = append(out, m)
	}
	return out, nil
}

func requireInt(payload map[string]any, field string) (int, error) {
	v, ok := payload[field]
	if !ok {
		return 0, fieldError(field, "is required")
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fieldError(field, "must be an integer")
	}
	return int(f), nil
}

func optionalInt(payload map[string]any, field string, defaultValue int) int {
	v, ok := payload[field]
	if !ok || v == nil {
		return defaultValue
	}
	f, ok := v.(float64)
	if !ok {
		return defaultValue
	}
	return int(f)
}
