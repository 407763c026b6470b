// Package query implements the read and reporting surface: cursor
// pagination, account balances as-of with a 3-way source policy,
// account tree assembly, and reconciliation suggestions. It reads
// through pkg/ledgerstore rather than owning any table itself.
package query

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/ChrisPatten/capital-os/pkg/canonicalize"
)

// EncodeCursor builds the base64url cursor string for the given
// ordered sort-key fields (e.g. {"code": "1000", "account_id": "..."}).
func EncodeCursor(fields map[string]any) (string, error) {
	envelope := map[string]any{"v": 1}
	for k, v := range fields {
		envelope[k] = v
	}
	jcsBytes, err := canonicalize.JCS(envelope)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(jcsBytes), nil
}

// DecodeCursor reverses EncodeCursor, returning the sort-key fields
// (with "v" stripped).
func DecodeCursor(cursor string) (map[string]any, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("query: invalid cursor encoding: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("query: invalid cursor payload: %w", err)
	}
	v, ok := fields["v"].(float64)
	if !ok || int(v) != 1 {
		return nil, fmt.Errorf("query: unsupported cursor version")
	}
	delete(fields, "v")
	return fields, nil
}
