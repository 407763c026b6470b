package tools

import (
	"context"
	"database/sql"
)

// GetConfig handles get_config: returns the redacted runtime
// configuration. Grounded on original_source/.../tools/get_config.py.
func (d Deps) GetConfig(_ context.Context, _ *sql.Tx, payload map[string]any) (any, error) {
	correlationID, err := requireString(payload, "correlation_id")
	if err != nil {
		return nil, err
	}

	response := d.Config.Redacted()
	response["correlation_id"] = correlationID
	out, _, err := canonicalResponse(response)
	return out, err
}
