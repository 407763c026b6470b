package tools

import (
	"context"
	"database/sql"
	"time"
)

// ClosePeriod handles close_period. Grounded on
// original_source/.../tools/close_period.py.
func (d Deps) ClosePeriod(ctx context.Context, _ *sql.Tx, payload map[string]any) (any, error) {
	periodKey, err := requireString(payload, "period_key")
	if err != nil {
		return nil, err
	}
	entityID, err := requireString(payload, "entity_id")
	if err != nil {
		return nil, err
	}
	actorID, err := requireString(payload, "actor_id")
	if err != nil {
		return nil, err
	}
	correlationID, err := requireString(payload, "correlation_id")
	if err != nil {
		return nil, err
	}

	result, p, err := d.Period.ClosePeriod(ctx, periodKey, entityID, actorID, time.Now())
	if err != nil {
		return nil, err
	}

	response := map[string]any{
		"result":         string(result),
		"period_key":     p.PeriodKey,
		"entity_id":      p.EntityID,
		"status":         string(p.Status),
		"correlation_id": correlationID,
	}

	if d.Export != nil {
		snapshot, err := canonicalJSON(response)
		if err != nil {
			return nil, err
		}
		archiveKey, err := d.Export.Archive(ctx, p.PeriodKey, p.EntityID, []byte(snapshot))
		if err != nil {
			return nil, err
		}
		response["archive_key"] = archiveKey
	}

	response, _, err = canonicalResponse(response)
	return response, err
}

// LockPeriod handles lock_period. Grounded on
// original_source/.../tools/lock_period.py.
func (d Deps) LockPeriod(ctx context.Context, _ *sql.Tx, payload map[string]any) (any, error) {
	periodKey, err := requireString(payload, "period_key")
	if err != nil {
		return nil, err
	}
	entityID, err := requireString(payload, "entity_id")
	if err != nil {
		return nil, err
	}
	actorID, err := requireString(payload, "actor_id")
	if err != nil {
		return nil, err
	}
	correlationID, err := requireString(payload, "correlation_id")
	if err != nil {
		return nil, err
	}

	result, p, err := d.Period.LockPeriod(ctx, periodKey, entityID, actorID, time.Now())
	if err != nil {
		return nil, err
	}

	response := map[string]any{
		"result":         string(result),
		"period_key":     p.PeriodKey,
		"entity_id":      p.EntityID,
		"status":         string(p.Status),
		"correlation_id": correlationID,
	}
	response, _, err = canonicalResponse(response)
	return response, err
}
