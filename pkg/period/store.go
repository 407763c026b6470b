package period

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounting_periods (
	period_id TEXT PRIMARY KEY,
	period_key TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'open',
	actor_id TEXT,
	closed_at TIMESTAMP,
	locked_at TIMESTAMP,
	UNIQUE (period_key, entity_id)
);
`

// Store owns accounting_periods.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// GetPeriod loads the period row for (periodKey, entityID). A missing
// row is reported as StatusOpen with a zero PeriodID, matching spec
// §4.7's "open (or absent): return false" rule — an absent period
// behaves exactly like an open one.
func (s *Store) GetPeriod(ctx context.Context, tx *sql.Tx, periodKey, entityID string) (Period, error) {
	const q = `
		SELECT period_id, period_key, entity_id, status, actor_id, closed_at, locked_at
		FROM accounting_periods WHERE period_key = $1 AND entity_id = $2
	`
	var row *sql.Row
	if tx != nil {
		row = tx.QueryRowContext(ctx, q, periodKey, entityID)
	} else {
		row = s.db.QueryRowContext(ctx, q, periodKey, entityID)
	}

	var p Period
	var actorID sql.NullString
	var closedAt, lockedAt sql.NullTime
	err := row.Scan(&p.PeriodID, &p.PeriodKey, &p.EntityID, &p.Status, &actorID, &closedAt, &lockedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Period{PeriodKey: periodKey, EntityID: entityID, Status: StatusOpen}, nil
	}
	if err != nil {
		return Period{}, err
	}
	if actorID.Valid {
		v := actorID.String
		p.ActorID = &v
	}
	if closedAt.Valid {
		v := closedAt.Time
		p.ClosedAt = &v
	}
	if lockedAt.Valid {
		v := lockedAt.Time
		p.LockedAt = &v
	}
	return p, nil
}

// upsertStatus moves a period to newStatus, recording actorID and the
// given timestamp column. It is a no-op transition guard: callers
// decide the already-closed/already-locked responses by comparing the
// prior status before calling this.
func (s *Store) upsertStatus(ctx context.Context, periodKey, entityID, actorID string, newStatus Status, timestampColumn string, at time.Time) (Period, error) {
	periodID := uuid.New().String()
	q := `
		INSERT INTO accounting_periods (period_id, period_key, entity_id, status, actor_id, ` + timestampColumn + `)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (period_key, entity_id) DO UPDATE SET
			status = EXCLUDED.status,
			actor_id = EXCLUDED.actor_id,
			` + timestampColumn + ` = EXCLUDED.` + timestampColumn + `
		RETURNING period_id, period_key, entity_id, status, actor_id, closed_at, locked_at
	`
	row := s.db.QueryRowContext(ctx, q, periodID, periodKey, entityID, newStatus, actorID, at)

	var p Period
	var actorIDOut sql.NullString
	var closedAt, lockedAt sql.NullTime
	if err := row.Scan(&p.PeriodID, &p.PeriodKey, &p.EntityID, &p.Status, &actorIDOut, &closedAt, &lockedAt); err != nil {
		return Period{}, err
	}
	if actorIDOut.Valid {
		v := actorIDOut.String
		p.ActorID = &v
	}
	if closedAt.Valid {
		v := closedAt.Time
		p.ClosedAt = &v
	}
	if lockedAt.Valid {
		v := lockedAt.Time
		p.LockedAt = &v
	}
	return p, nil
}
