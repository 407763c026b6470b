package policy

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/ChrisPatten/capital-os/pkg/money"
)

const schema = `
CREATE TABLE IF NOT EXISTS policy_rules (
	rule_id TEXT PRIMARY KEY,
	priority INTEGER NOT NULL,
	tool_name TEXT,
	entity_id TEXT,
	transaction_category TEXT,
	risk_band TEXT,
	velocity_limit_count INTEGER,
	velocity_window_seconds INTEGER,
	threshold_amount TEXT NOT NULL,
	required_approvals INTEGER NOT NULL DEFAULT 1,
	active BOOLEAN NOT NULL DEFAULT true,
	cel_expression TEXT,
	metadata JSONB
);
`

// Store owns policy_rules and reads ledger_transactions for velocity
// counting — it shares the same database as ledgerstore (there is
// "the database is the only shared mutable resource") without
// depending on ledgerstore's package, since it only ever reads.
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

// ListActiveRules loads active rules ordered by (priority asc,
// rule_id asc), the order rule evaluation requires.
func (s *Store) ListActiveRules(ctx context.Context) ([]Rule, error) {
	const q = `
		SELECT rule_id, priority, tool_name, entity_id, transaction_category, risk_band,
			velocity_limit_count, velocity_window_seconds, threshold_amount, required_approvals,
			active, cel_expression, metadata
		FROM policy_rules
		WHERE active = true
		ORDER BY priority ASC, rule_id ASC
	`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rule
	for rows.Next() {
		var r Rule
		var toolName, entityID, category, riskBand, celExpr sql.NullString
		var velocityCount, velocityWindow sql.NullInt64
		var thresholdStr string
		var metaRaw []byte
		if err := rows.Scan(&r.RuleID, &r.Priority, &toolName, &entityID, &category, &riskBand,
			&velocityCount, &velocityWindow, &thresholdStr, &r.RequiredApprovals, &r.Active, &celExpr, &metaRaw); err != nil {
			return nil, err
		}
		r.ToolName = nullableString(toolName)
		r.EntityID = nullableString(entityID)
		r.TransactionCategory = nullableString(category)
		r.RiskBand = nullableString(riskBand)
		r.CELExpression = nullableString(celExpr)
		if velocityCount.Valid {
			v := int(velocityCount.Int64)
			r.VelocityLimitCount = &v
		}
		if velocityWindow.Valid {
			v := int(velocityWindow.Int64)
			r.VelocityWindowSeconds = &v
		}
		threshold, err := money.Parse(thresholdStr)
		if err != nil {
			return nil, err
		}
		r.ThresholdAmount = threshold
		if len(metaRaw) > 0 {
			if err := json.Unmarshal(metaRaw, &r.Metadata); err != nil {
				return nil, err
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// CountTransactionsInWindow counts prior transactions in
// (source_system, entity_id) whose transaction_date falls in
// [windowStart, asOf], the window the velocity predicate counts over.
func (s *Store) CountTransactionsInWindow(ctx context.Context, sourceSystem, entityID string, windowStart, asOf int64) (int, error) {
	const q = `
		SELECT COUNT(*) FROM ledger_transactions
		WHERE source_system = $1 AND entity_id = $2
		AND EXTRACT(EPOCH FROM transaction_date) BETWEEN $3 AND $4
	`
	var count int
	err := s.db.QueryRowContext(ctx, q, sourceSystem, entityID, windowStart, asOf).Scan(&count)
	return count, err
}

// CountTransactionsCumulative counts every prior transaction in
// (source_system, entity_id) regardless of date — the fallback used
// when the windowed count is zero ("this preserves the
// rule's 'first N within window' intent").
func (s *Store) CountTransactionsCumulative(ctx context.Context, sourceSystem, entityID string) (int, error) {
	const q = `SELECT COUNT(*) FROM ledger_transactions WHERE source_system = $1 AND entity_id = $2`
	var count int
	err := s.db.QueryRowContext(ctx, q, sourceSystem, entityID).Scan(&count)
	return count, err
}
