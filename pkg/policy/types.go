// Package policy implements evaluate_transaction_policy:
// priority-ordered rule matching, velocity-window counting with its
// documented cumulative-count fallback, and the global-threshold
// default when no rule matches.
package policy

import "github.com/ChrisPatten/capital-os/pkg/money"

// Rule is one Policy Rule row. Dimension fields are
// pointers: nil means "this dimension does not constrain the rule."
type Rule struct {
	RuleID                string
	Priority              int
	ToolName              *string
	EntityID              *string
	TransactionCategory   *string
	RiskBand              *string
	VelocityLimitCount    *int
	VelocityWindowSeconds *int
	ThresholdAmount       money.Amount
	RequiredApprovals     int
	Active                bool
	CELExpression         *string
	Metadata              map[string]any
}

// TransactionPayload is the subset of a write-tool's payload the
// policy engine matches rule dimensions against.
type TransactionPayload struct {
	ToolName            string
	EntityID            string
	TransactionCategory string
	RiskBand            string
	SourceSystem        string
	DateUnixSeconds     int64
}

// Decision is evaluate_transaction_policy's return value.
type Decision struct {
	ApprovalRequired  bool
	ThresholdAmount   money.Amount
	ImpactAmount      money.Amount
	RequiredApprovals int
	MatchedRuleID     *string
}

// ImpactAmount computes the impact amount for a balanced
// bundle: the sum of absolute posting amounts divided by 2, quantized
// to scale 4.
func ImpactAmount(postingAmounts []money.Amount) (money.Amount, error) {
	var absSum money.Amount
	for _, a := range postingAmounts {
		absSum = money.Add(absSum, money.Abs(a))
	}
	return money.Ratio(absSum, money.MustParse("2"))
}
