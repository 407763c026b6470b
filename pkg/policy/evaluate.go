package policy

import (
	"context"
	"fmt"

	"github.com/ChrisPatten/capital-os/pkg/money"
)

// RuleStore is the subset of Store that EvaluateTransactionPolicy
// needs, so it can be tested against a fake.
type RuleStore interface {
	ListActiveRules(ctx context.Context) ([]Rule, error)
	CountTransactionsInWindow(ctx context.Context, sourceSystem, entityID string, windowStart, asOf int64) (int, error)
	CountTransactionsCumulative(ctx context.Context, sourceSystem, entityID string) (int, error)
}

// EvaluateTransactionPolicy implements rule evaluation in full, including
// the documented velocity-window-zero fallback to the cumulative
// count — a faithful, deliberately-preserved quirk (see DESIGN.md),
// not a redesign target.
func EvaluateTransactionPolicy(ctx context.Context, store RuleStore, payload TransactionPayload, impactAmount money.Amount, forceApproval bool, globalThreshold money.Amount) (Decision, error) {
	rules, err := store.ListActiveRules(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("policy: load rules: %w", err)
	}

	for i := range rules {
		rule := rules[i]
		if !dimensionsMatch(rule, payload) {
			continue
		}

		velocityReached := false
		if rule.VelocityLimitCount != nil && rule.VelocityWindowSeconds != nil {
			windowStart := payload.DateUnixSeconds - int64(*rule.VelocityWindowSeconds)
			count, err := store.CountTransactionsInWindow(ctx, payload.SourceSystem, payload.EntityID, windowStart, payload.DateUnixSeconds)
			if err != nil {
				return Decision{}, fmt.Errorf("policy: count window: %w", err)
			}
			if count == 0 {
				count, err = store.CountTransactionsCumulative(ctx, payload.SourceSystem, payload.EntityID)
				if err != nil {
					return Decision{}, fmt.Errorf("policy: count cumulative: %w", err)
				}
			}
			velocityReached = count >= *rule.VelocityLimitCount
		}

		if rule.CELExpression != nil {
			matched, err := evaluateCELPredicate(*rule.CELExpression, payload, impactAmount)
			if err != nil {
				return Decision{}, fmt.Errorf("policy: cel predicate: %w", err)
			}
			if !matched {
				continue
			}
		}

		ruleID := rule.RuleID
		approvalRequired := forceApproval || velocityReached || money.Cmp(impactAmount, rule.ThresholdAmount) > 0
		return Decision{
			ApprovalRequired:  approvalRequired,
			ThresholdAmount:   rule.ThresholdAmount,
			ImpactAmount:      impactAmount,
			RequiredApprovals: rule.RequiredApprovals,
			MatchedRuleID:     &ruleID,
		}, nil
	}

	approvalRequired := forceApproval || money.Cmp(impactAmount, globalThreshold) > 0
	return Decision{
		ApprovalRequired:  approvalRequired,
		ThresholdAmount:   globalThreshold,
		ImpactAmount:      impactAmount,
		RequiredApprovals: 1,
		MatchedRuleID:     nil,
	}, nil
}

func dimensionsMatch(rule Rule, payload TransactionPayload) bool {
	if rule.ToolName != nil && *rule.ToolName != payload.ToolName {
		return false
	}
	if rule.EntityID != nil && *rule.EntityID != payload.EntityID {
		return false
	}
	if rule.TransactionCategory != nil && *rule.TransactionCategory != payload.TransactionCategory {
		return false
	}
	if rule.RiskBand != nil && *rule.RiskBand != payload.RiskBand {
		return false
	}
	return true
}
