package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisPatten/capital-os/pkg/money"
)

type fakeRuleStore struct {
	rules          []Rule
	windowCount    int
	cumulativeCount int
}

func (f *fakeRuleStore) ListActiveRules(ctx context.Context) ([]Rule, error) { return f.rules, nil }
func (f *fakeRuleStore) CountTransactionsInWindow(ctx context.Context, sourceSystem, entityID string, windowStart, asOf int64) (int, error) {
	return f.windowCount, nil
}
func (f *fakeRuleStore) CountTransactionsCumulative(ctx context.Context, sourceSystem, entityID string) (int, error) {
	return f.cumulativeCount, nil
}

func TestEvaluate_NoRulesFallsBackToGlobalThreshold(t *testing.T) {
	store := &fakeRuleStore{}
	payload := TransactionPayload{ToolName: "record_transaction_bundle", EntityID: "e1"}

	decision, err := EvaluateTransactionPolicy(context.Background(), store, payload, money.MustParse("150"), false, money.MustParse("100"))
	require.NoError(t, err)
	assert.True(t, decision.ApprovalRequired)
	assert.Equal(t, 1, decision.RequiredApprovals)
	assert.Nil(t, decision.MatchedRuleID)
}

func TestEvaluate_MatchedRuleSuppliesThreshold(t *testing.T) {
	store := &fakeRuleStore{rules: []Rule{
		{RuleID: "r1", Priority: 1, ThresholdAmount: money.MustParse("500"), RequiredApprovals: 2, Active: true},
	}}
	payload := TransactionPayload{ToolName: "record_transaction_bundle", EntityID: "e1"}

	decision, err := EvaluateTransactionPolicy(context.Background(), store, payload, money.MustParse("100"), false, money.MustParse("10"))
	require.NoError(t, err)
	assert.False(t, decision.ApprovalRequired)
	assert.Equal(t, 2, decision.RequiredApprovals)
	require.NotNil(t, decision.MatchedRuleID)
	assert.Equal(t, "r1", *decision.MatchedRuleID)
}

func TestEvaluate_VelocityWindowZeroFallsBackToCumulative(t *testing.T) {
	limit := 3
	window := 3600
	store := &fakeRuleStore{
		rules: []Rule{{
			RuleID: "r1", Priority: 1, ThresholdAmount: money.MustParse("100000"),
			RequiredApprovals: 1, Active: true,
			VelocityLimitCount: &limit, VelocityWindowSeconds: &window,
		}},
		windowCount:     0,
		cumulativeCount: 5,
	}
	payload := TransactionPayload{ToolName: "record_transaction_bundle", EntityID: "e1", DateUnixSeconds: 1000}

	decision, err := EvaluateTransactionPolicy(context.Background(), store, payload, money.MustParse("1"), false, money.MustParse("100000"))
	require.NoError(t, err)
	assert.True(t, decision.ApprovalRequired) // velocity limit reached via cumulative fallback
}

func TestEvaluate_ForceApprovalOverridesThreshold(t *testing.T) {
	store := &fakeRuleStore{}
	payload := TransactionPayload{ToolName: "record_transaction_bundle"}

	decision, err := EvaluateTransactionPolicy(context.Background(), store, payload, money.MustParse("1"), true, money.MustParse("100000"))
	require.NoError(t, err)
	assert.True(t, decision.ApprovalRequired)
}

func TestImpactAmount_HalvesAbsoluteSum(t *testing.T) {
	amt, err := ImpactAmount([]money.Amount{money.MustParse("100"), money.MustParse("-100")})
	require.NoError(t, err)
	assert.Equal(t, "100.0000", amt.String())
}
