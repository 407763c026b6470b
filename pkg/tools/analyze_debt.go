package tools

import (
	"context"
	"database/sql"

	"github.com/ChrisPatten/capital-os/pkg/debt"
)

// AnalyzeDebt handles analyze_debt. Grounded on
// original_source/.../tools/analyze_debt.py and domain/debt/engine.py.
func (d Deps) AnalyzeDebt(_ context.Context, _ *sql.Tx, payload map[string]any) (any, error) {
	reserveFloor, err := requireAmount(payload, "reserve_floor")
	if err != nil {
		return nil, err
	}
	optionalPayoffAmount, err := optionalAmount(payload, "optional_payoff_amount")
	if err != nil {
		return nil, err
	}
	correlationID, err := requireString(payload, "correlation_id")
	if err != nil {
		return nil, err
	}

	liabilities, err := parseLiabilities(payload)
	if err != nil {
		return nil, err
	}

	result := debt.Analyze(debt.Inputs{
		Liabilities:          liabilities,
		OptionalPayoffAmount: optionalPayoffAmount,
		ReserveFloor:         reserveFloor,
	})

	ranked := make([]map[string]any, 0, len(result.RankedLiabilities))
	for _, r := range result.RankedLiabilities {
		ranked = append(ranked, map[string]any{
			"rank":                      r.Rank,
			"liability_id":              r.LiabilityID,
			"current_balance":           r.CurrentBalance.String(),
			"apr":                       r.APR.String(),
			"minimum_payment":           r.MinimumPayment.String(),
			"score":                     r.Score.String(),
			"estimated_annual_interest": r.EstimatedAnnualInterest.String(),
			"payoff_applied":            r.PayoffApplied.String(),
			"post_payoff_balance":       r.PostPayoffBalance.String(),
			"interest_saved":            r.InterestSaved.String(),
			"cashflow_freed":            r.CashflowFreed.String(),
			"reserve_impact":            r.ReserveImpact.String(),
			"explanation": map[string]any{
				"annual_interest_cost": r.Explanation.AnnualInterestCost.String(),
				"cashflow_pressure":    r.Explanation.CashflowPressure.String(),
				"payoff_readiness":     r.Explanation.PayoffReadiness.String(),
			},
		})
	}

	var optionalPayoffOut any
	if result.OptionalPayoffAmount != nil {
		optionalPayoffOut = result.OptionalPayoffAmount.String()
	}

	response := map[string]any{
		"optional_payoff_amount": optionalPayoffOut,
		"reserve_floor":          result.ReserveFloor.String(),
		"total_interest_saved":   result.TotalInterestSaved.String(),
		"total_cashflow_freed":   result.TotalCashflowFreed.String(),
		"total_reserve_impact":   result.TotalReserveImpact.String(),
		"ranked_liabilities":     ranked,
		"correlation_id":         correlationID,
	}
	response, _, err = canonicalResponse(response)
	return response, err
}

// parseLiabilities decodes the "liabilities" array.
func parseLiabilities(payload map[string]any) ([]debt.Liability, error) {
	raw, err := requireObjectSlice(payload, "liabilities")
	if err != nil {
		return nil, err
	}
	out := make([]debt.Liability, 0, len(raw))
	for _, item := range raw {
		liabilityID, err := requireString(item, "liability_id")
		if err != nil {
			return nil, err
		}
		currentBalance, err := requireAmount(item, "current_balance")
		if err != nil {
			return nil, err
		}
		apr, err := requireAmount(item, "apr")
		if err != nil {
			return nil, err
		}
		minimumPayment, err := requireAmount(item, "minimum_payment")
		if err != nil {
			return nil, err
		}
		out = append(out, debt.Liability{
			LiabilityID:    liabilityID,
			CurrentBalance: currentBalance,
			APR:            apr,
			MinimumPayment: minimumPayment,
		})
	}
	return out, nil
}
