package tools

import (
	"context"
	"database/sql"

	"github.com/ChrisPatten/capital-os/pkg/posture"
)

// ComputeCapitalPosture handles compute_capital_posture. Grounded on
// original_source/.../tools/compute_capital_posture.py.
func (d Deps) ComputeCapitalPosture(_ context.Context, _ *sql.Tx, payload map[string]any) (any, error) {
	liquidity, err := requireAmount(payload, "liquidity")
	if err != nil {
		return nil, err
	}
	fixedBurn, err := requireAmount(payload, "fixed_burn")
	if err != nil {
		return nil, err
	}
	variableBurn, err := requireAmount(payload, "variable_burn")
	if err != nil {
		return nil, err
	}
	minimumReserve, err := requireAmount(payload, "minimum_reserve")
	if err != nil {
		return nil, err
	}
	volatilityBuffer, err := requireAmount(payload, "volatility_buffer")
	if err != nil {
		return nil, err
	}
	correlationID, err := requireString(payload, "correlation_id")
	if err != nil {
		return nil, err
	}

	metrics := posture.Compute(posture.Inputs{
		Liquidity:        liquidity,
		FixedBurn:        fixedBurn,
		VariableBurn:     variableBurn,
		MinimumReserve:   minimumReserve,
		VolatilityBuffer: volatilityBuffer,
	})

	response := map[string]any{
		"fixed_burn":        metrics.FixedBurn.String(),
		"variable_burn":     metrics.VariableBurn.String(),
		"volatility_buffer": metrics.VolatilityBuffer.String(),
		"reserve_target":    metrics.ReserveTarget.String(),
		"liquidity":         metrics.Liquidity.String(),
		"liquidity_surplus": metrics.LiquiditySurplus.String(),
		"reserve_ratio":     metrics.ReserveRatio.String(),
		"risk_band":         string(metrics.RiskBand),
		"explanation": map[string]any{
			"contributing_balances": []map[string]any{
				{"name": "liquidity", "amount": metrics.Liquidity.String()},
				{"name": "fixed_burn", "amount": metrics.FixedBurn.String()},
				{"name": "variable_burn", "amount": metrics.VariableBurn.String()},
			},
			"reserve_assumptions": map[string]any{
				"minimum_reserve":   minimumReserve.String(),
				"volatility_buffer": metrics.VolatilityBuffer.String(),
				"reserve_target":    metrics.ReserveTarget.String(),
			},
		},
		"correlation_id": correlationID,
	}
	response, _, err = canonicalResponse(response)
	return response, err
}
