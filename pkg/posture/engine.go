package posture

import "github.com/ChrisPatten/capital-os/pkg/money"

var (
	bandCriticalCeiling = money.MustParse("0.5000")
	bandElevatedCeiling = money.MustParse("1.0000")
	bandGuardedCeiling  = money.MustParse("1.5000")
)

func deriveRiskBand(reserveRatio money.Amount) RiskBand {
	if money.Cmp(reserveRatio, bandCriticalCeiling) < 0 {
		return RiskCritical
	}
	if money.Cmp(reserveRatio, bandElevatedCeiling) < 0 {
		return RiskElevated
	}
	if money.Cmp(reserveRatio, bandGuardedCeiling) < 0 {
		return RiskGuarded
	}
	return RiskStable
}

// Compute derives reserve_target, liquidity_surplus, reserve_ratio
// and risk_band from a single entity's posture inputs.
//
// reserve_target = minimum_reserve + volatility_buffer
// liquidity_surplus = liquidity - reserve_target
// reserve_ratio = liquidity / reserve_target, or zero when the
// target itself is zero (there is no reserve requirement to fall
// short of).
func Compute(in Inputs) Metrics {
	reserveTarget := money.Add(in.MinimumReserve, in.VolatilityBuffer)
	liquiditySurplus := money.Sub(in.Liquidity, reserveTarget)

	reserveRatio := money.Zero
	if !reserveTarget.IsZero() {
		ratio, err := money.Ratio(in.Liquidity, reserveTarget)
		if err == nil {
			reserveRatio = ratio
		}
	}

	return Metrics{
		FixedBurn:        in.FixedBurn,
		VariableBurn:     in.VariableBurn,
		VolatilityBuffer: in.VolatilityBuffer,
		ReserveTarget:    reserveTarget,
		Liquidity:        in.Liquidity,
		LiquiditySurplus: liquiditySurplus,
		ReserveRatio:     reserveRatio,
		RiskBand:         deriveRiskBand(reserveRatio),
	}
}
