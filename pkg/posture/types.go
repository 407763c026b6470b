// Package posture computes capital posture — burn, reserve target,
// liquidity surplus, and a discrete risk band — from a caller-supplied
// set of liquidity accounts and reserve policy parameters. It is a
// pure computation: callers resolve account balances through
// pkg/query before invoking it, the same split the original
// implementation draws between its domain/posture/service.py account
// selection and domain/posture/engine.py metrics.
package posture

import (
	"time"

	"github.com/ChrisPatten/capital-os/pkg/money"
)

// RiskBand is the discrete classification of reserve ratio.
type RiskBand string

const (
	RiskCritical RiskBand = "critical"
	RiskElevated RiskBand = "elevated"
	RiskGuarded  RiskBand = "guarded"
	RiskStable   RiskBand = "stable"
)

// ReservePolicy carries a minimum reserve floor plus an additional
// volatility buffer the engine adds to it before computing the ratio.
type ReservePolicy struct {
	MinimumReserve   money.Amount
	VolatilityBuffer money.Amount
}

// BurnAnalysisWindow bounds the period burn figures were computed
// over. The engine itself does not aggregate ledger activity into
// burn numbers — callers supply fixed_burn/variable_burn already
// summed for this window — so the window is carried through purely
// for the response's audit trail.
type BurnAnalysisWindow struct {
	WindowStart time.Time
	WindowEnd   time.Time
}

// Inputs is one entity's posture computation inputs.
type Inputs struct {
	Liquidity        money.Amount
	FixedBurn        money.Amount
	VariableBurn     money.Amount
	MinimumReserve   money.Amount
	VolatilityBuffer money.Amount
}

// Metrics is the computed result of Compute.
type Metrics struct {
	FixedBurn        money.Amount
	VariableBurn     money.Amount
	VolatilityBuffer money.Amount
	ReserveTarget    money.Amount
	Liquidity        money.Amount
	LiquiditySurplus money.Amount
	ReserveRatio     money.Amount
	RiskBand         RiskBand
}
