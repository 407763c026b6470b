// Package debt ranks liabilities by a composite urgency score and
// allocates an optional payoff amount across them greedily,
// highest-score first. It is a pure computation grounded on
// domain/debt/engine.py: no ledger access, no persistence.
package debt

import "github.com/ChrisPatten/capital-os/pkg/money"

// Liability is one tracked debt obligation.
type Liability struct {
	LiabilityID    string
	CurrentBalance money.Amount
	APR            money.Amount // percentage points, e.g. 18.9900 means 18.99%
	MinimumPayment money.Amount
}

// Inputs is analyze_debt's payload.
type Inputs struct {
	Liabilities          []Liability
	OptionalPayoffAmount *money.Amount
	ReserveFloor         money.Amount
}

// ScoreExplanation breaks a liability's score into its contributing terms.
type ScoreExplanation struct {
	AnnualInterestCost money.Amount
	CashflowPressure   money.Amount
	PayoffReadiness    money.Amount
}

// Ranked is one liability after scoring and greedy payoff allocation.
type Ranked struct {
	Rank                    int
	LiabilityID             string
	CurrentBalance          money.Amount
	APR                     money.Amount
	MinimumPayment          money.Amount
	Score                   money.Amount
	EstimatedAnnualInterest money.Amount
	PayoffApplied           money.Amount
	PostPayoffBalance       money.Amount
	InterestSaved           money.Amount
	CashflowFreed           money.Amount
	ReserveImpact           money.Amount
	Explanation             ScoreExplanation
}

// Result is analyze_debt's full output.
type Result struct {
	OptionalPayoffAmount *money.Amount
	ReserveFloor         money.Amount
	TotalInterestSaved   money.Amount
	TotalCashflowFreed   money.Amount
	TotalReserveImpact   money.Amount
	RankedLiabilities    []Ranked
}
