// Package simulation projects liquidity forward across a fixed
// number of monthly periods given a starting balance and a set of
// one-time and recurring spends. It is a pure computation grounded on
// domain/simulation/engine.py; it never touches the ledger — callers
// resolve starting_liquidity from pkg/query before invoking it.
package simulation

import (
	"time"

	"github.com/ChrisPatten/capital-os/pkg/money"
)

// SpendType distinguishes a single-occurrence spend from a recurring one.
type SpendType string

const (
	SpendOneTime   SpendType = "one_time"
	SpendRecurring SpendType = "recurring"
)

// Cadence is a recurring spend's repetition interval.
type Cadence string

const (
	CadenceMonthly Cadence = "monthly"
	CadenceWeekly  Cadence = "weekly"
)

// Spend is one projected cash outflow. One-time spends set SpendDate;
// recurring spends set StartDate, Cadence, and Occurrences.
type Spend struct {
	SpendID     string
	Amount      money.Amount
	Type        SpendType
	SpendDate   *time.Time
	StartDate   *time.Time
	Cadence     Cadence
	Occurrences int
}

// Inputs is simulate_spend's payload.
type Inputs struct {
	StartingLiquidity money.Amount
	StartDate         time.Time
	HorizonPeriods    int
	Spends            []Spend
}

// Period is one month of the projection.
type Period struct {
	PeriodIndex     int
	PeriodStart     time.Time
	PeriodEnd       time.Time
	OneTimeTotal    money.Amount
	RecurringTotal  money.Amount
	TotalSpend      money.Amount
	EndingLiquidity money.Amount
}

// Projection is simulate_spend's full output.
type Projection struct {
	StartingLiquidity money.Amount
	Periods           []Period
}
