package simulation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisPatten/capital-os/pkg/money"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddMonths_ClampsDayOnShorterMonth(t *testing.T) {
	assert.Equal(t, date(2026, 2, 28), addMonths(date(2026, 1, 31), 1))
	assert.Equal(t, date(2024, 2, 29), addMonths(date(2024, 1, 31), 1))
}

func TestProject_OneTimeSpendLandsInItsPeriodOnly(t *testing.T) {
	spendDate := date(2026, 3, 15)
	projection := Project(Inputs{
		StartingLiquidity: money.MustParse("1000.0000"),
		StartDate:         date(2026, 1, 1),
		HorizonPeriods:    4,
		Spends: []Spend{
			{SpendID: "rent-deposit", Amount: money.MustParse("300.0000"), Type: SpendOneTime, SpendDate: &spendDate},
		},
	})

	require.Len(t, projection.Periods, 4)
	assert.True(t, projection.Periods[0].TotalSpend.IsZero())
	assert.Equal(t, "300.0000", projection.Periods[2].TotalSpend.String())
	assert.Equal(t, "700.0000", projection.Periods[2].EndingLiquidity.String())
	assert.Equal(t, "700.0000", projection.Periods[3].EndingLiquidity.String())
}

func TestProject_MonthlyRecurringSpendRepeatsEveryPeriod(t *testing.T) {
	start := date(2026, 1, 5)
	projection := Project(Inputs{
		StartingLiquidity: money.MustParse("1000.0000"),
		StartDate:         date(2026, 1, 1),
		HorizonPeriods:    3,
		Spends: []Spend{
			{SpendID: "rent", Amount: money.MustParse("100.0000"), Type: SpendRecurring, StartDate: &start, Cadence: CadenceMonthly, Occurrences: 3},
		},
	})

	require.Len(t, projection.Periods, 3)
	assert.Equal(t, "100.0000", projection.Periods[0].RecurringTotal.String())
	assert.Equal(t, "100.0000", projection.Periods[1].RecurringTotal.String())
	assert.Equal(t, "700.0000", projection.Periods[2].EndingLiquidity.String())
}
