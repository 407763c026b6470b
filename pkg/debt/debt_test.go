package debt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ChrisPatten/capital-os/pkg/money"
)

func TestAnalyze_RanksByScoreThenAPRThenMinimumPaymentThenID(t *testing.T) {
	result := Analyze(Inputs{
		Liabilities: []Liability{
			{LiabilityID: "card-b", CurrentBalance: money.MustParse("1000.0000"), APR: money.MustParse("20.0000"), MinimumPayment: money.MustParse("50.0000")},
			{LiabilityID: "card-a", CurrentBalance: money.MustParse("1000.0000"), APR: money.MustParse("20.0000"), MinimumPayment: money.MustParse("50.0000")},
			{LiabilityID: "loan", CurrentBalance: money.MustParse("5000.0000"), APR: money.MustParse("6.0000"), MinimumPayment: money.MustParse("150.0000")},
		},
	})

	assert.Equal(t, "card-a", result.RankedLiabilities[0].LiabilityID)
	assert.Equal(t, 1, result.RankedLiabilities[0].Rank)
	assert.Equal(t, "card-b", result.RankedLiabilities[1].LiabilityID)
}

func TestAnalyze_GreedyPayoffAppliesWholeAmountToTopRankedFirst(t *testing.T) {
	payoff := money.MustParse("1200.0000")
	result := Analyze(Inputs{
		OptionalPayoffAmount: &payoff,
		Liabilities: []Liability{
			{LiabilityID: "card", CurrentBalance: money.MustParse("1000.0000"), APR: money.MustParse("25.0000"), MinimumPayment: money.MustParse("50.0000")},
			{LiabilityID: "loan", CurrentBalance: money.MustParse("5000.0000"), APR: money.MustParse("6.0000"), MinimumPayment: money.MustParse("150.0000")},
		},
	})

	card := result.RankedLiabilities[0]
	assert.Equal(t, "card", card.LiabilityID)
	assert.Equal(t, "1000.0000", card.PayoffApplied.String())
	assert.True(t, card.PostPayoffBalance.IsZero())
	assert.Equal(t, "50.0000", card.CashflowFreed.String())

	loan := result.RankedLiabilities[1]
	assert.Equal(t, "200.0000", loan.PayoffApplied.String())
	assert.Equal(t, "4800.0000", loan.PostPayoffBalance.String())
	assert.True(t, loan.CashflowFreed.IsZero())

	assert.Equal(t, "-1200.0000", result.TotalReserveImpact.String())
}

func TestAnalyze_NoPayoffAmountLeavesBalancesUntouched(t *testing.T) {
	result := Analyze(Inputs{
		Liabilities: []Liability{
			{LiabilityID: "card", CurrentBalance: money.MustParse("1000.0000"), APR: money.MustParse("25.0000"), MinimumPayment: money.MustParse("50.0000")},
		},
	})
	assert.True(t, result.RankedLiabilities[0].PayoffApplied.IsZero())
	assert.Equal(t, "1000.0000", result.RankedLiabilities[0].PostPayoffBalance.String())
}
