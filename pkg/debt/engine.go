package debt

import (
	"sort"

	"github.com/ChrisPatten/capital-os/pkg/money"
)

var oneHundred = money.MustParse("100.0000")

func estimatedAnnualInterest(l Liability) money.Amount {
	return money.MulPercent(l.CurrentBalance, l.APR)
}

func payoffReadiness(l Liability, payoffAmount *money.Amount) money.Amount {
	if payoffAmount == nil || payoffAmount.IsZero() {
		return money.Zero
	}
	if l.CurrentBalance.IsZero() {
		return money.MustParse("1.0000")
	}
	ratio, err := money.Ratio(*payoffAmount, l.CurrentBalance)
	if err != nil {
		return money.Zero
	}
	if money.Cmp(ratio, money.MustParse("1.0000")) > 0 {
		return money.MustParse("1.0000")
	}
	return ratio
}

func scoreLiability(l Liability, payoffAmount *money.Amount) (money.Amount, ScoreExplanation) {
	annualInterest := estimatedAnnualInterest(l)
	cashflow := l.MinimumPayment
	readiness := payoffReadiness(l, payoffAmount)
	score := money.Add(money.Add(annualInterest, cashflow), money.Mul(readiness, oneHundred))
	return score, ScoreExplanation{
		AnnualInterestCost: annualInterest,
		CashflowPressure:   cashflow,
		PayoffReadiness:    readiness,
	}
}

// Analyze scores every liability, ranks them highest-urgency first,
// then greedily applies OptionalPayoffAmount to each in rank order —
// the entire amount to one liability before moving to the next —
// until it is exhausted.
func Analyze(in Inputs) Result {
	type scored struct {
		liability   Liability
		score       money.Amount
		explanation ScoreExplanation
	}

	rows := make([]scored, 0, len(in.Liabilities))
	for _, l := range in.Liabilities {
		score, explanation := scoreLiability(l, in.OptionalPayoffAmount)
		rows = append(rows, scored{liability: l, score: score, explanation: explanation})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if c := money.Cmp(rows[i].score, rows[j].score); c != 0 {
			return c > 0
		}
		if c := money.Cmp(rows[i].liability.APR, rows[j].liability.APR); c != 0 {
			return c > 0
		}
		if c := money.Cmp(rows[i].liability.MinimumPayment, rows[j].liability.MinimumPayment); c != 0 {
			return c > 0
		}
		return rows[i].liability.LiabilityID < rows[j].liability.LiabilityID
	})

	remainingPayoff := money.Zero
	if in.OptionalPayoffAmount != nil {
		remainingPayoff = *in.OptionalPayoffAmount
	}

	var (
		totalInterestSaved = money.Zero
		totalCashflowFreed = money.Zero
		totalReserveImpact = money.Zero
		ranked             []Ranked
	)

	for i, row := range rows {
		payoffApplied := money.Min(remainingPayoff, row.liability.CurrentBalance)
		postPayoffBalance := money.Sub(row.liability.CurrentBalance, payoffApplied)
		interestSaved := money.MulPercent(payoffApplied, row.liability.APR)
		cashflowFreed := money.Zero
		if postPayoffBalance.IsZero() {
			cashflowFreed = row.liability.MinimumPayment
		}
		reserveImpact := money.Negate(payoffApplied)

		remainingPayoff = money.Sub(remainingPayoff, payoffApplied)
		totalInterestSaved = money.Add(totalInterestSaved, interestSaved)
		totalCashflowFreed = money.Add(totalCashflowFreed, cashflowFreed)
		totalReserveImpact = money.Add(totalReserveImpact, reserveImpact)

		ranked = append(ranked, Ranked{
			Rank:                    i + 1,
			LiabilityID:             row.liability.LiabilityID,
			CurrentBalance:          row.liability.CurrentBalance,
			APR:                     row.liability.APR,
			MinimumPayment:          row.liability.MinimumPayment,
			Score:                   row.score,
			EstimatedAnnualInterest: estimatedAnnualInterest(row.liability),
			PayoffApplied:           payoffApplied,
			PostPayoffBalance:       postPayoffBalance,
			InterestSaved:           interestSaved,
			CashflowFreed:           cashflowFreed,
			ReserveImpact:           reserveImpact,
			Explanation:             row.explanation,
		})
	}

	return Result{
		OptionalPayoffAmount: in.OptionalPayoffAmount,
		ReserveFloor:         in.ReserveFloor,
		TotalInterestSaved:   totalInterestSaved,
		TotalCashflowFreed:   totalCashflowFreed,
		TotalReserveImpact:   totalReserveImpact,
		RankedLiabilities:    ranked,
	}
}
