package simulation

import (
	"sort"
	"time"

	"github.com/ChrisPatten/capital-os/pkg/money"
)

// addMonths adds months calendar-months to source, clamping the day
// of month down when the target month is shorter (e.g. Jan 31 + 1
// month lands on the last day of February, leap years included).
// Ported faithfully from the original engine's _add_months.
func addMonths(source time.Time, months int) time.Time {
	totalMonths := int(source.Month()) - 1 + months
	year := source.Year() + totalMonths/12
	month := time.Month(totalMonths%12 + 1)
	if totalMonths%12 < 0 {
		month += 12
		year--
	}
	day := source.Day()
	if day > daysInMonth(year, month) {
		day = daysInMonth(year, month)
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	lastOfThis := firstOfNext.AddDate(0, 0, -1)
	return lastOfThis.Day()
}

func recurringDates(s Spend) []time.Time {
	if s.Type != SpendRecurring || s.StartDate == nil {
		return nil
	}
	dates := make([]time.Time, 0, s.Occurrences)
	for idx := 0; idx < s.Occurrences; idx++ {
		if s.Cadence == CadenceMonthly {
			dates = append(dates, addMonths(*s.StartDate, idx))
		} else {
			dates = append(dates, s.StartDate.AddDate(0, 0, 7*idx))
		}
	}
	return dates
}

func withinPeriod(t, periodStart, periodEnd time.Time) bool {
	return !t.Before(periodStart) && !t.After(periodEnd)
}

// Project runs the month-by-month simulation, ordering spends by
// (spend_id, type) before evaluation so that overlapping matches are
// summed in a deterministic order.
func Project(in Inputs) Projection {
	sortedSpends := append([]Spend(nil), in.Spends...)
	sort.SliceStable(sortedSpends, func(i, j int) bool {
		if sortedSpends[i].SpendID != sortedSpends[j].SpendID {
			return sortedSpends[i].SpendID < sortedSpends[j].SpendID
		}
		return sortedSpends[i].Type < sortedSpends[j].Type
	})

	schedules := make(map[string][]time.Time, len(sortedSpends))
	for _, s := range sortedSpends {
		schedules[s.SpendID] = recurringDates(s)
	}

	currentLiquidity := in.StartingLiquidity
	periods := make([]Period, 0, in.HorizonPeriods)

	for periodIndex := 0; periodIndex < in.HorizonPeriods; periodIndex++ {
		periodStart := addMonths(in.StartDate, periodIndex)
		periodEnd := addMonths(periodStart, 1).AddDate(0, 0, -1)

		oneTimeTotal := money.Zero
		recurringTotal := money.Zero

		for _, s := range sortedSpends {
			switch s.Type {
			case SpendOneTime:
				if s.SpendDate != nil && withinPeriod(*s.SpendDate, periodStart, periodEnd) {
					oneTimeTotal = money.Add(oneTimeTotal, s.Amount)
				}
			case SpendRecurring:
				for _, occurrence := range schedules[s.SpendID] {
					if withinPeriod(occurrence, periodStart, periodEnd) {
						recurringTotal = money.Add(recurringTotal, s.Amount)
					}
				}
			}
		}

		totalSpend := money.Add(oneTimeTotal, recurringTotal)
		currentLiquidity = money.Sub(currentLiquidity, totalSpend)

		periods = append(periods, Period{
			PeriodIndex:     periodIndex,
			PeriodStart:     periodStart,
			PeriodEnd:       periodEnd,
			OneTimeTotal:    oneTimeTotal,
			RecurringTotal:  recurringTotal,
			TotalSpend:      totalSpend,
			EndingLiquidity: currentLiquidity,
		})
	}

	return Projection{StartingLiquidity: in.StartingLiquidity, Periods: periods}
}
