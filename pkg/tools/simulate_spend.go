package tools

import (
	"context"
	"database/sql"

	"github.com/ChrisPatten/capital-os/pkg/simulation"
)

// SimulateSpend handles simulate_spend. Grounded on
// original_source/.../tools/simulate_spend.py and
// domain/simulation/engine.py.
func (d Deps) SimulateSpend(_ context.Context, _ *sql.Tx, payload map[string]any) (any, error) {
	startingLiquidity, err := requireAmount(payload, "starting_liquidity")
	if err != nil {
		return nil, err
	}
	startDate, err := requireTimestamp(payload, "start_date")
	if err != nil {
		return nil, err
	}
	horizonPeriods, err := requireInt(payload, "horizon_periods")
	if err != nil {
		return nil, err
	}
	correlationID, err := requireString(payload, "correlation_id")
	if err != nil {
		return nil, err
	}

	spends, err := parseSpends(payload)
	if err != nil {
		return nil, err
	}

	projection := simulation.Project(simulation.Inputs{
		StartingLiquidity: startingLiquidity,
		StartDate:         startDate.Time,
		HorizonPeriods:    horizonPeriods,
		Spends:            spends,
	})

	periods := make([]map[string]any, 0, len(projection.Periods))
	for _, p := range projection.Periods {
		periods = append(periods, map[string]any{
			"period_index":     p.PeriodIndex,
			"period_start":     p.PeriodStart.Format("2006-01-02"),
			"period_end":       p.PeriodEnd.Format("2006-01-02"),
			"one_time_total":   p.OneTimeTotal.String(),
			"recurring_total":  p.RecurringTotal.String(),
			"total_spend":      p.TotalSpend.String(),
			"ending_liquidity": p.EndingLiquidity.String(),
		})
	}

	response := map[string]any{
		"starting_liquidity": projection.StartingLiquidity.String(),
		"periods":            periods,
		"correlation_id":     correlationID,
	}
	response, _, err = canonicalResponse(response)
	return response, err
}

// parseSpends decodes the "spends" array.
func parseSpends(payload map[string]any) ([]simulation.Spend, error) {
	raw, err := requireObjectSlice(payload, "spends")
	if err != nil {
		return nil, err
	}
	out := make([]simulation.Spend, 0, len(raw))
	for _, item := range raw {
		spendID, err := requireString(item, "spend_id")
		if err != nil {
			return nil, err
		}
		amount, err := requireAmount(item, "amount")
		if err != nil {
			return nil, err
		}
		spendType, err := requireString(item, "type")
		if err != nil {
			return nil, err
		}

		spend := simulation.Spend{
			SpendID: spendID,
			Amount:  amount,
			Type:    simulation.SpendType(spendType),
		}

		if spend.Type == simulation.SpendOneTime {
			ts, err := requireTimestamp(item, "spend_date")
			if err != nil {
				return nil, err
			}
			spend.SpendDate = &ts.Time
		} else {
			ts, err := requireTimestamp(item, "start_date")
			if err != nil {
				return nil, err
			}
			spend.StartDate = &ts.Time
			cadence, err := requireString(item, "cadence")
			if err != nil {
				return nil, err
			}
			spend.Cadence = simulation.Cadence(cadence)
			occurrences, err := requireInt(item, "occurrences")
			if err != nil {
				return nil, err
			}
			spend.Occurrences = occurrences
		}
		out = append(out, spend)
	}
	return out, nil
}
