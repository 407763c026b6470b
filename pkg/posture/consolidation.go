package posture

import (
	"fmt"
	"sort"

	"github.com/ChrisPatten/capital-os/pkg/money"
)

// TransferLeg is one entity's side of an inter-entity transfer. A
// transfer is expressed as exactly two legs sharing a TransferID, one
// "in" and one "out", so that consolidation can net them to zero.
type TransferLeg struct {
	TransferID           string
	EntityID             string
	CounterpartyEntityID string
	Direction            string // "in" or "out"
	Amount               money.Amount
}

// ConsolidatedEntity carries one entity's transfer-neutralized
// metrics alongside the raw liquidity and transfer net that produced
// them.
type ConsolidatedEntity struct {
	EntityID                 string
	Liquidity                money.Amount
	TransferNet              money.Amount
	TransferNeutralLiquidity money.Amount
	Metrics                  Metrics
}

// TransferPair summarizes one netted transfer for the response, with
// entity_a_id/entity_b_id in lexicographic order so the output is
// deterministic regardless of which side recorded the "in" leg.
type TransferPair struct {
	TransferID string
	EntityAID  string
	EntityBID  string
	Amount     money.Amount
}

// ConsolidatedResult is compute_consolidated_posture's output: one
// row per requested entity plus the roll-up across all of them.
type ConsolidatedResult struct {
	EntityIDs     []string
	Entities      []ConsolidatedEntity
	TransferPairs []TransferPair
	Consolidated  Metrics
}

// Consolidate nets inter-entity transfers out of each entity's raw
// liquidity, computes each entity's posture on the transfer-neutral
// figure, then re-runs Compute on the sum across all entities —
// mirroring domain/posture/consolidation.py's two-pass shape.
func Consolidate(entityIDs []string, entities map[string]Inputs, transfers []TransferLeg) (ConsolidatedResult, error) {
	selected := append([]string(nil), entityIDs...)
	sort.Strings(selected)

	transferNet := make(map[string]money.Amount, len(selected))
	for _, id := range selected {
		transferNet[id] = money.Zero
	}

	groups := make(map[string][]TransferLeg)
	var transferIDs []string
	for _, leg := range transfers {
		if _, ok := groups[leg.TransferID]; !ok {
			transferIDs = append(transferIDs, leg.TransferID)
		}
		groups[leg.TransferID] = append(groups[leg.TransferID], leg)
	}
	sort.Strings(transferIDs)

	var pairs []TransferPair
	for _, transferID := range transferIDs {
		legs := groups[transferID]
		for _, leg := range legs {
			current, ok := transferNet[leg.EntityID]
			if !ok {
				return ConsolidatedResult{}, fmt.Errorf("posture: transfer %q references entity %q not in entity_ids", transferID, leg.EntityID)
			}
			switch leg.Direction {
			case "in":
				transferNet[leg.EntityID] = money.Add(current, leg.Amount)
			case "out":
				transferNet[leg.EntityID] = money.Sub(current, leg.Amount)
			default:
				return ConsolidatedResult{}, fmt.Errorf("posture: transfer %q leg has invalid direction %q", transferID, leg.Direction)
			}
		}
		first := legs[0]
		involved := []string{first.EntityID, first.CounterpartyEntityID}
		sort.Strings(involved)
		pairs = append(pairs, TransferPair{
			TransferID: transferID,
			EntityAID:  involved[0],
			EntityBID:  involved[1],
			Amount:     first.Amount,
		})
	}

	var (
		consolidatedEntities       []ConsolidatedEntity
		consolidatedLiquidity      = money.Zero
		consolidatedFixedBurn      = money.Zero
		consolidatedVariableBurn   = money.Zero
		consolidatedMinimumReserve = money.Zero
		consolidatedVolatilityBuf  = money.Zero
	)

	for _, id := range selected {
		in, ok := entities[id]
		if !ok {
			return ConsolidatedResult{}, fmt.Errorf("posture: no inputs supplied for entity %q", id)
		}
		net := transferNet[id]
		neutralLiquidity := money.Sub(in.Liquidity, net)

		metrics := Compute(Inputs{
			Liquidity:        neutralLiquidity,
			FixedBurn:        in.FixedBurn,
			VariableBurn:     in.VariableBurn,
			MinimumReserve:   in.MinimumReserve,
			VolatilityBuffer: in.VolatilityBuffer,
		})

		consolidatedEntities = append(consolidatedEntities, ConsolidatedEntity{
			EntityID:                 id,
			Liquidity:                in.Liquidity,
			TransferNet:              net,
			TransferNeutralLiquidity: metrics.Liquidity,
			Metrics:                  metrics,
		})

		consolidatedLiquidity = money.Add(consolidatedLiquidity, metrics.Liquidity)
		consolidatedFixedBurn = money.Add(consolidatedFixedBurn, metrics.FixedBurn)
		consolidatedVariableBurn = money.Add(consolidatedVariableBurn, metrics.VariableBurn)
		consolidatedMinimumReserve = money.Add(consolidatedMinimumReserve, in.MinimumReserve)
		consolidatedVolatilityBuf = money.Add(consolidatedVolatilityBuf, metrics.VolatilityBuffer)
	}

	consolidated := Compute(Inputs{
		Liquidity:        consolidatedLiquidity,
		FixedBurn:        consolidatedFixedBurn,
		VariableBurn:     consolidatedVariableBurn,
		MinimumReserve:   consolidatedMinimumReserve,
		VolatilityBuffer: consolidatedVolatilityBuf,
	})

	return ConsolidatedResult{
		EntityIDs:     selected,
		Entities:      consolidatedEntities,
		TransferPairs: pairs,
		Consolidated:  consolidated,
	}, nil
}
