package tools

import (
	"context"
	"database/sql"

	"github.com/ChrisPatten/capital-os/pkg/posture"
)

// ComputeConsolidatedPosture handles compute_consolidated_posture.
// Grounded on original_source/.../tools/compute_consolidated_posture.py
// and domain/posture/consolidation.py.
func (d Deps) ComputeConsolidatedPosture(_ context.Context, _ *sql.Tx, payload map[string]any) (any, error) {
	entityIDs, err := requireStringSlice(payload, "entity_ids")
	if err != nil {
		return nil, err
	}
	correlationID, err := requireString(payload, "correlation_id")
	if err != nil {
		return nil, err
	}

	entities, err := parseEntityInputs(payload)
	if err != nil {
		return nil, err
	}
	transfers, err := parseTransferLegs(payload)
	if err != nil {
		return nil, err
	}

	result, err := posture.Consolidate(entityIDs, entities, transfers)
	if err != nil {
		return nil, err
	}

	entityRows := make([]map[string]any, 0, len(result.Entities))
	for _, e := range result.Entities {
		entityRows = append(entityRows, map[string]any{
			"entity_id":                  e.EntityID,
			"liquidity":                  e.Liquidity.String(),
			"transfer_net":               e.TransferNet.String(),
			"transfer_neutral_liquidity": e.TransferNeutralLiquidity.String(),
			"fixed_burn":                 e.Metrics.FixedBurn.String(),
			"variable_burn":              e.Metrics.VariableBurn.String(),
			"volatility_buffer":          e.Metrics.VolatilityBuffer.String(),
			"reserve_target":             e.Metrics.ReserveTarget.String(),
			"liquidity_surplus":          e.Metrics.LiquiditySurplus.String(),
			"reserve_ratio":              e.Metrics.ReserveRatio.String(),
			"risk_band":                  string(e.Metrics.RiskBand),
		})
	}
	transferRows := make([]map[string]any, 0, len(result.TransferPairs))
	for _, p := range result.TransferPairs {
		transferRows = append(transferRows, map[string]any{
			"transfer_id": p.TransferID,
			"entity_a_id": p.EntityAID,
			"entity_b_id": p.EntityBID,
			"amount":      p.Amount.String(),
		})
	}

	response := map[string]any{
		"entity_ids":        result.EntityIDs,
		"entities":          entityRows,
		"transfer_pairs":    transferRows,
		"fixed_burn":        result.Consolidated.FixedBurn.String(),
		"variable_burn":     result.Consolidated.VariableBurn.String(),
		"volatility_buffer": result.Consolidated.VolatilityBuffer.String(),
		"reserve_target":    result.Consolidated.ReserveTarget.String(),
		"liquidity":         result.Consolidated.Liquidity.String(),
		"liquidity_surplus": result.Consolidated.LiquiditySurplus.String(),
		"reserve_ratio":     result.Consolidated.ReserveRatio.String(),
		"risk_band":         string(result.Consolidated.RiskBand),
		"correlation_id":    correlationID,
	}
	response, _, err = canonicalResponse(response)
	return response, err
}

// parseEntityInputs decodes the "entities" array into a lookup keyed
// by entity_id, each value a posture.Inputs.
func parseEntityInputs(payload map[string]any) (map[string]posture.Inputs, error) {
	raw, err := requireObjectSlice(payload, "entities")
	if err != nil {
		return nil, err
	}
	out := make(map[string]posture.Inputs, len(raw))
	for _, item := range raw {
		entityID, err := requireString(item, "entity_id")
		if err != nil {
			return nil, err
		}
		liquidity, err := requireAmount(item, "liquidity")
		if err != nil {
			return nil, err
		}
		fixedBurn, err := requireAmount(item, "fixed_burn")
		if err != nil {
			return nil, err
		}
		variableBurn, err := requireAmount(item, "variable_burn")
		if err != nil {
			return nil, err
		}
		minimumReserve, err := requireAmount(item, "minimum_reserve")
		if err != nil {
			return nil, err
		}
		volatilityBuffer, err := requireAmount(item, "volatility_buffer")
		if err != nil {
			return nil, err
		}
		out[entityID] = posture.Inputs{
			Liquidity:        liquidity,
			FixedBurn:        fixedBurn,
			VariableBurn:     variableBurn,
			MinimumReserve:   minimumReserve,
			VolatilityBuffer: volatilityBuffer,
		}
	}
	return out, nil
}

// parseTransferLegs decodes the optional "inter_entity_transfers" array.
func parseTransferLegs(payload map[string]any) ([]posture.TransferLeg, error) {
	v, ok := payload["inter_entity_transfers"]
	if !ok || v == nil {
		return nil, nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, fieldError("inter_entity_transfers", "must be an array")
	}
	out := make([]posture.TransferLeg, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fieldError("inter_entity_transfers", "each entry must be an object")
		}
		transferID, err := requireString(m, "transfer_id")
		if err != nil {
			return nil, err
		}
		entityID, err := requireString(m, "entity_id")
		if err != nil {
			return nil, err
		}
		counterpartyEntityID, err := requireString(m, "counterparty_entity_id")
		if err != nil {
			return nil, err
		}
		direction, err := requireString(m, "direction")
		if err != nil {
			return nil, err
		}
		amount, err := requireAmount(m, "amount")
		if err != nil {
			return nil, err
		}
		out = append(out, posture.TransferLeg{
			TransferID:           transferID,
			EntityID:             entityID,
			CounterpartyEntityID: counterpartyEntityID,
			Direction:            direction,
			Amount:               amount,
		})
	}
	return out, nil
}
