// Package toolschema holds one JSON Schema document per registered
// tool, used for CLI introspection (tool schema <name>) and for
// validating a stdio tools/call payload before it ever reaches the
// execution runtime. Grounded on
// original_source/.../cli/tool.py's "tool schema" command, which
// introspects pydantic's model_json_schema() per tool — this package
// is the Go-native, statically-authored equivalent, since there is no
// struct-tag-driven schema generator in this codebase's dependency
// set.
package toolschema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Descriptor is one tool's name, read/write mode, raw input schema,
// and the schema Version it was published under.
type Descriptor struct {
	Name          string
	Write         bool
	Schema        json.RawMessage
	SchemaVersion string
}

// schemas maps each registered tool name to its input JSON Schema, as
// a Go literal so every entry is grep-able and diffable. Only the
// fields each handler actually requires are listed — this isn't a
// full OpenAPI-grade contract, just enough for meaningful client-side
// and CLI-side validation.
var schemas = map[string]string{
	"create_account": `{"type":"object","required":["code","name","account_type","entity_id","correlation_id"],
		"properties":{"code":{"type":"string"},"name":{"type":"string"},"account_type":{"type":"string"},
		"entity_id":{"type":"string"},"parent_account_id":{"type":["string","null"]},"correlation_id":{"type":"string"}}}`,

	"update_account_metadata": `{"type":"object","required":["account_id","metadata","correlation_id"],
		"properties":{"account_id":{"type":"string"},"metadata":{"type":"object"},"correlation_id":{"type":"string"}}}`,

	"record_transaction_bundle": `{"type":"object","required":["source_system","external_id","transaction_date","description","correlation_id","entity_id","postings"],
		"properties":{"source_system":{"type":"string"},"external_id":{"type":"string"},
		"transaction_date":{"type":"string","format":"date-time"},"description":{"type":"string"},
		"correlation_id":{"type":"string"},"entity_id":{"type":"string"},
		"is_adjusting_entry":{"type":"boolean"},"adjusting_reason_code":{"type":["string","null"]},
		"override_period_lock":{"type":"boolean"},"transaction_category":{"type":"string"},"risk_band":{"type":"string"},
		"postings":{"type":"array","minItems":1,"items":{"type":"object",
			"required":["account_id","amount","currency"],
			"properties":{"account_id":{"type":"string"},"amount":{"type":"string"},
			"currency":{"type":"string"},"memo":{"type":["string","null"]}}}}}}`,

	"record_balance_snapshot": `{"type":"object","required":["account_id","snapshot_date","source_system","balance","currency","entity_id","correlation_id"],
		"properties":{"account_id":{"type":"string"},"snapshot_date":{"type":"string","format":"date-time"},
		"source_system":{"type":"string"},"balance":{"type":"string"},"currency":{"type":"string"},
		"entity_id":{"type":"string"},"correlation_id":{"type":"string"}}}`,

	"create_or_update_obligation": `{"type":"object","required":["source_system","name","account_id","cadence","expected_amount","next_due_date","correlation_id"],
		"properties":{"source_system":{"type":"string"},"name":{"type":"string"},"account_id":{"type":"string"},
		"cadence":{"type":"string"},"expected_amount":{"type":"string"},
		"next_due_date":{"type":"string","format":"date-time"},"variability_flag":{"type":"boolean"},
		"active":{"type":"boolean"},"correlation_id":{"type":"string"}}}`,

	"fulfill_obligation": `{"type":"object","required":["obligation_id","correlation_id"],
		"properties":{"obligation_id":{"type":"string"},"fulfilled_by_transaction_id":{"type":["string","null"]},
		"fulfilled_at":{"type":["string","null"],"format":"date-time"},"correlation_id":{"type":"string"}}}`,

	"approve_proposed_transaction": `{"type":"object","required":["proposal_id","correlation_id"],
		"properties":{"proposal_id":{"type":"string"},"approver_id":{"type":["string","null"]},
		"correlation_id":{"type":"string"}}}`,

	"reject_proposed_transaction": `{"type":"object","required":["proposal_id","correlation_id"],
		"properties":{"proposal_id":{"type":"string"},"approver_id":{"type":["string","null"]},
		"reason":{"type":["string","null"]},"correlation_id":{"type":"string"}}}`,

	"propose_config_change": `{"type":"object","required":["source_system","external_id","scope","change_payload","correlation_id"],
		"properties":{"source_system":{"type":"string"},"external_id":{"type":"string"},"scope":{"type":"string"},
		"change_payload":{"type":"object"},"entity_id":{"type":["string","null"]},"correlation_id":{"type":"string"}}}`,

	"approve_config_change": `{"type":"object","required":["proposal_id","correlation_id"],
		"properties":{"proposal_id":{"type":"string"},"approver_id":{"type":["string","null"]},
		"reason":{"type":["string","null"]},"correlation_id":{"type":"string"}}}`,

	"close_period": `{"type":"object","required":["period_key","entity_id","actor_id","correlation_id"],
		"properties":{"period_key":{"type":"string"},"entity_id":{"type":"string"},"actor_id":{"type":"string"},
		"correlation_id":{"type":"string"}}}`,

	"lock_period": `{"type":"object","required":["period_key","entity_id","actor_id","correlation_id"],
		"properties":{"period_key":{"type":"string"},"entity_id":{"type":"string"},"actor_id":{"type":"string"},
		"correlation_id":{"type":"string"}}}`,

	"compute_capital_posture": `{"type":"object","required":["liquidity","fixed_burn","variable_burn","minimum_reserve","volatility_buffer","correlation_id"],
		"properties":{"liquidity":{"type":"string"},"fixed_burn":{"type":"string"},"variable_burn":{"type":"string"},
		"minimum_reserve":{"type":"string"},"volatility_buffer":{"type":"string"},"correlation_id":{"type":"string"}}}`,

	"compute_consolidated_posture": `{"type":"object","required":["entities","correlation_id"],
		"properties":{"entities":{"type":"array","items":{"type":"object"}},
		"transfers":{"type":"array","items":{"type":"object"}},"correlation_id":{"type":"string"}}}`,

	"simulate_spend": `{"type":"object","required":["starting_liquidity","start_date","correlation_id"],
		"properties":{"starting_liquidity":{"type":"string"},"start_date":{"type":"string","format":"date-time"},
		"spends":{"type":"array","items":{"type":"object"}},"correlation_id":{"type":"string"}}}`,

	"analyze_debt": `{"type":"object","required":["reserve_floor","liabilities","correlation_id"],
		"properties":{"reserve_floor":{"type":"string"},
		"liabilities":{"type":"array","items":{"type":"object"}},"correlation_id":{"type":"string"}}}`,

	"list_accounts": `{"type":"object","required":["correlation_id"],
		"properties":{"cursor":{"type":["string","null"]},"limit":{"type":"integer"},"correlation_id":{"type":"string"}}}`,

	"get_account_tree": `{"type":"object","required":["root_account_id","correlation_id"],
		"properties":{"root_account_id":{"type":"string"},"correlation_id":{"type":"string"}}}`,

	"get_account_balances": `{"type":"object","required":["correlation_id"],
		"properties":{"account_ids":{"type":"array","items":{"type":"string"}},
		"as_of":{"type":["string","null"],"format":"date-time"},"policy":{"type":["string","null"]},
		"correlation_id":{"type":"string"}}}`,

	"list_transactions": `{"type":"object","required":["correlation_id"],
		"properties":{"cursor":{"type":["string","null"]},"limit":{"type":"integer"},"correlation_id":{"type":"string"}}}`,

	"get_transaction_by_external_id": `{"type":"object","required":["source_system","external_id","correlation_id"],
		"properties":{"source_system":{"type":"string"},"external_id":{"type":"string"},"correlation_id":{"type":"string"}}}`,

	"list_obligations": `{"type":"object","required":["correlation_id"],
		"properties":{"cursor":{"type":["string","null"]},"limit":{"type":"integer"},"correlation_id":{"type":"string"}}}`,

	"list_proposals": `{"type":"object","required":["correlation_id"],
		"properties":{"cursor":{"type":["string","null"]},"limit":{"type":"integer"},"correlation_id":{"type":"string"}}}`,

	"get_proposal": `{"type":"object","required":["proposal_id","correlation_id"],
		"properties":{"proposal_id":{"type":"string"},"correlation_id":{"type":"string"}}}`,

	"reconcile_account": `{"type":"object","required":["account_id","currency","correlation_id"],
		"properties":{"account_id":{"type":"string"},"as_of":{"type":["string","null"],"format":"date-time"},
		"currency":{"type":"string"},"correlation_id":{"type":"string"}}}`,

	"get_config": `{"type":"object","required":["correlation_id"],"properties":{"correlation_id":{"type":"string"}}}`,
}

// writeTools mirrors toolruntime.WriteClassTools; duplicated as a
// plain set here (rather than importing toolruntime) to keep this
// package import-free of the runtime it describes — schema
// introspection should work even if the runtime package changes.
var writeTools = map[string]bool{
	"create_account": true, "update_account_metadata": true, "record_transaction_bundle": true,
	"record_balance_snapshot": true, "create_or_update_obligation": true, "fulfill_obligation": true,
	"approve_proposed_transaction": true, "reject_proposed_transaction": true,
	"propose_config_change": true, "approve_config_change": true,
	"close_period": true, "lock_period": true,
}

// Names returns every registered tool name, sorted.
func Names() []string {
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the descriptor for a tool name, or false if unknown.
func Get(name string) (Descriptor, bool) {
	raw, ok := schemas[name]
	if !ok {
		return Descriptor{}, false
	}
	return Descriptor{Name: name, Write: writeTools[name], Schema: json.RawMessage(raw), SchemaVersion: Version}, true
}

// Compile compiles every registered schema, failing fast if any entry
// in the table above is malformed JSON Schema — a guard against the
// table drifting out of sync with itself as tools are added.
func Compile() (map[string]*jsonschema.Schema, error) {
	out := make(map[string]*jsonschema.Schema, len(schemas))
	for name, raw := range schemas {
		compiler := jsonschema.NewCompiler()
		url := "mem://" + name + ".json"
		if err := compiler.AddResource(url, bytes.NewReader([]byte(raw))); err != nil {
			return nil, fmt.Errorf("toolschema: %s: %w", name, err)
		}
		compiled, err := compiler.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("toolschema: %s: %w", name, err)
		}
		out[name] = compiled
	}
	return out, nil
}

// Validate checks payload against tool's compiled input schema. The
// payload must already be decoded JSON (map[string]any with float64
// numbers), the same shape toolruntime.Handler receives.
func Validate(compiled map[string]*jsonschema.Schema, tool string, payload map[string]any) error {
	schema, ok := compiled[tool]
	if !ok {
		return fmt.Errorf("toolschema: unknown tool %q", tool)
	}
	return schema.Validate(payload)
}
