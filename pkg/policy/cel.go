package policy

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/ChrisPatten/capital-os/pkg/money"
)

// evaluateCELPredicate compiles and runs an optional per-rule CEL
// expression as an additional dimension gate layered on top of the
// literal algorithm in evaluate.go — it can only narrow a match
// further, never substitute for the threshold/velocity logic. The
// environment exposes only the payload's dimension fields and the
// impact amount as a float; it deliberately omits any clock, random,
// or I/O function so a rule predicate is a pure function of its
// inputs (grounded on the teacher's CEL non-determinism ban: no
// now(), no random(), no timestamp getters).
func evaluateCELPredicate(expression string, payload TransactionPayload, impactAmount money.Amount) (bool, error) {
	env, err := cel.NewEnv(
		cel.Variable("tool_name", cel.StringType),
		cel.Variable("entity_id", cel.StringType),
		cel.Variable("transaction_category", cel.StringType),
		cel.Variable("risk_band", cel.StringType),
		cel.Variable("source_system", cel.StringType),
		cel.Variable("impact_amount", cel.DoubleType),
	)
	if err != nil {
		return false, fmt.Errorf("cel: build env: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("cel: compile: %w", issues.Err())
	}

	program, err := env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("cel: program: %w", err)
	}

	impactFloat, _ := impactAmount.Float64Approx()
	out, _, err := program.Eval(map[string]any{
		"tool_name":            payload.ToolName,
		"entity_id":            payload.EntityID,
		"transaction_category": payload.TransactionCategory,
		"risk_band":            payload.RiskBand,
		"source_system":        payload.SourceSystem,
		"impact_amount":        impactFloat,
	})
	if err != nil {
		return false, fmt.Errorf("cel: eval: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("cel: predicate must evaluate to a bool, got %T", out.Value())
	}
	return result, nil
}
