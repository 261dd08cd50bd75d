package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

const policyPackage = "pos.session_extension"

// Default Rego policy. Eligibility fails closed: only roles named in
// eligible_roles may extend; everything else, demo accounts included,
// gets an advisory instead.
const defaultRegoPolicy = `package pos.session_extension

eligible_roles := {"normal", "admin", "manager", "cashier"}

default allowed = false

allowed if {
	input.role in eligible_roles
}

default advisory = ""

advisory = "Demo accounts cannot extend their session." if {
	input.role == "demo"
}

advisory = "This account type is not permitted to extend its session." if {
	not allowed
	input.role != "demo"
}
`

// OPAEvaluator evaluates session-extension eligibility using OPA Rego.
type OPAEvaluator struct {
	compiler *ast.Compiler
}

// NewOPAEvaluator returns an OPA-based evaluator. policySource overrides the
// default policy when non-empty; it must define allowed and advisory under
// package pos.session_extension.
func NewOPAEvaluator(policySource string) (*OPAEvaluator, error) {
	if policySource == "" {
		policySource = defaultRegoPolicy
	}
	compiler, err := ast.CompileModules(map[string]string{"session_extension.rego": policySource})
	if err != nil {
		return nil, fmt.Errorf("compile extension policy: %w", err)
	}
	return &OPAEvaluator{compiler: compiler}, nil
}

// ExtensionAllowed evaluates the policy for the given role.
func (e *OPAEvaluator) ExtensionAllowed(ctx context.Context, role string) (Decision, error) {
	q := rego.New(
		rego.Query(fmt.Sprintf("data.%s", policyPackage)),
		rego.Compiler(e.compiler),
		rego.Input(map[string]interface{}{"role": role}),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("eval extension policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return Decision{}, fmt.Errorf("extension policy returned no result")
	}
	doc, ok := rs[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return Decision{}, fmt.Errorf("extension policy returned unexpected value %T", rs[0].Expressions[0].Value)
	}

	var d Decision
	if allowed, ok := doc["allowed"].(bool); ok {
		d.Allowed = allowed
	}
	if advisory, ok := doc["advisory"].(string); ok {
		d.Advisory = advisory
	}
	return d, nil
}

var _ Evaluator = (*OPAEvaluator)(nil)
