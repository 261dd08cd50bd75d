// Package policy decides which roles may extend their own sessions.
package policy

import "context"

// Decision is the outcome of an extension-eligibility check. When Allowed is
// false, Advisory carries the user-facing explanation.
type Decision struct {
	Allowed  bool
	Advisory string
}

// Evaluator answers whether a role may extend its session. Implementations
// must fail closed: an unknown role is not eligible.
type Evaluator interface {
	ExtensionAllowed(ctx context.Context, role string) (Decision, error)
}
