package policy

import (
	"time"

	"github.com/openfroyo/octavia/pkg/engine"
)

// Severity represents the severity level of a policy violation.
type Severity string

const (
	// SeverityInfo is for informational messages.
	SeverityInfo Severity = "info"

	// SeverityWarning is for warnings that should be reviewed.
	SeverityWarning Severity = "warning"

	// SeverityError is for errors that should block enforcement.
	SeverityError Severity = "error"

	// SeverityCritical is for critical violations that must be addressed immediately.
	SeverityCritical Severity = "critical"
)

// Blocking reports whether violations of this severity reject a catalog.
func (s Severity) Blocking() bool {
	return s == SeverityError || s == SeverityCritical
}

// ParseSeverity returns the severity named by s, or false if s names none.
func ParseSeverity(s string) (Severity, bool) {
	switch sev := Severity(s); sev {
	case SeverityInfo, SeverityWarning, SeverityError, SeverityCritical:
		return sev, true
	}
	return "", false
}

// Policy represents a policy rule with its Rego code.
type Policy struct {
	// Name is the unique name of the policy.
	Name string `json:"name" yaml:"name"`

	// Description provides a human-readable description.
	Description string `json:"description" yaml:"description"`

	// Rego contains the Rego policy code. Violations are read from the
	// package's deny set.
	Rego string `json:"rego" yaml:"-"`

	// Severity is the default severity for violations that do not carry one.
	Severity Severity `json:"severity" yaml:"severity"`

	// Enabled indicates if the policy is active.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Builtin marks policies shipped with the tool.
	Builtin bool `json:"builtin" yaml:"builtin"`

	// Source is the file the policy was loaded from, empty for built-ins.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// PolicyViolation represents a single policy violation.
type PolicyViolation struct {
	// Policy is the name of the policy that was violated.
	Policy string `json:"policy"`

	// Entry is the "section/key" of the offending config entry, if any.
	Entry string `json:"entry,omitempty"`

	// Message is a human-readable violation message.
	Message string `json:"message"`

	// Severity is the violation severity level.
	Severity Severity `json:"severity"`

	// Remediation provides suggested fixes.
	Remediation string `json:"remediation,omitempty"`
}

// PolicyResult represents the result of policy evaluation.
type PolicyResult struct {
	// Allowed is false when any blocking violation was found.
	Allowed bool `json:"allowed"`

	// Violations lists all policy violations, blocking or not.
	Violations []PolicyViolation `json:"violations,omitempty"`

	// Warnings lists policies that failed to evaluate.
	Warnings []string `json:"warnings,omitempty"`

	// EvaluatedPolicies lists the names of policies that were evaluated.
	EvaluatedPolicies []string `json:"evaluated_policies"`

	// Duration is how long the evaluation took.
	Duration time.Duration `json:"duration"`
}

// Blocking returns the violations that reject the catalog.
func (r *PolicyResult) Blocking() []PolicyViolation {
	var blocking []PolicyViolation
	for _, v := range r.Violations {
		if v.Severity.Blocking() {
			blocking = append(blocking, v)
		}
	}
	return blocking
}

// Err returns a POLICY_VIOLATION error when the result is not allowed.
func (r *PolicyResult) Err() error {
	if r.Allowed {
		return nil
	}
	blocking := r.Blocking()
	msg := "catalog rejected by policy"
	if len(blocking) > 0 {
		msg = blocking[0].Message
	}
	return engine.NewPolicyError(msg, nil).
		WithCode(engine.ErrCodePolicyViolation).
		WithOperation("evaluate").
		WithDetail("violations", blocking)
}

// PolicyInput represents the input document exposed to Rego as `input`.
type PolicyInput struct {
	// Catalog is the compiled catalog under evaluation.
	Catalog *engine.Catalog `json:"catalog"`

	// Context provides additional evaluation context.
	Context *PolicyContext `json:"context"`
}

// PolicyContext provides context information for policy evaluation.
type PolicyContext struct {
	// Environment is the deployment environment (e.g., "production", "staging").
	Environment string `json:"environment,omitempty"`

	// Operation is the command being run (e.g., "render", "apply").
	Operation string `json:"operation,omitempty"`

	// DryRun indicates if no changes will be written.
	DryRun bool `json:"dry_run"`

	// Timestamp is when the evaluation is occurring.
	Timestamp time.Time `json:"timestamp"`
}
