// Package validate performs semantic validation of parsed statute
// documents.
//
// Validation compiles each statute's WHEN expression against the fact
// schema and checks THEN effects against the registry of known effect
// names. It never mutates the document.
package validate

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/dshills/lawkit/internal/dsl/ast"
)

// Issue is a single validation finding.
type Issue struct {
	StatuteID string // Statute the issue applies to
	Message   string // Human-readable description
}

// String returns a human-readable representation of the issue.
func (i Issue) String() string {
	return fmt.Sprintf("statute %q: %s", i.StatuteID, i.Message)
}

// ValidationErrors aggregates all issues found in one document.
type ValidationErrors struct {
	Issues []Issue
}

func (e *ValidationErrors) Error() string {
	if len(e.Issues) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.String()
	}
	return fmt.Sprintf("%d validation issue(s): %s", len(e.Issues), strings.Join(msgs, "; "))
}

// defaultEffects are the effect names the DSL runtime understands.
var defaultEffects = map[string]bool{
	"charge":    true,
	"fine":      true,
	"dismiss":   true,
	"refer":     true,
	"sentence":  true,
	"probation": true,
}

// Validator checks documents against the fact schema and effect
// registry. The zero value is not usable; construct with New.
type Validator struct {
	effects map[string]bool
	env     map[string]any
}

// Option configures a Validator.
type Option func(*Validator)

// WithEffects replaces the default effect registry.
func WithEffects(names ...string) Option {
	return func(v *Validator) {
		v.effects = make(map[string]bool, len(names))
		for _, n := range names {
			v.effects[n] = true
		}
	}
}

// WithEnv replaces the fact-schema environment WHEN expressions are
// compiled against.
func WithEnv(env map[string]any) Option {
	return func(v *Validator) {
		v.env = env
	}
}

// New creates a validator with the default effect registry and fact
// schema.
func New(opts ...Option) *Validator {
	v := &Validator{
		effects: defaultEffects,
		env:     defaultEnv(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// defaultEnv is the fact schema available to WHEN expressions.
func defaultEnv() map[string]any {
	return map[string]any{
		"item": map[string]any{
			"value":    0.0,
			"category": "",
		},
		"suspect": map[string]any{
			"intent":     "",
			"age":        0,
			"prior_acts": 0,
		},
		"act": map[string]any{
			"location": "",
			"at_night": false,
			"armed":    false,
		},
	}
}

// ValidateDocument checks every statute in the document.
// It returns nil when the document is semantically sound, or a
// *ValidationErrors aggregating every issue found.
func (v *Validator) ValidateDocument(doc *ast.Document) error {
	var issues []Issue

	for _, st := range doc.Statutes {
		issues = append(issues, v.validateStatute(st)...)
	}

	if len(issues) > 0 {
		return &ValidationErrors{Issues: issues}
	}
	return nil
}

// validateStatute checks one statute's WHEN expression and effects.
func (v *Validator) validateStatute(st *ast.Statute) []Issue {
	var issues []Issue

	if st.When != "" {
		// Compile without evaluating: a WHEN clause must be a valid
		// boolean expression over the fact schema.
		_, err := expr.Compile(st.When,
			expr.Env(v.env),
			expr.AsBool(),
			expr.AllowUndefinedVariables(),
		)
		if err != nil {
			issues = append(issues, Issue{
				StatuteID: st.ID,
				Message:   fmt.Sprintf("invalid WHEN expression: %v", err),
			})
		}
	}

	for _, eff := range st.Effects {
		if !v.effects[eff.Name] {
			issues = append(issues, Issue{
				StatuteID: st.ID,
				Message:   fmt.Sprintf("unknown effect %q", eff.Name),
			})
		}
		if len(eff.Args) == 0 {
			issues = append(issues, Issue{
				StatuteID: st.ID,
				Message:   fmt.Sprintf("effect %q has no arguments", eff.Name),
			})
		}
	}

	return issues
}
