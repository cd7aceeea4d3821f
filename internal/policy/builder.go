package policy

import (
	"fmt"
	"regexp"
	"strings"
)

var resourcePathPattern = regexp.MustCompile(`^[/.a-zA-Z0-9\-*]+$`)

type rule struct {
	resourceARN string
	conditions  Conditions
}

// Builder accumulates rules for one principal within one Scope.
// A Builder is not safe for concurrent use; create one per decision.
type Builder struct {
	principalID string
	scope       Scope
	allow       []rule
	deny        []rule
}

// NewBuilder creates a Builder with empty allow and deny buckets
func NewBuilder(principalID string, scope Scope) *Builder {
	if scope.Partition == "" {
		scope.Partition = DefaultPartition
	}
	return &Builder{
		principalID: principalID,
		scope:       scope,
		allow:       make([]rule, 0),
		deny:        make([]rule, 0),
	}
}

// AddRule validates the verb and resource path and appends a rule to the
// bucket for effect.
func (b *Builder) AddRule(effect Effect, verb HTTPVerb, resourcePath string, conditions Conditions) error {
	if !verb.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidVerb, verb)
	}
	if !resourcePathPattern.MatchString(resourcePath) {
		return fmt.Errorf("%w: %q should match %s", ErrInvalidResourcePath, resourcePath, resourcePathPattern)
	}

	r := rule{
		resourceARN: b.resourceARN(verb, strings.TrimPrefix(resourcePath, "/")),
		conditions:  copyConditions(conditions),
	}

	switch effect {
	case Allow:
		b.allow = append(b.allow, r)
	case Deny:
		b.deny = append(b.deny, r)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidEffect, effect)
	}

	return nil
}

// AllowAll allows every verb on every resource of the scope
func (b *Builder) AllowAll() error {
	return b.AddRule(Allow, VerbAll, "*", nil)
}

// DenyAll denies every verb on every resource of the scope
func (b *Builder) DenyAll() error {
	return b.AddRule(Deny, VerbAll, "*", nil)
}

// AllowMethod allows one verb on one resource path
func (b *Builder) AllowMethod(verb HTTPVerb, resourcePath string) error {
	return b.AddRule(Allow, verb, resourcePath, nil)
}

// DenyMethod denies one verb on one resource path
func (b *Builder) DenyMethod(verb HTTPVerb, resourcePath string) error {
	return b.AddRule(Deny, verb, resourcePath, nil)
}

// AllowMethodWithConditions allows one verb on one resource path when conditions hold
func (b *Builder) AllowMethodWithConditions(verb HTTPVerb, resourcePath string, conditions Conditions) error {
	return b.AddRule(Allow, verb, resourcePath, conditions)
}

// DenyMethodWithConditions denies one verb on one resource path when conditions hold
func (b *Builder) DenyMethodWithConditions(verb HTTPVerb, resourcePath string, conditions Conditions) error {
	return b.AddRule(Deny, verb, resourcePath, conditions)
}

// Build renders the accumulated rules. The context map starts empty.
func (b *Builder) Build() (*Response, error) {
	if len(b.allow) == 0 && len(b.deny) == 0 {
		return nil, ErrEmptyPolicy
	}

	statements := make([]Statement, 0, len(b.allow)+len(b.deny))
	statements = append(statements, statementsForEffect(Allow, b.allow)...)
	statements = append(statements, statementsForEffect(Deny, b.deny)...)

	return &Response{
		PrincipalID: b.principalID,
		PolicyDocument: Document{
			Version:   Version,
			Statement: statements,
		},
		Context: map[string]string{},
	}, nil
}

func (b *Builder) resourceARN(verb HTTPVerb, path string) string {
	return fmt.Sprintf("arn:%s:execute-api:%s:%s:%s/%s/%s/%s",
		b.scope.Partition,
		b.scope.Region,
		b.scope.AccountID,
		b.scope.APIID,
		b.scope.Stage,
		verb,
		path,
	)
}

// statementsForEffect emits one statement per conditioned rule followed by a
// single statement merging every unconditioned rule. The merged statement is
// always present once the effect has a rule, even with an empty Resource list.
func statementsForEffect(effect Effect, rules []rule) []Statement {
	if len(rules) == 0 {
		return nil
	}

	var statements []Statement
	merged := Statement{Action: InvokeAction, Effect: effect, Resource: []string{}}

	for _, r := range rules {
		if len(r.conditions) == 0 {
			merged.Resource = append(merged.Resource, r.resourceARN)
			continue
		}
		statements = append(statements, Statement{
			Action:    InvokeAction,
			Effect:    effect,
			Resource:  []string{r.resourceARN},
			Condition: r.conditions,
		})
	}

	return append(statements, merged)
}

func copyConditions(conditions Conditions) Conditions {
	if len(conditions) == 0 {
		return nil
	}
	out := make(Conditions, len(conditions))
	for op, values := range conditions {
		inner := make(map[string]interface{}, len(values))
		for k, v := range values {
			inner[k] = v
		}
		out[op] = inner
	}
	return out
}
