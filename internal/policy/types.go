package policy

import (
	"errors"
	"fmt"
)

// Version is the policy language version of every rendered document
const Version = "2012-10-17"

// InvokeAction is the only action an authorizer policy grants or denies
const InvokeAction = "execute-api:Invoke"

// DefaultPartition is used when a Scope has no partition
const DefaultPartition = "aws"

var (
	// ErrInvalidVerb is returned when a verb is outside the HTTPVerb enumeration
	ErrInvalidVerb = errors.New("invalid HTTP verb")

	// ErrInvalidResourcePath is returned when a resource path contains disallowed characters
	ErrInvalidResourcePath = errors.New("invalid resource path")

	// ErrInvalidEffect is returned when an effect is neither Allow nor Deny
	ErrInvalidEffect = errors.New("invalid effect")

	// ErrEmptyPolicy is returned when Build is called before any rule was added
	ErrEmptyPolicy = errors.New("no statements defined for the policy")

	// ErrInvalidMethodARN is returned when a method ARN cannot be split into a scope
	ErrInvalidMethodARN = errors.New("invalid method ARN")
)

// HTTPVerb is an API Gateway method verb or the wildcard
type HTTPVerb string

const (
	VerbGet     HTTPVerb = "GET"
	VerbPost    HTTPVerb = "POST"
	VerbPut     HTTPVerb = "PUT"
	VerbPatch   HTTPVerb = "PATCH"
	VerbHead    HTTPVerb = "HEAD"
	VerbDelete  HTTPVerb = "DELETE"
	VerbOptions HTTPVerb = "OPTIONS"
	VerbAll     HTTPVerb = "*"
)

// IsValid reports whether v is one of the known verbs or the wildcard
func (v HTTPVerb) IsValid() bool {
	switch v {
	case VerbGet, VerbPost, VerbPut, VerbPatch, VerbHead, VerbDelete, VerbOptions, VerbAll:
		return true
	}
	return false
}

// ParseHTTPVerb converts a string into an HTTPVerb. Matching is case-sensitive.
func ParseHTTPVerb(s string) (HTTPVerb, error) {
	v := HTTPVerb(s)
	if !v.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidVerb, s)
	}
	return v, nil
}

// Effect is the outcome a statement applies
type Effect string

const (
	Allow Effect = "Allow"
	Deny  Effect = "Deny"
)

// Conditions maps a condition operator to context keys and values.
// It is rendered verbatim.
type Conditions map[string]map[string]interface{}

// Scope identifies the API deployment every rule in a document is confined to
type Scope struct {
	Partition string
	Region    string
	AccountID string
	APIID     string
	Stage     string
}

// Route is the method being invoked, as carried in the method ARN
type Route struct {
	Verb HTTPVerb
	Path string
}

// Statement is one rendered policy statement
type Statement struct {
	Action    string     `json:"Action"`
	Effect    Effect     `json:"Effect"`
	Resource  []string   `json:"Resource"`
	Condition Conditions `json:"Condition,omitempty"`
}

// Document is the rendered policy document
type Document struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

// Response is the authorizer output consumed by the gateway. Field order is
// part of the gateway contract.
type Response struct {
	PrincipalID    string            `json:"principalId"`
	PolicyDocument Document          `json:"policyDocument"`
	Context        map[string]string `json:"context"`
}

// WithContext attaches the context map. A nil map renders as {}.
func (r *Response) WithContext(ctx map[string]string) *Response {
	r.Context = make(map[string]string, len(ctx))
	for k, v := range ctx {
		r.Context[k] = v
	}
	return r
}
