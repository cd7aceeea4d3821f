// Package policy builds the access-control documents returned to API Gateway
// by a token authorizer.
//
// A Builder accumulates allow and deny rules for (verb, resource path) pairs
// within one deployment Scope and renders them into a Response:
//
//	{
//	  "principalId": "...",
//	  "policyDocument": {"Version": "2012-10-17", "Statement": [...]},
//	  "context": {...}
//	}
//
// Rules without conditions are merged into one statement per effect. Rules
// with conditions each get their own statement. Allow statements are emitted
// before Deny statements, and within an effect the conditioned statements
// come first.
package policy
