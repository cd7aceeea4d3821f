package policy

import (
	"fmt"
	"strings"
)

// ParseMethodARN splits a method ARN of the form
// arn:<partition>:execute-api:<region>:<account>:<apiId>/<stage>/<verb>/<path>
// into the deployment scope and the invoked route.
func ParseMethodARN(arn string) (Scope, Route, error) {
	parts := strings.SplitN(arn, ":", 6)
	if len(parts) != 6 || parts[0] != "arn" {
		return Scope{}, Route{}, fmt.Errorf("%w: expected 6 colon-separated fields", ErrInvalidMethodARN)
	}

	resource := strings.Split(parts[5], "/")
	if len(resource) < 2 {
		return Scope{}, Route{}, fmt.Errorf("%w: expected <apiId>/<stage>", ErrInvalidMethodARN)
	}

	scope := Scope{
		Partition: parts[1],
		Region:    parts[3],
		AccountID: parts[4],
		APIID:     resource[0],
		Stage:     resource[1],
	}
	if scope.Region == "" || scope.AccountID == "" || scope.APIID == "" || scope.Stage == "" {
		return Scope{}, Route{}, fmt.Errorf("%w: empty scope field", ErrInvalidMethodARN)
	}

	var route Route
	if len(resource) > 2 {
		verb, err := ParseHTTPVerb(resource[2])
		if err != nil {
			return Scope{}, Route{}, fmt.Errorf("%w: %v", ErrInvalidMethodARN, err)
		}
		route.Verb = verb
		route.Path = "/" + strings.Join(resource[3:], "/")
	}

	return scope, route, nil
}
