package probe

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/itchyny/gojq"

	"github.com/drblury/readywait/jsonutil"
)

// StatusRange accepts status codes between lo and hi inclusive.
func StatusRange(lo, hi int) StatusPredicate {
	return func(status int) bool {
		return status >= lo && status <= hi
	}
}

// StatusExpr compiles a boolean expression over the variable status, for
// example `status >= 200 && status < 400`.
func StatusExpr(source string) (StatusPredicate, error) {
	program, err := expr.Compile(source, expr.Env(map[string]any{"status": 0}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile status expression %q: %w", source, err)
	}
	return func(status int) bool {
		out, err := expr.Run(program, map[string]any{"status": status})
		if err != nil {
			return false
		}
		ok, _ := out.(bool)
		return ok
	}, nil
}

// BodyContains accepts bodies containing substr.
func BodyContains(substr string) BodyPredicate {
	return func(body string) bool {
		return strings.Contains(body, substr)
	}
}

// BodyMatches accepts bodies matching the regular expression pattern.
func BodyMatches(pattern string) (BodyPredicate, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile body pattern %q: %w", pattern, err)
	}
	return re.MatchString, nil
}

// BodyJQ decodes the body as JSON and runs a jq query against it. The body
// passes when the first result is neither null nor false. Bodies that are not
// valid JSON never pass.
func BodyJQ(query string) (BodyPredicate, error) {
	parsed, err := gojq.Parse(query)
	if err != nil {
		return nil, fmt.Errorf("parse jq query %q: %w", query, err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("compile jq query %q: %w", query, err)
	}
	return func(body string) bool {
		var doc any
		if err := jsonutil.Unmarshal([]byte(body), &doc); err != nil {
			return false
		}
		v, ok := code.Run(doc).Next()
		if !ok {
			return false
		}
		if _, isErr := v.(error); isErr {
			return false
		}
		return v != nil && v != false
	}, nil
}

// AllBody accepts bodies passing every non-nil predicate. It returns nil when
// there is nothing to check.
func AllBody(predicates ...BodyPredicate) BodyPredicate {
	var checks []BodyPredicate
	for _, p := range predicates {
		if p != nil {
			checks = append(checks, p)
		}
	}
	switch len(checks) {
	case 0:
		return nil
	case 1:
		return checks[0]
	}
	return func(body string) bool {
		for _, check := range checks {
			if !check(body) {
				return false
			}
		}
		return true
	}
}
