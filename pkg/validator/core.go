// Package validator implements a small rule-based validation layer for
// form submissions. Rules are composed per request and applied in one
// pass; all failures are collected rather than stopping at the first.
package validator

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError describes a single failed rule.
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors is the collection of failures from one Apply call.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(ve))
	for _, err := range ve {
		parts = append(parts, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the distinct field names that failed, in order.
func (ve ValidationErrors) Fields() []string {
	var fields []string
	seen := make(map[string]bool)
	for _, err := range ve {
		if !seen[err.Field] {
			fields = append(fields, err.Field)
			seen[err.Field] = true
		}
	}
	return fields
}

// Rule pairs a predicate with the error reported when it fails.
type Rule struct {
	Check func() bool
	Error ValidationError
}

// Apply executes the rules and returns ValidationErrors, or nil when all
// rules pass.
func Apply(rules ...Rule) error {
	var failures ValidationErrors
	for _, rule := range rules {
		if !rule.Check() {
			failures = append(failures, rule.Error)
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return failures
}

// Extract returns the ValidationErrors wrapped in err, or nil when err is
// not a validation failure.
func Extract(err error) ValidationErrors {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
