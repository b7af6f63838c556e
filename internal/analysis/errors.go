// Package analysis implements the investment analysis orchestration core:
// the task registry and dependency graph, the task executor, the run
// orchestrator, the result assembler and the freshness oracle.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError indicates an invalid task registry wiring (cyclic or
// dangling dependencies). It is raised at construction time and is fatal at
// process startup, never at run time.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("task registry configuration error: %s", e.Message)
}

// SchemaViolationError indicates a task payload that failed validation
// against its declared output schema.
type SchemaViolationError struct {
	Task   string
	Reason string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("task %s output failed schema validation: %s", e.Task, e.Reason)
}

// IsSchemaViolation reports whether err is a payload validation failure.
func IsSchemaViolation(err error) bool {
	var sv *SchemaViolationError
	return errors.As(err, &sv)
}

// IsTransientError reports whether an error from the reasoning capability is
// worth retrying: rate limits, timeouts and network blips. Matched on message
// content because provider SDKs surface these inconsistently.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	for _, marker := range []string{
		"429",
		"529",
		"rate limit",
		"rate_limit",
		"overloaded",
		"resource_exhausted",
		"timeout",
		"deadline exceeded",
		"connection reset",
		"connection refused",
		"temporarily unavailable",
		"service unavailable",
	} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}
