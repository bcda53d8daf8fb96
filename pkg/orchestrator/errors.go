package orchestrator

import (
	"errors"
	"fmt"
)

// Category classifies an error for retry-policy purposes (spec §7).
type Category string

const (
	CategorySyntax        Category = "syntax"
	CategoryType           Category = "type"
	CategoryImport         Category = "import"
	CategoryAttribute      Category = "attribute"
	CategoryName           Category = "name"
	CategoryIndex          Category = "index"
	CategoryValue          Category = "value"
	CategoryAssertion      Category = "assertion"
	CategoryRuntime        Category = "runtime"
	CategoryMemory         Category = "memory"
	CategoryPermission     Category = "permission"
	CategoryNetwork        Category = "network"
	CategoryDatabase       Category = "database"
	CategoryPlanning       Category = "planning"
	CategoryGeneration     Category = "generation"
	CategoryValidation     Category = "validation"
	CategorySchema         Category = "schema"
	CategoryCoordination   Category = "coordination"
	CategoryDebugging      Category = "debugging"
	CategoryAuthentication Category = "authentication"
	CategoryUnknown        Category = "unknown"
)

// TaskError is the typed error record the orchestrator wraps every
// external-call failure in (spec §7 "Context record").
type TaskError struct {
	Category          Category
	Message           string
	Component         string
	Phase             string
	Operation         string
	AttemptNumber     int
	RecoveryAttempted bool
	RecoveryStrategy  string
	Cause             error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("%s: %s/%s: %s", e.Category, e.Component, e.Operation, e.Message)
}

func (e *TaskError) Unwrap() error { return e.Cause }

// errNew is a small indirection so sentinel errors in this package read
// the same as wrapped external-call errors.
func errNew(text string) error { return errors.New(text) }

// wrap builds a TaskError for a failed external call.
func wrap(cause error, category Category, component, phase, operation string, attempt int) *TaskError {
	return &TaskError{
		Category:      category,
		Message:       cause.Error(),
		Component:     component,
		Phase:         phase,
		Operation:     operation,
		AttemptNumber: attempt,
		Cause:         cause,
	}
}

// shouldRetry implements spec §7's propagation policy: transient
// network/runtime failures are retryable; validation, schema,
// authentication and permission failures never are.
func shouldRetry(err error) bool {
	var te *TaskError
	if !errors.As(err, &te) {
		return false
	}
	switch te.Category {
	case CategoryNetwork, CategoryDatabase, CategoryRuntime, CategoryCoordination:
		return true
	case CategoryValidation, CategorySchema, CategoryAuthentication, CategoryPermission:
		return false
	default:
		return false
	}
}
