package filter

import (
	"errors"
	"fmt"
)

// ErrFilterNotFound is returned when a named filter is not registered
var ErrFilterNotFound = errors.New("filter not found")

type (
	// CompilationError indicates a filter expression could not be compiled
	CompilationError struct {
		Expression string
		Reason     string
		Err        error
	}

	// EvaluationError indicates a filter could not be evaluated against a product
	EvaluationError struct {
		Expression   string
		ProductID    int64
		ProductTitle string
		Err          error
	}
)

func (e *CompilationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("compilation error in '%s': %s: %v", e.Expression, e.Reason, e.Err)
	}
	return fmt.Sprintf("compilation error in '%s': %s", e.Expression, e.Reason)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation error for '%s' on product %d (%s): %v", e.Expression, e.ProductID, e.ProductTitle, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}
