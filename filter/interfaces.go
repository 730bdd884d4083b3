package filter

import (
	"github.com/s0up4200/verygoods/verygoods"
)

// Filter defines the basic interface for product filters
type Filter interface {
	// Evaluate checks if a product matches the filter criteria
	Evaluate(product verygoods.Product) bool
}

// CompiledFilter represents a pre-compiled filter ready for evaluation
type CompiledFilter interface {
	Filter

	// Match is Evaluate with the evaluation error reported
	Match(product verygoods.Product) (bool, error)

	// Expression returns the original filter expression
	Expression() string
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	// Compile parses and compiles a filter expression
	Compile(expression string) (CompiledFilter, error)
}

// CachingCompiler provides caching for compiled filters
type CachingCompiler interface {
	Compiler

	// Clear removes all cached filters
	Clear()

	// Size returns the number of cached filters
	Size() int
}
