package filter

import (
	"maps"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/verygoods/verygoods"
)

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	helpers    map[string]any
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size > 0 {
			c.cache = newLRUCache[CompiledFilter](size)
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *exprCompiler) {
		maps.Copy(c.helperFuncs, funcs)
	}
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) Compiler {
	c := &exprCompiler{
		helperFuncs: createHelperFunctions(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type exprCompiler struct {
	helperFuncs map[string]any
	cache       *lruCache[CompiledFilter]
}

// Compile compiles an expression into an executable filter
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	// Product fields are declared with zero values so the checker knows
	// their types; unknown identifiers evaluate to nil.
	compileEnv := createRuntimeEnvironment(verygoods.Product{}, c.helperFuncs)

	program, err := expr.Compile(expression,
		expr.Env(compileEnv),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
		helpers:    c.helperFuncs,
	}

	if c.cache != nil {
		c.cache.Put(expression, filter)
	}

	return filter, nil
}

// Clear removes all cached filters
func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Size()
	}
	return 0
}

// Evaluate reports whether product matches. Products that fail evaluation
// do not match.
func (f *exprFilter) Evaluate(product verygoods.Product) bool {
	ok, err := f.Match(product)
	return err == nil && ok
}

func (f *exprFilter) Match(product verygoods.Product) (bool, error) {
	result, err := expr.Run(f.program, createRuntimeEnvironment(product, f.helpers))
	if err != nil {
		return false, &EvaluationError{
			Expression:   f.expression,
			ProductID:    product.ID,
			ProductTitle: product.Title,
			Err:          err,
		}
	}

	// AsBool guarantees the result type
	return result.(bool), nil
}

func (f *exprFilter) Expression() string {
	return f.expression
}

// Compile compiles expression with the default helpers and no cache
func Compile(expression string) (CompiledFilter, error) {
	return NewExprCompiler().Compile(expression)
}
