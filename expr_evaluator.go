package memento

import (
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

const exprEngine = "expr"

// ExprEvaluatorOption configures an expr evaluator instance.
type ExprEvaluatorOption func(*exprEvaluator)

// ExprWithProgramCache keeps compiled programs in cache.
func ExprWithProgramCache(cache ProgramCache) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		e.cache = cache
	}
}

// ExprWithFunctionRegistry exposes the registry's functions by name and
// through call(name, args...).
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		e.registry = registry.Clone()
	}
}

// ExprWithOptions appends raw expr compile options, such as extra
// operators or builtins.
func ExprWithOptions(opts ...exprlang.Option) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		e.extra = append(e.extra, opts...)
	}
}

type exprEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
	extra    []exprlang.Option
}

// NewExprEvaluator constructs an Evaluator backed by expr-lang/expr. It is
// the engine restore guards use unless another one is configured.
func NewExprEvaluator(opts ...ExprEvaluatorOption) Evaluator {
	e := &exprEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *exprEvaluator) engine() string { return exprEngine }

// Evaluate compiles (or loads) expression and runs it against ctx.
func (e *exprEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.compile(expression, e.cache)
	if err != nil {
		return nil, evalError(exprEngine, StageCompile, expression, ctx.Snapshot.ID, err)
	}
	return rule.Evaluate(ctx)
}

// Compile returns a rule bound to a single compiled program.
func (e *exprEvaluator) Compile(expression string, opts ...CompileOption) (CompiledRule, error) {
	return e.compile(expression, applyCompileOptions(e.cache, opts))
}

func (e *exprEvaluator) compile(expression string, cache ProgramCache) (*exprCompiledRule, error) {
	if expression == "" {
		return nil, evalError(exprEngine, StageCompile, "", "", ErrEmptyExpression)
	}
	program, err := cachedProgram(cache, programCacheKey(exprEngine, expression), func() (*exprvm.Program, error) {
		return exprlang.Compile(expression, e.compileOptions()...)
	})
	if err != nil {
		return nil, evalError(exprEngine, StageCompile, expression, "", err)
	}
	return &exprCompiledRule{evaluator: e, program: program, expression: expression}, nil
}

// compileOptions leaves the environment open: guard variables depend on the
// payload, so unknown identifiers resolve to nil rather than failing.
func (e *exprEvaluator) compileOptions() []exprlang.Option {
	opts := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	if e.registry != nil {
		for _, name := range e.registry.Names() {
			opts = append(opts, exprlang.Function(name, func(arguments ...any) (any, error) {
				return e.registry.Call(name, arguments...)
			}))
		}
	}
	return append(opts, e.extra...)
}

func (e *exprEvaluator) environment(ctx RuleContext) map[string]any {
	env := ctx.bindings()
	if e.registry != nil {
		env["call"] = func(name string, arguments ...any) (any, error) {
			return e.registry.Call(name, arguments...)
		}
	}
	return env
}

type exprCompiledRule struct {
	evaluator  *exprEvaluator
	program    *exprvm.Program
	expression string
}

func (r *exprCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil || r.program == nil {
		return nil, evalError(exprEngine, StageRun, r.expression, ctx.Snapshot.ID, ErrDetachedRule)
	}
	ctx = ctx.withDefaults()
	result, err := exprlang.Run(r.program, r.evaluator.environment(ctx))
	if err != nil {
		return nil, evalError(exprEngine, StageRun, r.expression, ctx.Snapshot.ID, err)
	}
	return result, nil
}
