//go:build js_eval

package memento

import (
	"fmt"
	"time"

	"github.com/dop251/goja"
)

const jsEngine = "js"

type jsEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
	timeout  time.Duration
}

// NewJSEvaluator constructs an Evaluator backed by goja. Each evaluation runs
// in its own runtime.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	cfg := applyJSEvaluatorOptions(opts)
	return &jsEvaluator{
		cache:    cfg.cache,
		registry: cfg.registry,
		timeout:  cfg.timeout,
	}
}

func (e *jsEvaluator) engine() string { return jsEngine }

func (e *jsEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.compile(expression, e.cache)
	if err != nil {
		return nil, evalError(jsEngine, StageCompile, expression, ctx.Snapshot.ID, err)
	}
	return rule.Evaluate(ctx)
}

func (e *jsEvaluator) Compile(expression string, opts ...CompileOption) (CompiledRule, error) {
	return e.compile(expression, applyCompileOptions(e.cache, opts))
}

func (e *jsEvaluator) compile(expression string, cache ProgramCache) (*jsCompiledRule, error) {
	if expression == "" {
		return nil, evalError(jsEngine, StageCompile, "", "", ErrEmptyExpression)
	}
	program, err := cachedProgram(cache, programCacheKey(jsEngine, expression), func() (*goja.Program, error) {
		return goja.Compile("guard", fmt.Sprintf("(function(){ return (%s); })()", expression), true)
	})
	if err != nil {
		return nil, evalError(jsEngine, StageCompile, expression, "", err)
	}
	return &jsCompiledRule{evaluator: e, expression: expression, program: program}, nil
}

func (e *jsEvaluator) run(ctx RuleContext, program *goja.Program) (any, error) {
	vm := goja.New()
	for key, value := range ctx.bindings() {
		if err := vm.Set(key, value); err != nil {
			return nil, err
		}
	}
	if e.registry != nil {
		call := func(name string, arguments ...any) (any, error) {
			return e.registry.Call(name, arguments...)
		}
		if err := vm.Set("call", call); err != nil {
			return nil, err
		}
		for _, name := range e.registry.Names() {
			if err := vm.Set(name, func(arguments ...any) (any, error) {
				return call(name, arguments...)
			}); err != nil {
				return nil, err
			}
		}
	}
	if e.timeout > 0 {
		timer := time.AfterFunc(e.timeout, func() {
			vm.Interrupt(fmt.Sprintf("guard exceeded %s", e.timeout))
		})
		defer timer.Stop()
	}
	value, err := vm.RunProgram(program)
	if err != nil {
		return nil, err
	}
	return value.Export(), nil
}

type jsCompiledRule struct {
	evaluator  *jsEvaluator
	expression string
	program    *goja.Program
}

func (r *jsCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil || r.program == nil {
		return nil, evalError(jsEngine, StageRun, r.expression, ctx.Snapshot.ID, ErrDetachedRule)
	}
	ctx = ctx.withDefaults()
	value, err := r.evaluator.run(ctx, r.program)
	if err != nil {
		return nil, evalError(jsEngine, StageRun, r.expression, ctx.Snapshot.ID, err)
	}
	return value, nil
}

func jsEvaluatorAvailable() bool {
	return true
}
