package memento

import (
	"reflect"
	"slices"
	"strings"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

const celEngine = "cel"

// reservedBindings are declared by every CEL environment; payload fields
// with these names are shadowed.
var reservedBindings = []string{"args", "metadata", "state", "current", "snapshot", "now"}

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache keeps compiled programs in cache. Programs are keyed by
// expression and the set of payload field names they were declared with.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry exposes registry through the CEL `call(name, [args])`
// function.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.registry = registry.Clone()
	}
}

type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go. Payload fields are
// declared as dynamic variables; `state` itself converts natively only for
// scalars, slices, maps and time values.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) engine() string { return celEngine }

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	return e.evaluate(ctx, expression, e.cache)
}

// Compile checks the expression against an environment without payload
// fields and defers program construction to evaluation time, because the
// declared variables depend on the payload being guarded.
func (e *celEvaluator) Compile(expression string, opts ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, evalError(celEngine, StageCompile, "", "", ErrEmptyExpression)
	}
	env, err := e.env(nil)
	if err != nil {
		return nil, evalError(celEngine, StageCompile, expression, "", err)
	}
	if _, issues := env.Parse(expression); issues != nil && issues.Err() != nil {
		return nil, evalError(celEngine, StageCompile, expression, "", issues.Err())
	}
	return &celCompiledRule{
		evaluator:  e,
		expression: expression,
		cache:      applyCompileOptions(e.cache, opts),
	}, nil
}

func (e *celEvaluator) evaluate(ctx RuleContext, expression string, cache ProgramCache) (any, error) {
	if expression == "" {
		return nil, evalError(celEngine, StageCompile, "", ctx.Snapshot.ID, ErrEmptyExpression)
	}
	ctx = ctx.withDefaults()
	bindings := ctx.bindings()
	fields := fieldNames(ctx.stateFields())

	key := programCacheKey(celEngine, expression+"|"+strings.Join(fields, ","))
	program, err := cachedProgram(cache, key, func() (celgo.Program, error) {
		env, err := e.env(fields)
		if err != nil {
			return nil, err
		}
		ast, issues := env.Compile(expression)
		if issues != nil && issues.Err() != nil {
			return nil, issues.Err()
		}
		return env.Program(ast)
	})
	if err != nil {
		return nil, evalError(celEngine, StageCompile, expression, ctx.Snapshot.ID, err)
	}
	out, _, err := program.Eval(bindings)
	if err != nil {
		return nil, evalError(celEngine, StageRun, expression, ctx.Snapshot.ID, err)
	}
	return out.Value(), nil
}

func (e *celEvaluator) env(fields []string) (*celgo.Env, error) {
	opts := []celgo.EnvOption{celgo.Variable("now", celgo.TimestampType)}
	for _, name := range reservedBindings {
		if name != "now" {
			opts = append(opts, celgo.Variable(name, celgo.DynType))
		}
	}
	for _, name := range fields {
		if !slices.Contains(reservedBindings, name) {
			opts = append(opts, celgo.Variable(name, celgo.DynType))
		}
	}
	if e.registry != nil {
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_string_list",
				[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
				celgo.DynType,
				celgo.BinaryBinding(e.callBinding),
			),
		))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) callBinding(name, arguments ref.Val) ref.Val {
	fn, ok := name.Value().(string)
	if !ok {
		return types.NewErr("memento: call name must be a string")
	}
	native, err := arguments.ConvertToNative(reflect.TypeOf([]any{}))
	if err != nil {
		return types.NewErr("memento: call %s arguments: %v", fn, err)
	}
	args, _ := native.([]any)
	result, err := e.registry.Call(fn, args...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}

type celCompiledRule struct {
	evaluator  *celEvaluator
	expression string
	cache      ProgramCache
}

func (r *celCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil {
		return nil, evalError(celEngine, StageRun, r.expression, ctx.Snapshot.ID, ErrDetachedRule)
	}
	return r.evaluator.evaluate(ctx, r.expression, r.cache)
}

func fieldNames(fields map[string]any) []string {
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
