package memento

import (
	"time"
)

// RuleContext carries the inputs of a restore guard evaluation. State is the
// candidate payload being restored, Current the live state it would replace.
// Fields holds State's top-level fields, bound as variables by every engine.
type RuleContext struct {
	State    any
	Current  any
	Fields   map[string]any
	Snapshot Meta
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx RuleContext) snapshotBinding() map[string]any {
	return map[string]any{
		"id":         ctx.Snapshot.ID,
		"label":      ctx.Snapshot.Label,
		"created_at": ctx.Snapshot.CreatedAt,
	}
}

// bindings returns the variables every engine exposes to a guard: the
// candidate's fields first, then the reserved names, which win on collision.
func (ctx RuleContext) bindings() map[string]any {
	fields := ctx.stateFields()
	out := make(map[string]any, len(fields)+6)
	for key, value := range fields {
		out[key] = value
	}
	out["now"] = ctx.timestamp()
	out["args"] = ctx.Args
	out["metadata"] = ctx.Metadata
	out["state"] = ctx.State
	out["current"] = ctx.Current
	out["snapshot"] = ctx.snapshotBinding()
	return out
}

// stateFields exposes the candidate's fields so guards can reference them
// directly (`count > 0` instead of `state.count > 0`).
func (ctx RuleContext) stateFields() map[string]any {
	if ctx.Fields != nil {
		return ctx.Fields
	}
	if fields, ok := ctx.State.(map[string]any); ok {
		return fields
	}
	return nil
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures a single Compile call.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct {
	bypassCache bool
}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// CompileUncached compiles a fresh program without reading or filling the
// evaluator's ProgramCache.
func CompileUncached() CompileOption {
	return compileOptionFunc(func(cfg *compileConfig) {
		cfg.bypassCache = true
	})
}

func applyCompileOptions(cache ProgramCache, opts []CompileOption) ProgramCache {
	cfg := compileConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt.applyCompileOption(&cfg)
		}
	}
	if cfg.bypassCache {
		return nil
	}
	return cache
}

type engineNamer interface {
	engine() string
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	if named, ok := e.(engineNamer); ok {
		return named.engine()
	}
	return "custom"
}
