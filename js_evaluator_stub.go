//go:build !js_eval

package memento

import "errors"

// ErrJSUnavailable is returned by the JS evaluator in builds without the
// js_eval tag.
var ErrJSUnavailable = errors.New("memento: js guards require the js_eval build tag")

// NewJSEvaluator returns an evaluator that rejects every expression, so a
// guard configured for JS fails loudly instead of running under another
// engine.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	_ = applyJSEvaluatorOptions(opts)
	return jsUnavailable{}
}

type jsUnavailable struct{}

func (jsUnavailable) engine() string { return "js" }

func (jsUnavailable) Evaluate(ctx RuleContext, expression string) (any, error) {
	return nil, evalError("js", StageCompile, expression, ctx.Snapshot.ID, ErrJSUnavailable)
}

func (jsUnavailable) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	return nil, evalError("js", StageCompile, expression, "", ErrJSUnavailable)
}

func jsEvaluatorAvailable() bool {
	return false
}
