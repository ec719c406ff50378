package memento

import (
	"fmt"
	"time"

	"github.com/goliatone/go-memento/internal/fields"
)

// resolveGuardEvaluator picks the guard engine once at construction so
// concurrent restores never race on lazy initialisation.
func (o *Owner[T]) resolveGuardEvaluator() {
	if o.cfg.guard == "" || o.cfg.evaluator != nil {
		return
	}
	if o.cfg.programCache == nil {
		o.cfg.programCache = NewLRUProgramCache(DefaultProgramCacheSize)
	}
	exprOpts := []ExprEvaluatorOption{ExprWithProgramCache(o.cfg.programCache)}
	if o.cfg.functions != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(o.cfg.functions))
	}
	o.cfg.evaluator = NewExprEvaluator(exprOpts...)
}

// checkGuard evaluates the restore guard against candidate. o.mu must not be
// held.
func (o *Owner[T]) checkGuard(candidate T, meta Meta) error {
	expression := o.cfg.guard
	if expression == "" {
		return nil
	}
	evaluator := o.cfg.evaluator
	engine := evaluatorEngineName(evaluator)
	if o.cfg.optionErr != nil {
		return evalError(engine, StageCompile, expression, meta.ID, o.cfg.optionErr)
	}

	bound, _, err := fields.Of(candidate)
	if err != nil {
		return evalError(engine, StageBind, expression, meta.ID, err)
	}
	ctx := RuleContext{
		State:    candidate,
		Current:  o.State(),
		Fields:   bound,
		Snapshot: meta,
	}.withDefaults()

	start := time.Now()
	value, err := evaluator.Evaluate(ctx, expression)
	duration := time.Since(start)

	passed := false
	if err != nil {
		err = evalError(engine, StageRun, expression, meta.ID, err)
	} else if verdict, ok := value.(bool); ok {
		passed = verdict
	} else {
		err = evalError(engine, StageResult, expression, meta.ID, fmt.Errorf("want bool, got %T", value))
	}
	o.cfg.logger.LogGuard(GuardLogEvent{
		Engine:     engine,
		Expr:       expression,
		SnapshotID: meta.ID,
		Passed:     passed,
		Duration:   duration,
		Err:        err,
	})
	if err != nil {
		return err
	}
	if !passed {
		return fmt.Errorf("guard %q evaluated to false", expression)
	}
	return nil
}
