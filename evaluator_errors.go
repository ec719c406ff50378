package memento

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyExpression is returned when a guard expression is blank.
	ErrEmptyExpression = errors.New("memento: guard expression is empty")
	// ErrDetachedRule is returned by a compiled rule that lost its evaluator.
	ErrDetachedRule = errors.New("memento: compiled rule has no evaluator")
)

// EvalStage names the step of a guard evaluation that failed.
type EvalStage string

const (
	// StageCompile covers parsing and type checking the expression.
	StageCompile EvalStage = "compile"
	// StageBind covers turning the candidate state into guard variables.
	StageBind EvalStage = "bind"
	// StageRun covers executing the compiled program.
	StageRun EvalStage = "run"
	// StageResult covers interpreting the value the program produced.
	StageResult EvalStage = "result"
)

// EvaluationError describes a restore guard that could not produce a verdict.
type EvaluationError struct {
	Engine     string
	Stage      EvalStage
	Expr       string
	SnapshotID string
	Err        error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("memento: %s guard %s failed", e.Engine, e.Stage)
	if e.Expr != "" {
		msg += fmt.Sprintf(" expr=%q", e.Expr)
	}
	if e.SnapshotID != "" {
		msg += " snapshot=" + e.SnapshotID
	}
	return msg + ": " + fmt.Sprint(e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// evalError wraps err as an *EvaluationError. When err already is one, only
// its blank fields are filled in so the innermost stage wins.
func evalError(engine string, stage EvalStage, expr, snapshotID string, err error) error {
	if err == nil {
		return nil
	}
	var existing *EvaluationError
	if !errors.As(err, &existing) {
		return &EvaluationError{Engine: engine, Stage: stage, Expr: expr, SnapshotID: snapshotID, Err: err}
	}
	fill := func(field *string, value string) {
		if *field == "" {
			*field = value
		}
	}
	fill(&existing.Engine, engine)
	fill(&existing.Expr, expr)
	fill(&existing.SnapshotID, snapshotID)
	if existing.Stage == "" {
		existing.Stage = stage
	}
	return existing
}
