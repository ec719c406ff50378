package memento

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRestoreGuardRejectsCandidate(t *testing.T) {
	owner := NewOwner("AB", WithRestoreGuard("len(state) > 3"))
	short := owner.Save()
	owner.Set("ABCDE")
	long := owner.Save()
	owner.Set("live")

	err := owner.Restore(short)
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	if owner.State() != "live" {
		t.Fatalf("rejected restore must not change state, got %q", owner.State())
	}

	if err := owner.Restore(long); err != nil {
		t.Fatalf("expected guard to pass, got %v", err)
	}
	if owner.State() != "ABCDE" {
		t.Fatalf("expected restored state, got %q", owner.State())
	}
}

func TestRestoreGuardSeesMapFieldsAndSnapshotMeta(t *testing.T) {
	owner := NewOwner(map[string]any{"count": 2},
		WithIDGenerator(func() string { return "snap-ok" }),
		WithRestoreGuard(`count > 0 && snapshot.id == "snap-ok" && current.count == 0`),
	)
	snap := owner.Save()
	owner.Set(map[string]any{"count": 0})

	if err := owner.Restore(snap); err != nil {
		t.Fatalf("expected guard to pass, got %v", err)
	}
	if owner.State()["count"] != 2 {
		t.Fatalf("expected count restored, got %v", owner.State())
	}
}

func TestRestoreGuardNonBooleanIsRejected(t *testing.T) {
	var events []GuardLogEvent
	owner := NewOwner("abc",
		WithRestoreGuard("len(state)"),
		WithGuardLogger(GuardLoggerFunc(func(e GuardLogEvent) { events = append(events, e) })),
	)
	snap := owner.Save()

	err := owner.Restore(snap)
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError in chain, got %v", err)
	}
	if evalErr.Engine != "expr" || evalErr.SnapshotID != snap.Metadata().ID {
		t.Fatalf("unexpected evaluation metadata: %+v", evalErr)
	}
	if len(events) != 1 || events[0].Passed || events[0].Err == nil {
		t.Fatalf("expected one failed guard log event, got %+v", events)
	}
}

func TestRestoreGuardLogsPassingEvaluation(t *testing.T) {
	var events []GuardLogEvent
	owner := NewOwner("abcdef",
		WithRestoreGuard("len(state) > 1"),
		WithGuardLogger(GuardLoggerFunc(func(e GuardLogEvent) { events = append(events, e) })),
	)
	if err := owner.Restore(owner.Save()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one log event, got %d", len(events))
	}
	if !events[0].Passed || events[0].Engine != "expr" || events[0].Expr != "len(state) > 1" {
		t.Fatalf("unexpected log event: %+v", events[0])
	}
}

func TestRestoreGuardCustomFunction(t *testing.T) {
	owner := NewOwner("blocked",
		WithCustomFunction("allowed", func(args ...any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("allowed expects one argument")
			}
			return args[0] != "blocked", nil
		}),
		WithRestoreGuard("allowed(state)"),
	)
	blocked := owner.Save()
	owner.Set("fine")
	fine := owner.Save()

	if err := owner.Restore(blocked); !errors.Is(err, ErrRejected) {
		t.Fatalf("expected custom function to reject, got %v", err)
	}
	if err := owner.Restore(fine); err != nil {
		t.Fatalf("expected custom function to allow, got %v", err)
	}
}

func TestRestoreGuardFunctionCanReadOwner(t *testing.T) {
	var owner *Owner[string]
	owner = NewOwner("old",
		WithCustomFunction("live", func(...any) (any, error) {
			return owner.State(), nil
		}),
		WithRestoreGuard(`live() != state`),
	)
	snap := owner.Save()
	owner.Set("new")

	done := make(chan error, 1)
	go func() { done <- owner.Restore(snap) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected restore to pass, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("restore blocked while the guard read the owner")
	}
	if got := owner.State(); got != "old" {
		t.Fatalf("expected old, got %q", got)
	}
}

func TestCELRestoreGuard(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("isEven", func(args ...any) (any, error) {
		n, ok := args[0].(int64)
		if !ok {
			return nil, fmt.Errorf("isEven expects int64, got %T", args[0])
		}
		return n%2 == 0, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	owner := NewOwner(map[string]any{"count": 3},
		WithGuardEvaluator(NewCELEvaluator(
			CELWithProgramCache(NewLRUProgramCache(8)),
			CELWithFunctionRegistry(registry),
		)),
		WithRestoreGuard(`count > 0 && call("isEven", [count])`),
	)
	odd := owner.Save()
	owner.Set(map[string]any{"count": 4})
	even := owner.Save()

	if err := owner.Restore(odd); !errors.Is(err, ErrRejected) {
		t.Fatalf("expected odd count rejected, got %v", err)
	}
	if err := owner.Restore(even); err != nil {
		t.Fatalf("expected even count accepted, got %v", err)
	}
}

func TestCELEvaluatorStringState(t *testing.T) {
	evaluator := NewCELEvaluator()
	value, err := evaluator.Evaluate(RuleContext{State: "hello"}, "size(state) == 5")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if value != true {
		t.Fatalf("expected true, got %v", value)
	}

	if _, err := evaluator.Evaluate(RuleContext{}, "state +"); err == nil {
		t.Fatalf("expected compile error")
	}
}

func TestExprCompiledRuleReuse(t *testing.T) {
	cache := NewLRUProgramCache(4)
	evaluator := NewExprEvaluator(ExprWithProgramCache(cache))
	rule, err := evaluator.Compile("state * 2")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	for _, tc := range []struct{ in, want int }{{1, 2}, {5, 10}} {
		got, err := rule.Evaluate(RuleContext{State: tc.in})
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if got != tc.want {
			t.Fatalf("want %d, got %v", tc.want, got)
		}
	}
	if _, ok := cache.Get(programCacheKey("expr", "state * 2")); !ok {
		t.Fatalf("expected compiled program to be cached")
	}
}

func TestCompileUncachedSkipsCache(t *testing.T) {
	cache := NewLRUProgramCache(4)
	evaluator := NewExprEvaluator(ExprWithProgramCache(cache))
	rule, err := evaluator.Compile("state + 1", CompileUncached())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if got, err := rule.Evaluate(RuleContext{State: 1}); err != nil || got != 2 {
		t.Fatalf("expected 2, got %v err=%v", got, err)
	}
	if _, ok := cache.Get(programCacheKey("expr", "state + 1")); ok {
		t.Fatalf("expected uncached compile to leave cache empty")
	}
}

func TestJSRestoreGuard(t *testing.T) {
	if !jsEvaluatorAvailable() {
		t.Skip("js evaluator requires the js_eval build tag")
	}
	owner := NewOwner("xy",
		WithGuardEvaluator(NewJSEvaluator()),
		WithRestoreGuard("state.length > 2"),
	)
	snap := owner.Save()
	if err := owner.Restore(snap); !errors.Is(err, ErrRejected) {
		t.Fatalf("expected js guard to reject, got %v", err)
	}
}

func TestJSGuardWithoutBuildTagRejects(t *testing.T) {
	if jsEvaluatorAvailable() {
		t.Skip("js evaluator compiled in")
	}
	owner := NewOwner("xyz",
		WithGuardEvaluator(NewJSEvaluator()),
		WithRestoreGuard("state.length > 2"),
	)
	err := owner.Restore(owner.Save())
	if !errors.Is(err, ErrJSUnavailable) || !errors.Is(err, ErrRejected) {
		t.Fatalf("expected unavailable js guard to reject, got %v", err)
	}
}

func TestJSGuardTimeout(t *testing.T) {
	if !jsEvaluatorAvailable() {
		t.Skip("js evaluator requires the js_eval build tag")
	}
	owner := NewOwner("loop",
		WithGuardEvaluator(NewJSEvaluator(JSWithTimeout(20*time.Millisecond))),
		WithRestoreGuard("(function(){ while (true) {} })()"),
	)
	err := owner.Restore(owner.Save())
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) || evalErr.Engine != "js" {
		t.Fatalf("expected interrupted js evaluation, got %v", err)
	}
}

func TestLRUProgramCacheEvicts(t *testing.T) {
	cache := NewLRUProgramCache(2)
	cache.Set("a", 1)
	cache.Set("b", 2)
	cache.Get("a")
	cache.Set("c", 3)

	if _, ok := cache.Get("b"); ok {
		t.Fatalf("expected least recently used entry evicted")
	}
	if v, ok := cache.Get("a"); !ok || v != 1 {
		t.Fatalf("expected recently used entry kept, got %v %v", v, ok)
	}

	if NewLRUProgramCache(0) == nil {
		t.Fatalf("expected default sized cache")
	}
}

type ledger struct {
	Balance int    `json:"balance"`
	Owner   string `json:"owner"`
}

func TestRestoreGuardSeesStructFields(t *testing.T) {
	owner := NewOwner(ledger{Balance: -5, Owner: "ana"}, WithRestoreGuard(`balance >= 0 && owner == "ana"`))
	overdrawn := owner.Save()
	owner.Set(ledger{Balance: 10, Owner: "ana"})
	funded := owner.Save()
	owner.Set(ledger{Balance: 1, Owner: "ana"})

	if err := owner.Restore(overdrawn); !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	if err := owner.Restore(funded); err != nil {
		t.Fatalf("expected guard to pass, got %v", err)
	}
	if owner.State().Balance != 10 {
		t.Fatalf("expected balance 10, got %+v", owner.State())
	}
}
