package memento

import (
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Option configures an Owner.
type Option func(*ownerConfig)

type ownerConfig struct {
	now          func() time.Time
	newID        func() string
	labelLength  int
	guard        string
	evaluator    Evaluator
	programCache ProgramCache
	functions    *FunctionRegistry
	logger       GuardLogger
	optionErr    error
}

func applyOptions(opts []Option) ownerConfig {
	cfg := ownerConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	if cfg.newID == nil {
		cfg.newID = newSnapshotID
	}
	if cfg.labelLength <= 0 {
		cfg.labelLength = DefaultLabelLength
	}
	if cfg.logger == nil {
		cfg.logger = noopGuardLogger{}
	}
	return cfg
}

// WithClock replaces the clock used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(cfg *ownerConfig) {
		cfg.now = now
	}
}

// WithIDGenerator replaces the snapshot identifier generator.
func WithIDGenerator(generate func() string) Option {
	return func(cfg *ownerConfig) {
		cfg.newID = generate
	}
}

// WithLabelLength sets how many runes of the payload a label keeps.
func WithLabelLength(length int) Option {
	return func(cfg *ownerConfig) {
		cfg.labelLength = length
	}
}

// WithRestoreGuard configures an expression every candidate state must
// satisfy before Restore adopts it. A false result, or a result that is not a
// boolean, fails the restore with RestoreRejected.
func WithRestoreGuard(expression string) Option {
	return func(cfg *ownerConfig) {
		cfg.guard = expression
	}
}

// WithGuardEvaluator selects the engine restore guards run on. The expr
// engine is used when none is configured or e is nil. Without the js_eval
// build tag NewJSEvaluator returns an evaluator that fails every guard with
// ErrJSUnavailable.
func WithGuardEvaluator(e Evaluator) Option {
	return func(cfg *ownerConfig) {
		cfg.evaluator = e
	}
}

// newSnapshotID returns a time-sortable UUIDv7, falling back to a random
// UUID if the v7 generator fails.
func newSnapshotID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func validateValue[T any](value T) error {
	if v, ok := any(value).(interface{ Validate() error }); ok {
		return v.Validate()
	}
	if rv := reflect.ValueOf(&value).Elem(); rv.Kind() != reflect.Pointer {
		if v, ok := rv.Addr().Interface().(interface{ Validate() error }); ok {
			return v.Validate()
		}
	}
	return nil
}
