package memento

import "time"

// GuardLogEvent describes one restore guard evaluation.
type GuardLogEvent struct {
	Engine     string
	Expr       string
	SnapshotID string
	Passed     bool
	Duration   time.Duration
	Err        error
}

// GuardLogger records restore guard evaluations.
type GuardLogger interface {
	LogGuard(GuardLogEvent)
}

// GuardLoggerFunc adapts a function to GuardLogger.
type GuardLoggerFunc func(GuardLogEvent)

// LogGuard implements GuardLogger.
func (f GuardLoggerFunc) LogGuard(event GuardLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopGuardLogger struct{}

func (noopGuardLogger) LogGuard(GuardLogEvent) {}

// WithGuardLogger attaches a logger that receives every guard evaluation.
func WithGuardLogger(logger GuardLogger) Option {
	return func(cfg *ownerConfig) {
		if logger == nil {
			cfg.logger = noopGuardLogger{}
			return
		}
		cfg.logger = logger
	}
}
