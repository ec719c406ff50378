package history

import "time"

// Option configures a History.
type Option func(*config)

type config struct {
	capacity  int
	observers Observers
	now       func() time.Time
	newID     func() string
}

func applyOptions(opts []Option) config {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	return cfg
}

// WithCapacity bounds the number of stacked snapshots. Once exceeded, the
// oldest snapshot is evicted, so the stack is no longer append-only below
// its top. Zero or negative means unbounded.
func WithCapacity(capacity int) Option {
	return func(cfg *config) {
		cfg.capacity = capacity
	}
}

// WithObserver registers an observer notified of every backup and undo
// outcome. Nil observers are ignored.
func WithObserver(observer Observer) Option {
	return func(cfg *config) {
		if observer == nil {
			return
		}
		cfg.observers = append(cfg.observers, observer)
	}
}

// WithClock replaces the clock used to time operations and stamp events.
func WithClock(now func() time.Time) Option {
	return func(cfg *config) {
		cfg.now = now
	}
}

// WithID sets the history identifier reported in events.
func WithID(id string) Option {
	return func(cfg *config) {
		cfg.newID = func() string { return id }
	}
}
