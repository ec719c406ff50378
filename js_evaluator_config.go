package memento

import "time"

// DefaultJSTimeout bounds a single JS guard run.
const DefaultJSTimeout = 250 * time.Millisecond

type jsEvaluatorConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
	timeout  time.Duration
}

// JSEvaluatorOption configures the JS evaluator.
type JSEvaluatorOption func(*jsEvaluatorConfig)

// JSWithProgramCache stores compiled scripts in cache.
func JSWithProgramCache(cache ProgramCache) JSEvaluatorOption {
	return func(cfg *jsEvaluatorConfig) {
		cfg.cache = cache
	}
}

// JSWithFunctionRegistry exposes the registry's functions as JS globals.
func JSWithFunctionRegistry(registry *FunctionRegistry) JSEvaluatorOption {
	return func(cfg *jsEvaluatorConfig) {
		cfg.registry = registry.Clone()
	}
}

// JSWithTimeout interrupts guard scripts running longer than d. Zero or
// negative disables the limit.
func JSWithTimeout(d time.Duration) JSEvaluatorOption {
	return func(cfg *jsEvaluatorConfig) {
		cfg.timeout = d
	}
}

func applyJSEvaluatorOptions(opts []JSEvaluatorOption) jsEvaluatorConfig {
	cfg := jsEvaluatorConfig{timeout: DefaultJSTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
