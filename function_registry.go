package memento

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

var (
	// ErrFunctionNotFound reports a guard calling a name nobody registered.
	ErrFunctionNotFound = errors.New("memento: guard function not registered")
	// ErrFunctionExists reports a second registration under the same name.
	ErrFunctionExists = errors.New("memento: guard function already registered")
	// ErrInvalidFunction reports a registration with an empty name or a nil
	// function.
	ErrInvalidFunction = errors.New("memento: invalid guard function")
)

// Function is a helper callable from restore guard expressions.
type Function func(args ...any) (any, error)

// FunctionError wraps a failure returned by a guard function.
type FunctionError struct {
	Name string
	Err  error
}

func (e *FunctionError) Error() string {
	return fmt.Sprintf("memento: guard function %s: %v", e.Name, e.Err)
}

func (e *FunctionError) Unwrap() error {
	return e.Err
}

// FunctionRegistry holds guard helpers. Names are matched case-insensitively
// and reported in lower case.
type FunctionRegistry struct {
	mu    sync.RWMutex
	funcs map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{funcs: map[string]Function{}}
}

// Register adds fn under name. Registering a name twice fails with
// ErrFunctionExists; use Replace to overwrite.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	return r.put(name, fn, false)
}

// Replace adds fn under name, overwriting any previous registration.
func (r *FunctionRegistry) Replace(name string, fn Function) error {
	return r.put(name, fn, true)
}

func (r *FunctionRegistry) put(name string, fn Function, overwrite bool) error {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidFunction)
	}
	if fn == nil {
		return fmt.Errorf("%w: %s is nil", ErrInvalidFunction, key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.funcs == nil {
		r.funcs = map[string]Function{}
	}
	if _, exists := r.funcs[key]; exists && !overwrite {
		return fmt.Errorf("%w: %s", ErrFunctionExists, key)
	}
	r.funcs[key] = fn
	return nil
}

// Clone returns an independent registry holding the same functions.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &FunctionRegistry{funcs: maps.Clone(r.funcs)}
}

// Call runs the function registered under name. Failures of the function
// itself come back as *FunctionError.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	var fn Function
	if r != nil {
		r.mu.RLock()
		fn = r.funcs[key]
		r.mu.RUnlock()
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: %s", ErrFunctionNotFound, key)
	}
	out, err := fn(args...)
	if err != nil {
		return nil, &FunctionError{Name: key, Err: err}
	}
	return out, nil
}

// Names returns the registered names in sorted order.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.funcs))
}

// WithFunctionRegistry makes the functions in registry callable from restore
// guards. The registry is cloned so later registrations do not leak in.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *ownerConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction makes fn callable from restore guards as name. A later
// option using the same name wins. An empty name or nil fn makes every
// guarded Restore fail with ErrInvalidFunction.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *ownerConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		if err := cfg.functions.Replace(name, fn); err != nil {
			cfg.optionErr = errors.Join(cfg.optionErr, err)
		}
	}
}
