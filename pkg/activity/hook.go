package activity

import (
	"context"
	"errors"
)

// Hook receives normalized activity events.
type Hook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to Hook.
type HookFunc func(ctx context.Context, event Event) error

// Notify implements Hook.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans events out to zero or more hooks.
type Hooks []Hook

// Notify normalizes event once and hands it to every hook, joining their
// errors. Unroutable events are dropped without error.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}
	event = event.Normalize()
	if !event.Routable() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h Hooks) compact() Hooks {
	var out Hooks
	for _, hook := range h {
		if hook != nil {
			out = append(out, hook)
		}
	}
	return out
}
