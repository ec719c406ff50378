package activity

import (
	"context"
	"strings"
)

// DefaultChannel is applied to events emitted without a channel.
const DefaultChannel = "memento"

// Config controls an Emitter.
type Config struct {
	Enabled bool
	// Channel stamped on events that carry none. Defaults to DefaultChannel.
	Channel string
	// Verbs, when set, is the only set of verbs emitted.
	Verbs []string
}

// Emitter applies defaults and filtering before handing events to hooks.
type Emitter struct {
	hooks   Hooks
	channel string
	verbs   map[string]struct{}
}

// NewEmitter builds an emitter. It is disabled when cfg.Enabled is false or
// no non-nil hook is given.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	e := &Emitter{channel: strings.TrimSpace(cfg.Channel)}
	if e.channel == "" {
		e.channel = DefaultChannel
	}
	if cfg.Enabled {
		e.hooks = hooks.compact()
	}
	if len(cfg.Verbs) > 0 {
		e.verbs = make(map[string]struct{}, len(cfg.Verbs))
		for _, verb := range cfg.Verbs {
			e.verbs[strings.TrimSpace(verb)] = struct{}{}
		}
	}
	return e
}

// Enabled reports whether Emit reaches any hook.
func (e *Emitter) Enabled() bool {
	return e != nil && len(e.hooks) > 0
}

// Emit forwards event to the hooks unless its verb is filtered out.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if e.verbs != nil {
		if _, ok := e.verbs[strings.TrimSpace(event.Verb)]; !ok {
			return nil
		}
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	return e.hooks.Notify(ctx, event)
}
