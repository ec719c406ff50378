package history

import (
	"context"
	"log/slog"
)

// SlogObserver writes history events to a structured logger.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver returns an observer logging to logger, or to slog.Default
// when logger is nil.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogObserver{logger: logger}
}

// Observe implements Observer.
func (o *SlogObserver) Observe(event Event) {
	if o == nil || o.logger == nil {
		return
	}
	attrs := []slog.Attr{
		slog.String("history_id", event.HistoryID),
		slog.String("op", string(event.Op)),
		slog.String("outcome", string(event.Outcome)),
		slog.Int("depth", event.Depth),
	}
	if event.Meta.ID != "" {
		attrs = append(attrs,
			slog.String("snapshot_id", event.Meta.ID),
			slog.String("label", event.Meta.Label),
			slog.Time("created_at", event.Meta.CreatedAt),
		)
	}
	if event.Skipped > 0 {
		attrs = append(attrs, slog.Int("skipped", event.Skipped))
	}
	if event.Duration > 0 {
		attrs = append(attrs, slog.Duration("duration", event.Duration))
	}
	if event.Err != nil {
		attrs = append(attrs, slog.String("error", event.Err.Error()))
	}
	o.logger.LogAttrs(context.Background(), levelFor(event.Outcome), "history "+string(event.Op), attrs...)
}

func levelFor(outcome Outcome) slog.Level {
	switch outcome {
	case OutcomeFailed:
		return slog.LevelError
	case OutcomeSkipped:
		return slog.LevelWarn
	case OutcomeEvicted:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
