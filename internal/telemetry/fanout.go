package telemetry

import (
	"context"
	"errors"
	"log/slog"
)

// fanout sends every record to all of its handlers.
type fanout struct {
	handlers []slog.Handler
	level    slog.Level
}

func (f fanout) Enabled(_ context.Context, level slog.Level) bool {
	return level >= f.level
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var err error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		err = errors.Join(err, h.Handle(ctx, r.Clone()))
	}
	return err
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return fanout{handlers: next, level: f.level}
}

func (f fanout) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithGroup(name)
	}
	return fanout{handlers: next, level: f.level}
}
