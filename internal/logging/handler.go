package logging

import (
	"context"
	"errors"
	"log/slog"
	"slices"
)

// ContextProvider returns attributes stamped on every record, such as the open journal
// session and the number of tanks being managed.
type ContextProvider func() []slog.Attr

// Fanout hands every record to each handler that accepts its level.
// A failing handler does not keep the record from the others.
type Fanout []slog.Handler

// NewFanout drops nil handlers.
func NewFanout(handlers ...slog.Handler) Fanout {
	return slices.DeleteFunc(slices.Clone(handlers), func(h slog.Handler) bool { return h == nil })
}

func (f Fanout) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.ContainsFunc(f, func(h slog.Handler) bool { return h.Enabled(ctx, level) })
}

func (f Fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(Fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f Fanout) WithGroup(name string) slog.Handler {
	if name == "" {
		return f
	}
	out := make(Fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// withContext adds the provider's attributes at handling time, so they follow the
// session as it changes.
type withContext struct {
	slog.Handler
	provider ContextProvider
}

func (h withContext) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(h.provider()...)
	return h.Handler.Handle(ctx, r)
}

func (h withContext) WithAttrs(attrs []slog.Attr) slog.Handler {
	return withContext{Handler: h.Handler.WithAttrs(attrs), provider: h.provider}
}

func (h withContext) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return withContext{Handler: h.Handler.WithGroup(name), provider: h.provider}
}
