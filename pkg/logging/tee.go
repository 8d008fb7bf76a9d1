package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

// Tee returns a logger that writes to base and, in text form, to w.
// Records below level are not written to w.
func Tee(base *slog.Logger, w io.Writer, level Level) *slog.Logger {
	base = OrNop(base)
	if w == nil {
		return base
	}
	file := newHandler(Config{Level: level, Format: FormatText, Output: w})
	return slog.New(fanout{base.Handler(), file})
}

// fanout delivers each record to every enabled handler.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
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

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
