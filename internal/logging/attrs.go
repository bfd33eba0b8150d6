package logging

import (
	"context"
	"log/slog"
	"time"
)

// Attr field keys shared across the codebase so downstream filtering and
// correlation stay consistent.
const (
	FieldComponent     = "component"
	FieldRunID         = "run_id"
	FieldTaskID        = "task_id"
	FieldTryNumber     = "try_number"
	FieldCorrelationID = "correlation_id"
	FieldError         = "error"
)

// Attr aliases slog.Attr so call sites do not need a second slog import.
type Attr = slog.Attr

func String(key, value string) Attr           { return slog.String(key, value) }
func Int(key string, value int) Attr          { return slog.Int(key, value) }
func Int64(key string, value int64) Attr      { return slog.Int64(key, value) }
func Uint64(key string, value uint64) Attr    { return slog.Uint64(key, value) }
func Bool(key string, value bool) Attr        { return slog.Bool(key, value) }
func Float64(key string, value float64) Attr  { return slog.Float64(key, value) }
func Duration(key string, d time.Duration) Attr { return slog.Duration(key, d) }
func Any(key string, value any) Attr          { return slog.Any(key, value) }
func Group(key string, args ...any) Attr      { return slog.Group(key, args...) }

// Error renders an error under the shared error key; nil errors become "".
func Error(err error) Attr {
	if err == nil {
		return slog.String(FieldError, "")
	}
	return slog.String(FieldError, err.Error())
}

// Args flattens attrs into the ...any form expected by slog convenience
// methods such as Logger.With.
func Args(attrs ...Attr) []any {
	out := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, attr)
	}
	return out
}

// NewComponentLogger tags every record from the returned logger with the
// component name used by the console handler prefix.
func NewComponentLogger(base *slog.Logger, component string) *slog.Logger {
	if base == nil {
		return NewNop()
	}
	return base.With(String(FieldComponent, component))
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NoopHandler drops all records.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }
func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler        { return NoopHandler{} }
func (NoopHandler) WithGroup(string) slog.Handler             { return NoopHandler{} }

// TeeHandler fans records out to every child handler. A record is emitted
// to each child that reports itself enabled for the record level; errors
// from individual children do not stop delivery to the rest.
func TeeHandler(handlers ...slog.Handler) slog.Handler {
	children := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			children = append(children, h)
		}
	}
	if len(children) == 0 {
		return NoopHandler{}
	}
	if len(children) == 1 {
		return children[0]
	}
	return teeHandler{children: children}
}

type teeHandler struct {
	children []slog.Handler
}

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, child := range t.children {
		if child.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, child := range t.children {
		if !child.Enabled(ctx, record.Level) {
			continue
		}
		if err := child.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	children := make([]slog.Handler, len(t.children))
	for i, child := range t.children {
		children[i] = child.WithAttrs(attrs)
	}
	return teeHandler{children: children}
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	children := make([]slog.Handler, len(t.children))
	for i, child := range t.children {
		children[i] = child.WithGroup(name)
	}
	return teeHandler{children: children}
}
