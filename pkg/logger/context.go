package logger

import (
	"context"
	"log/slog"
	"slices"
)

// ContextExtractor extracts a slog attribute from context.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

type scopeKey struct{}

// WithScope returns a context whose log records carry attrs in addition to
// any attributes already scoped on ctx. Only loggers built by New read it.
func WithScope(ctx context.Context, attrs ...slog.Attr) context.Context {
	if len(attrs) == 0 {
		return ctx
	}
	scoped := append(slices.Clone(ScopeAttrs(ctx)), attrs...)
	return context.WithValue(ctx, scopeKey{}, scoped)
}

// ScopeAttrs returns the attributes scoped on ctx by WithScope.
func ScopeAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	attrs, _ := ctx.Value(scopeKey{}).([]slog.Attr)
	return attrs
}

// scopeHandler adds scoped and extracted context attributes to every record
// that passes the level check of next.
type scopeHandler struct {
	next       slog.Handler
	extractors []ContextExtractor
}

func newScopeHandler(next slog.Handler, extractors ...ContextExtractor) slog.Handler {
	h := &scopeHandler{next: next}
	for _, ex := range extractors {
		if ex != nil {
			h.extractors = append(h.extractors, ex)
		}
	}
	return h
}

func (h *scopeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *scopeHandler) Handle(ctx context.Context, rec slog.Record) error {
	rec.AddAttrs(ScopeAttrs(ctx)...)
	for _, ex := range h.extractors {
		if attr, ok := ex(ctx); ok {
			rec.AddAttrs(attr)
		}
	}
	return h.next.Handle(ctx, rec)
}

func (h *scopeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &scopeHandler{next: h.next.WithAttrs(attrs), extractors: h.extractors}
}

func (h *scopeHandler) WithGroup(name string) slog.Handler {
	return &scopeHandler{next: h.next.WithGroup(name), extractors: h.extractors}
}
