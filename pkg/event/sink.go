package event

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/dmitrymomot/flagkit/pkg/logger"
)

// Sink receives decision events.
type Sink interface {
	Process(ctx context.Context, imp Impression) error
}

// NoopSink drops every event.
type NoopSink struct{}

func (NoopSink) Process(context.Context, Impression) error { return nil }

// MemorySink keeps events in memory for inspection.
type MemorySink struct {
	mu     sync.Mutex
	events []Impression
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Process(_ context.Context, imp Impression) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, imp)
	return nil
}

// Events returns a copy of the received events in arrival order.
func (s *MemorySink) Events() []Impression {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events)
}

// Reset drops the received events.
func (s *MemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

// LogSink writes each event as a structured log record. The revision is
// expected to come from the logging scope of ctx.
type LogSink struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLogSink logs events to l at level.
func NewLogSink(l *slog.Logger, level slog.Level) *LogSink {
	if l == nil {
		l = slog.Default()
	}
	return &LogSink{logger: l.With(logger.Component("event")), level: level}
}

func (s *LogSink) Process(ctx context.Context, imp Impression) error {
	s.logger.LogAttrs(ctx, s.level, "decision event",
		slog.String("uuid", imp.UUID),
		logger.UserID(imp.UserID),
		logger.FlagKey(imp.FlagKey),
		logger.RuleKey(imp.RuleKey),
		slog.String("rule_type", string(imp.RuleType)),
		logger.VariationKey(imp.VariationKey),
		slog.Bool("enabled", imp.Enabled),
	)
	return nil
}
