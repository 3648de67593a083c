// Package logger configures structured logging on top of log/slog.
//
// Every record is automatically enriched with the correlation fields
// from the context.Context (correlation_id, request_id, user_id,
// reference_id, trace_id/span_id), so use cases log with a plain
// slog.InfoContext(ctx, ...) and never thread fields by hand.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type ctxKey string

const (
	keyCorrelationID ctxKey = "correlation_id"
	keyRequestID     ctxKey = "request_id"
	keyUserID        ctxKey = "user_id"
	keyReferenceID   ctxKey = "reference_id"
	keyTraceID       ctxKey = "trace_id"
	keySpanID        ctxKey = "span_id"
)

// contextFields are the fields ContextHandler copies from the
// context onto every record. The order is fixed for stable output.
var contextFields = []ctxKey{
	keyCorrelationID,
	keyRequestID,
	keyUserID,
	keyReferenceID,
	keyTraceID,
	keySpanID,
}

// Config sets the level, format, and output destination.
type Config struct {
	Level     string // debug, info, warn, error
	Format    string // json (default), text
	Output    io.Writer
	AddSource bool
}

// New builds the slog.Logger: a JSON or text handler wrapped in a
// ContextHandler.
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = &Config{}
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(out, opts)
	} else {
		h = slog.NewJSONHandler(out, opts)
	}

	return slog.New(&ContextHandler{next: h})
}

// Setup installs the process-wide logger.
func Setup(cfg *Config) {
	slog.SetDefault(New(cfg))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ContextHandler adds the correlation fields from the
// context.Context to every record before handing it to the inner
// handler.
type ContextHandler struct {
	next slog.Handler
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, k := range contextFields {
		if v, ok := ctx.Value(k).(string); ok && v != "" {
			r.AddAttrs(slog.String(string(k), v))
		}
	}
	return h.next.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name)}
}

// Context helpers. The setters are used by middleware and workers,
// the getters mostly by tests.

func WithCorrelationID(ctx context.Context, id string) context.Context {
	return withField(ctx, keyCorrelationID, id)
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return withField(ctx, keyRequestID, id)
}

func WithUserID(ctx context.Context, id string) context.Context {
	return withField(ctx, keyUserID, id)
}

// WithReferenceID attaches the transfer's reference_id to every
// record inside the transfer engine's transactional body.
func WithReferenceID(ctx context.Context, id string) context.Context {
	return withField(ctx, keyReferenceID, id)
}

func WithTraceID(ctx context.Context, id string) context.Context {
	return withField(ctx, keyTraceID, id)
}

func WithSpanID(ctx context.Context, id string) context.Context {
	return withField(ctx, keySpanID, id)
}

func CorrelationIDFrom(ctx context.Context) string { return fieldFrom(ctx, keyCorrelationID) }
func RequestIDFrom(ctx context.Context) string     { return fieldFrom(ctx, keyRequestID) }
func UserIDFrom(ctx context.Context) string        { return fieldFrom(ctx, keyUserID) }
func ReferenceIDFrom(ctx context.Context) string   { return fieldFrom(ctx, keyReferenceID) }

func withField(ctx context.Context, k ctxKey, v string) context.Context {
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, k, v)
}

func fieldFrom(ctx context.Context, k ctxKey) string {
	v, _ := ctx.Value(k).(string)
	return v
}
