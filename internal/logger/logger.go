// Package logger provides structured logging functionality.
// It wraps the standard log/slog package for consistent logging across the runtime.
//
// Query helpers attach a consistent set of snake_case fields (query_id,
// query_name, kind) so a single filter invocation can be followed through
// the logs.
//
// The package supports two output formats:
//   - JSON (default): Machine-readable structured logging
//   - Human: Human-readable console output with colors and prefixes
//
// Logs are written to stderr so that stdout carries only filter results.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// Logger is the default logger instance.
var Logger *slog.Logger

var (
	outputMu sync.Mutex
	output   io.Writer = os.Stderr
)

func init() {
	Logger = newLogger(output, slog.LevelInfo, FormatJSON)
}

// OutputFormat represents the log output format
type OutputFormat int

const (
	// FormatJSON is the default machine-readable JSON format
	FormatJSON OutputFormat = iota
	// FormatHuman is a human-readable console format with colors and prefixes
	FormatHuman
)

// ParseFormat parses a format name ("json" or "human").
func ParseFormat(name string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return FormatJSON, nil
	case "human", "text":
		return FormatHuman, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format %q (expected json or human)", name)
	}
}

// SetOutput redirects log output. Subsequent SetLevelAndFormat calls keep
// writing to w.
func SetOutput(w io.Writer, level slog.Level, format OutputFormat) {
	outputMu.Lock()
	output = w
	outputMu.Unlock()
	Logger = newLogger(w, level, format)
}

// SetLevelAndFormat sets both the log level and format.
func SetLevelAndFormat(level slog.Level, format OutputFormat) {
	outputMu.Lock()
	w := output
	outputMu.Unlock()
	Logger = newLogger(w, level, format)
}

func newLogger(w io.Writer, level slog.Level, format OutputFormat) *slog.Logger {
	if format == FormatHuman {
		return slog.New(NewHumanHandler(w, &HumanHandlerOptions{
			Level:     level,
			UseColors: isTerminal(w),
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

// =============================================================================
// Query Context Helpers
// =============================================================================

// QueryContext identifies one filter invocation in the logs.
type QueryContext struct {
	// QueryID is the unique identifier of this invocation (required)
	QueryID string
	// QueryName is the human-readable name from the query file or command
	QueryName string
	// Kind is the record kind being filtered (users, orders, products)
	Kind string
	// Criteria lists the active criterion names in evaluation order
	Criteria []string
}

// ErrorContext contains structured context for error logging.
type ErrorContext struct {
	QueryID   string
	QueryName string
	Kind      string

	// Error details
	ErrorCode    string
	ErrorMessage string
	Err          error

	// Criterion that was rejected, if any
	Criterion string
	Value     string
}

// LogQueryStart logs the start of a filter invocation.
func LogQueryStart(ctx QueryContext, recordsTotal int) {
	attrs := buildContextAttrs(ctx)
	attrs = append(attrs, slog.Int("records_total", recordsTotal))
	Logger.Info("query started", attrs...)
}

// LogQueryEnd logs the completion of a filter invocation.
func LogQueryEnd(ctx QueryContext, recordsTotal, recordsMatched int, duration time.Duration) {
	attrs := buildContextAttrs(ctx)
	attrs = append(attrs,
		slog.Int("records_total", recordsTotal),
		slog.Int("records_matched", recordsMatched),
		slog.Duration("duration", duration),
	)
	Logger.Info("query completed", attrs...)
}

// LogError logs an error with full query context.
func LogError(message string, errCtx ErrorContext) {
	attrs := make([]any, 0, 12)

	if errCtx.QueryID != "" {
		attrs = append(attrs, slog.String("query_id", errCtx.QueryID))
	}
	if errCtx.QueryName != "" {
		attrs = append(attrs, slog.String("query_name", errCtx.QueryName))
	}
	if errCtx.Kind != "" {
		attrs = append(attrs, slog.String("kind", errCtx.Kind))
	}
	if errCtx.ErrorCode != "" {
		attrs = append(attrs, slog.String("error_code", errCtx.ErrorCode))
	}
	if errCtx.ErrorMessage != "" {
		attrs = append(attrs, slog.String("error", errCtx.ErrorMessage))
	}
	if errCtx.Criterion != "" {
		attrs = append(attrs, slog.String("criterion", errCtx.Criterion))
	}
	if errCtx.Value != "" {
		attrs = append(attrs, slog.String("value", errCtx.Value))
	}
	if errCtx.Err != nil {
		attrs = append(attrs, slog.String("error_type", fmt.Sprintf("%T", errCtx.Err)))
		if chain := errorChain(errCtx.Err); len(chain) > 1 {
			attrs = append(attrs, slog.String("error_chain", strings.Join(chain, " -> ")))
		}
	}

	Logger.Error(message, attrs...)
}

// errorChain returns the messages of err and every error it wraps.
func errorChain(err error) []string {
	chain := []string{err.Error()}
	for {
		err = errors.Unwrap(err)
		if err == nil {
			return chain
		}
		chain = append(chain, err.Error())
	}
}

// buildContextAttrs builds slog attributes from a QueryContext.
// Only non-empty fields are included.
func buildContextAttrs(ctx QueryContext) []any {
	attrs := make([]any, 0, 4)
	attrs = append(attrs, slog.String("query_id", ctx.QueryID))
	if ctx.QueryName != "" {
		attrs = append(attrs, slog.String("query_name", ctx.QueryName))
	}
	if ctx.Kind != "" {
		attrs = append(attrs, slog.String("kind", ctx.Kind))
	}
	if len(ctx.Criteria) > 0 {
		attrs = append(attrs, slog.String("criteria", strings.Join(ctx.Criteria, ",")))
	}
	return attrs
}

// =============================================================================
// Human-Readable Log Format Support
// =============================================================================

// isTerminal returns true if the writer is a terminal (supports colors)
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// HumanHandlerOptions configures the human-readable log handler.
type HumanHandlerOptions struct {
	// Level is the minimum log level to output
	Level slog.Level
	// UseColors enables ANSI color codes
	UseColors bool
}

// HumanHandler is a slog handler that outputs human-readable log messages.
type HumanHandler struct {
	opts   HumanHandlerOptions
	mu     *sync.Mutex
	writer io.Writer
	attrs  []slog.Attr
	groups []string
}

// NewHumanHandler creates a new human-readable log handler.
func NewHumanHandler(w io.Writer, opts *HumanHandlerOptions) *HumanHandler {
	if opts == nil {
		opts = &HumanHandlerOptions{Level: slog.LevelInfo}
	}
	return &HumanHandler{
		opts:   *opts,
		mu:     &sync.Mutex{},
		writer: w,
	}
}

// Enabled returns true if the handler is enabled for the given level.
func (h *HumanHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level
}

// maxInlineAttrs bounds the attributes printed on one line.
const maxInlineAttrs = 6

// Handle outputs a log record in human-readable format.
func (h *HumanHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder

	sb.WriteString(r.Time.Format("15:04:05"))
	sb.WriteString(" ")
	sb.WriteString(h.levelPrefix(r.Level, r.Message))
	sb.WriteString(" ")
	sb.WriteString(r.Message)

	prefix := strings.Join(h.groups, ".")
	var keyAttrs []string
	for _, a := range h.attrs {
		keyAttrs = append(keyAttrs, formatAttr("", a))
	}
	r.Attrs(func(a slog.Attr) bool {
		keyAttrs = append(keyAttrs, formatAttr(prefix, a))
		return true
	})

	if len(keyAttrs) > 0 {
		shown := keyAttrs
		if len(shown) > maxInlineAttrs {
			shown = shown[:maxInlineAttrs]
		}
		sb.WriteString(" ")
		sb.WriteString(strings.Join(shown, " "))
		if extra := len(keyAttrs) - len(shown); extra > 0 {
			sb.WriteString(fmt.Sprintf(" (+%d more)", extra))
		}
	}
	sb.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, sb.String())
	return err
}

// WithAttrs returns a new handler with the given attributes added.
func (h *HumanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefix := strings.Join(h.groups, ".")
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	for _, a := range attrs {
		if prefix != "" {
			a.Key = prefix + "." + a.Key
		}
		merged = append(merged, a)
	}
	return &HumanHandler{opts: h.opts, mu: h.mu, writer: h.writer, attrs: merged, groups: h.groups}
}

// WithGroup returns a new handler with the given group name.
func (h *HumanHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	groups := append(append([]string{}, h.groups...), name)
	return &HumanHandler{opts: h.opts, mu: h.mu, writer: h.writer, attrs: h.attrs, groups: groups}
}

// levelPrefix returns a glyph for the log level, using ✓ for completion messages.
func (h *HumanHandler) levelPrefix(level slog.Level, message string) string {
	const (
		colorReset  = "\033[0m"
		colorRed    = "\033[31m"
		colorYellow = "\033[33m"
		colorGreen  = "\033[32m"
		colorCyan   = "\033[36m"
	)

	var prefix, color string
	switch {
	case level >= slog.LevelError:
		prefix, color = "✗", colorRed
	case level >= slog.LevelWarn:
		prefix, color = "⚠", colorYellow
	case level >= slog.LevelInfo:
		if strings.Contains(strings.ToLower(message), "completed") {
			prefix, color = "✓", colorGreen
		} else {
			prefix, color = "ℹ", colorCyan
		}
	default:
		prefix, color = "·", colorReset
	}

	if h.opts.UseColors {
		return color + prefix + colorReset
	}
	return prefix
}

// formatAttr formats a single attribute for display.
func formatAttr(prefix string, a slog.Attr) string {
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}

	switch v := a.Value.Resolve().Any().(type) {
	case time.Duration:
		return fmt.Sprintf("%s=%s", key, formatDuration(v))
	case float64:
		return fmt.Sprintf("%s=%.2f", key, v)
	default:
		return fmt.Sprintf("%s=%v", key, v)
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	default:
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
}
