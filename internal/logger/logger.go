package logger

import (
	"context"
	"io"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
)

type runIDKey struct{}

type implLogger struct {
	logger *log.Logger
	level  string
}

// New creates a new Logger instance writing to stdout
func New(level string) Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter creates a Logger writing to w
func NewWithWriter(level string, w io.Writer) Logger {
	return &implLogger{
		logger: log.New(w, "", log.LstdFlags),
		level:  strings.ToLower(level),
	}
}

// WithRunID returns a context tagged with a fresh run ID.
// Parallel video runs log under different IDs.
func WithRunID(ctx context.Context) context.Context {
	return context.WithValue(ctx, runIDKey{}, uuid.NewString()[:8])
}

// RunID returns the run ID stored in ctx, or ""
func RunID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

var levelRank = map[string]int{
	"debug": 0,
	"info":  1,
	"warn":  2,
	"error": 3,
}

// shouldLog compares against the configured level; unknown levels log at info
func (l *implLogger) shouldLog(level string) bool {
	floor, ok := levelRank[l.level]
	if !ok {
		floor = levelRank["info"]
	}
	rank, ok := levelRank[level]
	return !ok || rank >= floor
}

func (l *implLogger) print(ctx context.Context, tag, msg string, args ...interface{}) {
	prefix := "[" + tag + "] "
	if id := RunID(ctx); id != "" {
		prefix += "[" + id + "] "
	}
	l.logger.Printf(prefix+msg, args...)
}

func (l *implLogger) Debug(ctx context.Context, msg string, args ...interface{}) {
	if l.shouldLog("debug") {
		l.print(ctx, "DEBUG", msg, args...)
	}
}

func (l *implLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.shouldLog("info") {
		l.print(ctx, "INFO", msg, args...)
	}
}

func (l *implLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.shouldLog("warn") {
		l.print(ctx, "WARN", msg, args...)
	}
}

func (l *implLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.shouldLog("error") {
		l.print(ctx, "ERROR", msg, args...)
	}
}

// Nop returns a Logger that discards everything
func Nop() Logger {
	return NewWithWriter("error", io.Discard)
}
