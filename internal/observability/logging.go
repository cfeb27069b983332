// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"sync/atomic"
)

var baseLogger atomic.Pointer[slog.Logger]

// SetLogger replaces the logger used by repository and service log helpers.
func SetLogger(l *slog.Logger) {
	if l != nil {
		baseLogger.Store(l)
	}
}

// L returns the current logger, defaulting to slog.Default.
func L() *slog.Logger {
	if l := baseLogger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// RepoLogger provides structured logging for repository operations.
type RepoLogger struct {
	tableName string
}

// NewRepoLogger creates a new RepoLogger for the given table.
func NewRepoLogger(tableName string) *RepoLogger {
	return &RepoLogger{tableName: tableName}
}

// LogWrite logs a successful repository mutation at debug level.
func (l *RepoLogger) LogWrite(ctx context.Context, operation string, attrs ...any) {
	attrs = append([]any{
		slog.String("table", l.tableName),
		slog.String("operation", operation),
	}, attrs...)
	L().DebugContext(ctx, "repository write", attrs...)
}

// LogError logs a repository error.
func (l *RepoLogger) LogError(ctx context.Context, err error, operation string) {
	L().ErrorContext(ctx, "repository error",
		slog.String("table", l.tableName),
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}
