package logger

import "context"

type noopLogger struct{}

// NewNoopLogger returns a logger that discards every entry. Tests and library callers
// that do not configure logging get this one.
func NewNoopLogger() Logger {
	return noopLogger{}
}

func (noopLogger) Debug(context.Context, string, ...Fields)        {}
func (noopLogger) Info(context.Context, string, ...Fields)         {}
func (noopLogger) Warn(context.Context, string, ...Fields)         {}
func (noopLogger) Error(context.Context, string, error, ...Fields) {}
func (noopLogger) Fatal(context.Context, string, error, ...Fields) {}

func (l noopLogger) WithFields(Fields) Logger { return l }

func (l noopLogger) ForContext(ctx context.Context) Logger {
	if ctxLogger, ok := ctx.Value(contextKey{}).(Logger); ok {
		return ctxLogger
	}
	return l
}

type contextKey struct{}

// NewContext stores a request-scoped logger in ctx
func NewContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the logger stored in ctx, or fallback
func FromContext(ctx context.Context, fallback Logger) Logger {
	if ctxLogger, ok := ctx.Value(contextKey{}).(Logger); ok {
		return ctxLogger
	}
	return fallback
}
