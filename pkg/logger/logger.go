package logger

import (
	"context"
	"os"
	"sync"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type ctxKey struct{}

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
)

func init() {
	var l *zap.Logger
	var err error
	if os.Getenv("DEBUG") == "true" {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err == nil {
		logger = l
	}
}

// L returns the process logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Set replaces the process logger; tests use it with zaptest or zap.NewNop.
func Set(l *zap.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}

// Sync flushes buffered entries.
func Sync() {
	_ = L().Sync()
}

// WithUserID returns a context carrying the authenticated user id for log fields.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// WithCtx returns the process logger annotated with request-scoped fields.
func WithCtx(ctx context.Context) *zap.Logger {
	fields := []zap.Field{}

	if id := middleware.GetReqID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if v, ok := ctx.Value(ctxKey{}).(string); ok && v != "" {
		fields = append(fields, zap.String("user_id", v))
	}

	return L().With(fields...)
}
