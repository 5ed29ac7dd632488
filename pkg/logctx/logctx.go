package logctx

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ctxKey string

// Keys shared by the HTTP middlewares and the services. Gin stores the same
// values under the plain string form of each key.
const (
	KeyLogger     ctxKey = "logger"
	KeyTraceID    ctxKey = "traceID"
	KeyEmployeeID ctxKey = "employee_id"
)

func WithLogger(ctx context.Context, l *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, KeyLogger, l)
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, KeyTraceID, traceID)
}

func WithEmployeeID(ctx context.Context, employeeID string) context.Context {
	return context.WithValue(ctx, KeyEmployeeID, employeeID)
}

// TraceID returns the request trace id or "".
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(KeyTraceID).(string)
	return v
}

// EmployeeID returns the authenticated employee id or "".
func EmployeeID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(KeyEmployeeID).(string)
	return v
}

// FromGin returns a request-scoped logger from gin.Context if present,
// otherwise returns the provided base logger.
func FromGin(c *gin.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if c == nil {
		return base
	}
	if l, ok := c.Get(string(KeyLogger)); ok {
		if lg, ok := l.(*zap.SugaredLogger); ok && lg != nil {
			return lg
		}
	}
	// fall back to ctx-based enrichment
	return FromCtx(c.Request.Context(), base)
}

// FromCtx returns a logger from context if set, otherwise attempts to enrich
// base with trace_id/employee_id from context values.
func FromCtx(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if ctx == nil {
		return base
	}
	if lg, ok := ctx.Value(KeyLogger).(*zap.SugaredLogger); ok && lg != nil {
		return lg
	}
	var fields []interface{}
	if tid := TraceID(ctx); tid != "" {
		fields = append(fields, "trace_id", tid)
	}
	if eid := EmployeeID(ctx); eid != "" {
		fields = append(fields, "employee_id", eid)
	}
	if len(fields) > 0 {
		return base.With(fields...)
	}
	return base
}
