package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/fatflowers/fuelpos/pkg/logctx"
	"github.com/fatflowers/fuelpos/pkg/tool"
)

const maxTraceIDLen = 128

// TraceMiddleware reuses a caller-supplied X-Request-ID, so a till's retries
// share one trace, and otherwise mints a time-ordered UUID.
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader("X-Request-ID")
		if !validTraceID(traceID) {
			traceID = tool.GenerateUUIDV7()
		}
		c.Set(string(logctx.KeyTraceID), traceID)
		c.Request = c.Request.WithContext(logctx.WithTraceID(c.Request.Context(), traceID))
		c.Next()
	}
}

// validTraceID accepts non-empty printable ASCII up to maxTraceIDLen, which
// keeps log lines and the echoed header clean.
func validTraceID(s string) bool {
	if s == "" || len(s) > maxTraceIDLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 0x21 || s[i] > 0x7e {
			return false
		}
	}
	return true
}
