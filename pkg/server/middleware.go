package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/go-training/oauth-relay/pkg/core"
)

// corsMiddleware answers CORS for the configured plugin origin. The relay
// serves exactly one browser-side caller, so the allow-origin is that origin
// verbatim, never a wildcard. Every response carries the header except the
// root health check.
func corsMiddleware(origin string) gin.HandlerFunc {
	allowedHeaders := []string{"Authorization", "Content-Type"}
	allowedMethods := []string{"GET", "POST", "OPTIONS"}
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/" {
			c.Next()
			return
		}
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Vary", "Origin")
		c.Header("Access-Control-Allow-Methods", strings.Join(allowedMethods, ", "))
		c.Header("Access-Control-Allow-Headers", strings.Join(allowedHeaders, ", "))
		c.Header("Access-Control-Max-Age", "86400")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// requestIDMiddleware tags every request with a generated request ID, echoed
// back as X-Request-Id and carried in the context for log correlation.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := core.WithRequestID(c.Request.Context())
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-Id", core.RequestIDFromContext(ctx))
		c.Next()
	}
}

// recoveryHandler converts a panic into a 500 carrying the error's message.
// The CORS middleware runs earlier in the chain, so the header survives and
// the plugin can read the failure.
func recoveryHandler(c *gin.Context, recovered any) {
	logger := core.LoggerFromCtx(c.Request.Context())
	logger.Error("request handler panicked", "error", recovered)

	msg := "internal server error"
	if err, ok := recovered.(error); ok {
		msg = err.Error()
	} else if s, ok := recovered.(string); ok {
		msg = s
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msg})
}
