package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"project-tracker/internal/logging"
	"project-tracker/internal/respond"

	"github.com/gin-gonic/gin"
)

// RecoveryWithLog turns a panic into a 500 response. The stack goes to the
// log only.
func RecoveryWithLog(base *slog.Logger) gin.HandlerFunc {
	if base == nil {
		base = slog.Default()
	}
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			log := logging.FromContextOr(c.Request.Context(), base)
			log.Error("panic recovered", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			respond.Internal(c)
		}()
		c.Next()
	}
}
