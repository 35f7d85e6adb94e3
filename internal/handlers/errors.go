package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"project-tracker/internal/logging"
	"project-tracker/internal/respond"
	"project-tracker/internal/services"

	"github.com/gin-gonic/gin"
)

// respondError translates a service error into its HTTP response.
// Unexpected errors are logged in full and answered without detail.
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case services.IsNotFound(err):
		respond.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrUnauthenticated):
		respond.Unauthenticated(c)
	case errors.Is(err, services.ErrForbidden):
		respond.Error(c, http.StatusForbidden, "Access denied")
	case errors.Is(err, services.ErrInvalidCredentials):
		respond.Error(c, http.StatusUnauthorized, "Invalid email or password")
	case errors.As(err, &verr):
		respond.ValidationError(c, map[string]string{verr.Field: verr.Message})
	case services.IsConflict(err):
		respond.Error(c, http.StatusConflict, err.Error())
	default:
		logging.FromContext(c.Request.Context()).Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		respond.Internal(c)
	}
}

// pathID parses a numeric path parameter, answering 400 when it is not one.
func pathID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "Invalid "+name+": "+raw)
		return 0, false
	}
	return uint(id), true
}
