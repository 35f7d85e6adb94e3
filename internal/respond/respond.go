// Package respond writes the JSON error bodies shared by handlers and middleware.
package respond

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// MsgAccessDenied is the body returned when a protected route is reached
// without a valid token. It never says which check failed.
const MsgAccessDenied = "Access denied: Missing or invalid token"

type ErrorBody struct {
	Timestamp string            `json:"timestamp"`
	Status    int               `json:"status"`
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}

func NewErrorBody(status int, message string) ErrorBody {
	return ErrorBody{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
	}
}

func Error(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, NewErrorBody(status, message))
}

func ValidationError(c *gin.Context, fields map[string]string) {
	body := NewErrorBody(http.StatusBadRequest, "Validation failed")
	body.Errors = fields
	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}

// Internal answers 500 without any detail of the failure. The request id, when
// present, ties the response to the logged error.
func Internal(c *gin.Context) {
	msg := "Unexpected error"
	if rid := c.GetString("request_id"); rid != "" {
		msg += " (request " + rid + ")"
	}
	Error(c, http.StatusInternalServerError, msg)
}

// Unauthenticated rejects an anonymous caller on a protected route.
func Unauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": MsgAccessDenied})
}
