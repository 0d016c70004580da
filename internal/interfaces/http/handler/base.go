package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/returnmail/backend/internal/interfaces/http/dto"
)

// Pinger is implemented by dependencies the health check pings
type Pinger interface {
	Ping(ctx context.Context) error
}

// Fail sends the failure envelope for code
func Fail(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponse(code, message))
}

// NotFound answers unknown routes
func NotFound(c *gin.Context) {
	Fail(c, dto.ErrCodeNotFound, "not found")
}

// MethodNotAllowed answers known routes called with the wrong method
func MethodNotAllowed(c *gin.Context) {
	Fail(c, dto.ErrCodeMethodNotAllowed, "method not allowed")
}

// isBodyTooLarge reports whether err came from a body cut off by BodyLimit
func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
