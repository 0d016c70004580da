package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/returnmail/backend/internal/interfaces/http/dto"
)

// BodyLimit rejects bodies larger than maxBytes. A non-positive limit disables the check.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			abortWithError(c, dto.ErrCodeRequestTooLarge, "request body exceeds maximum allowed size")
			return
		}

		// Chunked bodies are cut off at the limit while reading
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
