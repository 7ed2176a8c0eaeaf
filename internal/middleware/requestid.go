package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const ContextRequestID = "request_id"

// RequestID tags every request with a unique ID, honoring one supplied by
// the caller, and echoes it back in the response headers.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(ContextRequestID, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// GetRequestID gets the current request ID from context
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(ContextRequestID); exists {
		return id.(string)
	}
	return ""
}
