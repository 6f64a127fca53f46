package http

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mrlokans/elibrary/internal/audit"
)

const maxRequestIDLength = 64

// RequestIDMiddleware tags every request with an X-Request-ID, keeping the
// client's value when it sent a usable one.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(audit.RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		c.Header(audit.RequestIDHeader, id)
		c.Next()
	}
}
