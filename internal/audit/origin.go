package audit

import "github.com/gin-gonic/gin"

// RequestIDHeader carries the per-request ID on both the request and the
// response.
const RequestIDHeader = "X-Request-ID"

// RequestOrigin describes the request behind c, attributed to userID.
func RequestOrigin(c *gin.Context, userID uint) Origin {
	requestID := c.Writer.Header().Get(RequestIDHeader)
	if requestID == "" {
		requestID = c.GetHeader(RequestIDHeader)
	}
	return Origin{
		UserID:    userID,
		RequestID: requestID,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
