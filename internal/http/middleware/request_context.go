package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yungbote/cvextract/internal/pkg/ctxutil"
)

const HeaderRequestID = "X-Request-ID"

// AttachRequestContext tags each request with a request id, reusing the
// caller's X-Request-ID when present.
func AttachRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{RequestID: id})
		c.Request = c.Request.WithContext(ctx)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}
