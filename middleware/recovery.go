package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/foodchat-be/types"
	"go.uber.org/zap"
)

// Recovery turns panics into 500 responses. http.ErrAbortHandler is passed on
// to net/http, which closes the connection without completing the response.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.Error("Recovered from panic",
				zap.Any("panic", rec),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", GetRequestID(c)),
				zap.Stack("stack"))
			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, types.ErrorResponse("internal server error"))
		}()
		c.Next()
	}
}
