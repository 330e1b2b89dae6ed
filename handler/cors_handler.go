package handler

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
)

type CorsHandler struct {
	allowedOrigins []string
}

func NewCorsHandler(allowedOrigins []string) *CorsHandler {
	return &CorsHandler{allowedOrigins: allowedOrigins}
}

func (h *CorsHandler) CorsMiddleware(c *gin.Context) {
	if origin := h.allowOrigin(c.GetHeader("Origin")); origin != "" {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		if origin != "*" {
			c.Writer.Header().Add("Vary", "Origin")
		}
	}
	c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
	c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}
	c.Next()
}

func (h *CorsHandler) allowOrigin(origin string) string {
	if slices.Contains(h.allowedOrigins, "*") {
		return "*"
	}
	if origin != "" && slices.Contains(h.allowedOrigins, origin) {
		return origin
	}
	return ""
}
