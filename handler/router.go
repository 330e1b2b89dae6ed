package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/foodchat-be/middleware"
	"github.com/tieubaoca/foodchat-be/service"
	"github.com/tieubaoca/foodchat-be/types"
	"go.uber.org/zap"
)

type RouterConfig struct {
	AllowedOrigins []string
	MaxBodyBytes   int64
}

func NewRouter(relay *service.StreamRelay, cfg RouterConfig, logger *zap.Logger) *gin.Engine {
	corsHandler := NewCorsHandler(cfg.AllowedOrigins)
	chatHandler := NewChatHandler(relay, cfg.MaxBodyBytes, logger)
	wsChatHandler := NewWSChatHandler(relay, cfg.AllowedOrigins, cfg.MaxBodyBytes, logger)

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(
		middleware.RequestID(),
		middleware.AccessLog(logger),
		middleware.Recovery(logger),
		corsHandler.CorsMiddleware,
	)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, types.ErrorResponse("not found"))
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, types.ErrorResponse("method not allowed"))
	})

	router.GET("/healthz", HandleHealth)

	api := router.Group("/api")
	{
		api.POST("/chat", chatHandler.HandleChat)
		api.GET("/chat/ws", wsChatHandler.HandleChat)
	}

	return router
}
