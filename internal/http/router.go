// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bvetra/internal/http/handlers"
	"bvetra/internal/http/middleware"
	"bvetra/internal/modules/chat"
)

type RouterDeps struct {
	Chat       *chat.Service
	Dispatcher handlers.Dispatcher
	Quota      handlers.Quota
	Log        *zap.Logger
	Production bool
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.Logging(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	chatHandler := handlers.NewChatHandler(deps.Chat, deps.Quota)
	orderHandler := handlers.NewOrderHandler(deps.Dispatcher)
	sessionHandler := handlers.NewSessionHandler(deps.Chat)

	api := r.Group("/api")
	api.POST("/chat", chatHandler.Send)
	api.POST("/chat/stream", chatHandler.Stream)
	api.GET("/chat/meta", chatHandler.Meta)
	api.POST("/order", orderHandler.Create)

	sessions := api.Group("/sessions/:id")
	sessions.GET("/draft", sessionHandler.GetDraft)
	sessions.PATCH("/draft", sessionHandler.PatchDraft)
	sessions.POST("/confirm", sessionHandler.Confirm)
	sessions.POST("/submit", sessionHandler.Submit)
	sessions.GET("/history", sessionHandler.History)
	sessions.DELETE("", sessionHandler.Clear)

	return r
}
