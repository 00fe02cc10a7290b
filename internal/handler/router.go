package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Chat      *ChatHandler
	Search    *SearchHandler
	Translate *TranslateHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	api.POST("/chat", deps.Chat.Ask)
	api.POST("/search", deps.Search.Search)
	api.POST("/translate", deps.Translate.Translate)
}
