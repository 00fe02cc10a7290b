package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/tutorbook/internal/pkg/errcode"
	"github.com/xxxsen/tutorbook/internal/pkg/response"
	"github.com/xxxsen/tutorbook/internal/service"
)

type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatRequest struct {
	Query string `json:"query"`
	Lang  string `json:"lang"`
}

func (h *ChatHandler) Ask(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		response.Error(c, errcode.ErrInvalid, "query is required")
		return
	}
	answer := h.chat.Ask(c.Request.Context(), req.Query, req.Lang)
	response.Success(c, gin.H{"response": answer})
}
