package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/tutorbook/internal/pkg/errcode"
	"github.com/xxxsen/tutorbook/internal/pkg/response"
	"github.com/xxxsen/tutorbook/internal/service"
)

type TranslateHandler struct {
	translation *service.TranslationService
}

func NewTranslateHandler(translation *service.TranslationService) *TranslateHandler {
	return &TranslateHandler{translation: translation}
}

type translateRequest struct {
	Content        string `json:"content"`
	TargetLanguage string `json:"target_language"`
}

func (h *TranslateHandler) Translate(c *gin.Context) {
	var req translateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.Content == "" {
		response.Error(c, errcode.ErrInvalid, "content is required")
		return
	}
	translated := h.translation.Translate(c.Request.Context(), req.Content, req.TargetLanguage)
	response.Success(c, gin.H{"translated_content": translated})
}
