package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/tutorbook/internal/pkg/errcode"
	"github.com/xxxsen/tutorbook/internal/pkg/response"
	"github.com/xxxsen/tutorbook/internal/service"
)

type SearchHandler struct {
	retrieval *service.RetrievalService
}

func NewSearchHandler(retrieval *service.RetrievalService) *SearchHandler {
	return &SearchHandler{retrieval: retrieval}
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type searchResult struct {
	ID       string                 `json:"id"`
	Score    float32                `json:"score"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

func (h *SearchHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		response.Error(c, errcode.ErrInvalid, "query is required")
		return
	}
	hits, err := h.retrieval.Search(c.Request.Context(), req.Query, req.TopK)
	if err != nil {
		handleError(c, err)
		return
	}
	results := make([]searchResult, 0, len(hits))
	for _, hit := range hits {
		item := searchResult{ID: hit.ID, Score: hit.Score}
		if metadata, ok := hit.Payload["metadata"].(map[string]interface{}); ok {
			item.Metadata = metadata
		}
		results = append(results, item)
	}
	response.Success(c, gin.H{"results": results})
}
