package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/tutorbook/internal/pkg/errcode"
	appErr "github.com/xxxsen/tutorbook/internal/pkg/errors"
	"github.com/xxxsen/tutorbook/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrRetrievalUnavailable):
		response.Error(c, errcode.ErrRetrievalUnavailable, "retrieval temporarily unavailable")
	case errors.Is(err, appErr.ErrTranslationUnavailable):
		response.Error(c, errcode.ErrTranslationUnavailable, "translation temporarily unavailable")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
