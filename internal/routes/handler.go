package routes

import (
	"Recurra/internal/domain/recurring"
	appErrors "Recurra/internal/errors"
	"Recurra/internal/logger"
	"Recurra/internal/middleware"
	"Recurra/internal/pkg"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
)

type Handler struct {
	RecurringService *recurring.Service
	Generator        *recurring.Generator
}

func (h *Handler) parseID(c *gin.Context) (ulid.ULID, error) {
	id, err := pkg.ParseULID(c.Param("id"))
	if err != nil {
		return ulid.ULID{}, appErrors.NewValidationError("id", "formato inválido")
	}
	return id, nil
}

func (h *Handler) parsePagination(c *gin.Context) *pkg.PaginationParams {
	page := c.DefaultQuery("page", "1")
	limit := c.DefaultQuery("limit", "10")

	var pageNum, limitNum int
	if p, err := pkg.ParseInt(page); err == nil && p > 0 {
		pageNum = p
	} else {
		pageNum = 1
	}

	if l, err := pkg.ParseInt(limit); err == nil && l > 0 {
		limitNum = l
	} else {
		limitNum = 10
	}

	return pkg.NormalizePagination(&pkg.PaginationParams{
		Page:  pageNum,
		Limit: limitNum,
	})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	event := logger.Error().Str("code", appErr.Code).Str("path", c.FullPath())
	if requestID, ok := c.Get(middleware.RequestIDKey); ok {
		event = event.Interface("request_id", requestID)
	}
	if appErr.Err != nil {
		event = event.Err(appErr.Err)
	}
	event.Msg("request_error")
	payload := gin.H{
		"error":   appErr.Code,
		"message": appErr.Message,
	}
	if len(appErr.Details) > 0 {
		payload["details"] = appErr.Details
	}
	c.JSON(appErr.StatusCode, payload)
}

func (h *Handler) bindError(err error) error {
	return appErrors.ParseValidationErrors(err)
}
