package broadcast

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"harilog/internal/logger"
	"harilog/pkg/errors"
)

type Handler struct {
	service *Service
	logger  logger.Logger
}

func NewHandler(service *Service, log logger.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

func (h *Handler) RegisterRoutes(router *gin.Engine, extra ...gin.HandlerFunc) {
	v1 := router.Group("/api/v1")
	handlers := append(extra, h.Create)
	v1.POST("/broadcasts", handlers...)
}

func (h *Handler) Create(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(
			errors.ErrValidation.WithCause(err).WithDetail("message", "title and message are required")))
		return
	}

	result, err := h.service.Send(c.Request.Context(), req)
	if err != nil {
		h.logger.ErrorwCtx(c.Request.Context(), "Broadcast failed", "error", err)
		c.JSON(errors.ToHTTPStatus(err), errors.ToErrorResponse(err))
		return
	}

	c.JSON(http.StatusOK, result)
}
