package notifications

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"harilog/internal/constants"
	"harilog/internal/logger"
	"harilog/pkg/errors"
)

// Handler serves the recipient-facing notification feed.
type Handler struct {
	repo   Repository
	logger logger.Logger
}

func NewHandler(repo Repository, log logger.Logger) *Handler {
	return &Handler{repo: repo, logger: log}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		accounts := v1.Group("/accounts/:id/notifications")
		{
			accounts.GET("", h.List)
			accounts.GET("/unread-count", h.UnreadCount)
			accounts.POST("/read", h.MarkAllRead)
		}
	}
}

func (h *Handler) List(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}

	limit := constants.DefaultFeedLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, errors.ToErrorResponse(
				errors.ErrValidation.WithDetail("message", "limit must be a positive integer")))
			return
		}
		if n > constants.MaxFeedLimit {
			n = constants.MaxFeedLimit
		}
		limit = n
	}

	items, err := h.repo.ListForAccount(c.Request.Context(), accountID, limit)
	if err != nil {
		h.handleError(c, err)
		return
	}

	if items == nil {
		items = []Notification{}
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) UnreadCount(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}

	count, err := h.repo.UnreadCount(c.Request.Context(), accountID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	accountID, ok := h.accountID(c)
	if !ok {
		return
	}

	updated, err := h.repo.MarkAllRead(c.Request.Context(), accountID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"marked_read": updated})
}

func (h *Handler) accountID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(
			errors.ErrValidation.WithDetail("message", "account id must be a positive integer")))
		return 0, false
	}
	return id, true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	h.logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)
	c.JSON(errors.ToHTTPStatus(err), errors.ToErrorResponse(err))
}
