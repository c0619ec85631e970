package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmagister-backend/internal/push"
)

type sendPushRequest struct {
	UserID string `json:"userId" binding:"required"`
	Title  string `json:"title" binding:"required"`
	Body   string `json:"body" binding:"required"`
	URL    string `json:"url"`
	Tag    string `json:"tag"`
}

// SendPush handles POST /send-push: synchronous fan-out to every endpoint of
// the target user. Per-endpoint failures are reflected in the counts, never
// in the status code; only a store failure yields 500.
func (h *Handler) SendPush(c *gin.Context) {
	var req sendPushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	result, err := h.deliverer.Deliver(c.Request.Context(), req.UserID, push.Payload{
		Title: req.Title,
		Body:  req.Body,
		URL:   req.URL,
		Tag:   req.Tag,
	})
	if err != nil {
		// The engine only errors when the subscription store is unreachable.
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"sent":    result.Sent,
		"total":   result.Total,
		"cleaned": result.Cleaned,
	})
}
