package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmagister-backend/internal/badge"
)

// GetBadges handles GET /users/:user_id/badges: derive the unread counts from
// the current store state. Counts are computed fresh on every call, never
// stored.
func (h *Handler) GetBadges(c *gin.Context) {
	userID := c.Param("user_id")
	ctx := c.Request.Context()

	conversations, err := h.store.ConversationsForUser(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	unread, err := h.store.UnreadNotifications(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, badge.ComputeBadges(userID, conversations, unread))
}
