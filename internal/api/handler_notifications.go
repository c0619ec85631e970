package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type notifyRequest struct {
	UserID    string `json:"userId" binding:"required"`
	Type      string `json:"type" binding:"required"`
	Title     string `json:"title" binding:"required"`
	Message   string `json:"message" binding:"required"`
	RelatedID string `json:"relatedId"`
	URL       string `json:"url"`
}

// Notify handles POST /notify: create an in-app notification record and queue
// its push delivery. The response reflects only the record write; push
// delivery is best-effort and resolved asynchronously.
func (h *Handler) Notify(c *gin.Context) {
	var req notifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	id, err := h.notifier.Notify(c.Request.Context(),
		req.UserID, req.Type, req.Title, req.Message, req.RelatedID, req.URL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "id": id})
}

// GetNotifications handles GET /users/:user_id/notifications.
func (h *Handler) GetNotifications(c *gin.Context) {
	userID := c.Param("user_id")

	records, err := h.store.NotificationsForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "notifications": records})
}

// MarkAllRead handles POST /users/:user_id/notifications/read-all: settle the
// read flag on every currently-unread record in one atomic batch. Either all
// of them flip or none do.
func (h *Handler) MarkAllRead(c *gin.Context) {
	userID := c.Param("user_id")
	ctx := c.Request.Context()

	unread, err := h.store.UnreadNotifications(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	ids := make([]string, len(unread))
	for i, n := range unread {
		ids[i] = n.ID
	}

	if err := h.store.MarkAllRead(ctx, userID, ids); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "marked": len(ids)})
}

// DeleteNotification handles DELETE /users/:user_id/notifications/:id.
func (h *Handler) DeleteNotification(c *gin.Context) {
	userID := c.Param("user_id")
	id := c.Param("id")

	deleted, err := h.store.DeleteNotification(c.Request.Context(), userID, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	if deleted == 0 {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "notification not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
