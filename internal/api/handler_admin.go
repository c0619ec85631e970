package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DedupeSubscriptions handles POST /admin/maintenance/dedupe-subscriptions.
// Idempotent; a clean table reports zero removals.
func (h *Handler) DedupeSubscriptions(c *gin.Context) {
	result, err := h.ops.DedupeSubscriptions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "scanned": result.Scanned, "removed": result.Removed})
}

// PurgeUser handles POST /admin/users/:user_id/purge: remove all
// subscriptions and notification records held for a removed user.
func (h *Handler) PurgeUser(c *gin.Context) {
	result, err := h.ops.PurgeUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"subscriptions": result.Subscriptions,
		"notifications": result.Notifications,
	})
}
