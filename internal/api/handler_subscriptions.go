package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type subscriptionKeys struct {
	P256DH string `json:"p256dh" binding:"required"`
	Auth   string `json:"auth" binding:"required"`
}

type subscriptionBody struct {
	Endpoint string           `json:"endpoint" binding:"required"`
	Keys     subscriptionKeys `json:"keys" binding:"required"`
}

type putSubscriptionRequest struct {
	UserID       string           `json:"userId" binding:"required"`
	Subscription subscriptionBody `json:"subscription" binding:"required"`
}

// PutSubscription handles POST /push-subscription: register or refresh the
// caller's push endpoint. Re-registering an existing endpoint is idempotent.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	id, err := h.store.UpsertSubscription(c.Request.Context(),
		req.UserID, req.Subscription.Endpoint, req.Subscription.Keys.P256DH, req.Subscription.Keys.Auth)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "id": id})
}

type deleteSubscriptionRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Endpoint string `json:"endpoint"`
}

// DeleteSubscription handles DELETE /push-subscription: remove one endpoint
// when given, otherwise every registration the user has. Deleting nothing is
// still a success.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	deleted, err := h.store.DeleteSubscriptions(c.Request.Context(), req.UserID, req.Endpoint)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": deleted})
}
