package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"pharmagister-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	// Rate limit: 10 requests per second with a burst of 5
	rateLimiter := mw.RateLimiter(rate.Limit(10), 5)

	// Cache: only the VAPID key is cacheable; it changes on redeploy at most.
	cacheStore := cache.New(5*time.Minute, 10*time.Minute)
	caching := mw.Cache(cacheStore, 5*time.Minute)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/push-subscription", h.PutSubscription)
		api.DELETE("/push-subscription", h.DeleteSubscription)
		api.POST("/send-push", h.SendPush)
		api.POST("/notify", h.Notify)

		api.GET("/users/:user_id/notifications", h.GetNotifications)
		api.POST("/users/:user_id/notifications/read-all", h.MarkAllRead)
		api.DELETE("/users/:user_id/notifications/:id", h.DeleteNotification)
		api.GET("/users/:user_id/badges", h.GetBadges)

		api.GET("/vapid_public_key", caching, h.GetVAPIDPublicKey)

		admin := api.Group("/admin")
		{
			admin.POST("/maintenance/dedupe-subscriptions", h.DedupeSubscriptions)
			admin.POST("/users/:user_id/purge", h.PurgeUser)
		}
	}

	return r
}
