package api

import (
	"context"

	"github.com/SherClockHolmes/webpush-go"

	"pharmagister-backend/internal/maintenance"
	"pharmagister-backend/internal/push"
	"pharmagister-backend/internal/store"
)

// Deliverer fans one payload out to a user's registered endpoints.
type Deliverer interface {
	Deliver(ctx context.Context, userID string, p push.Payload) (push.Result, error)
}

// Notifier writes a notification record and queues its push delivery.
type Notifier interface {
	Notify(ctx context.Context, userID, typ, title, message, relatedID, url string) (string, error)
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	deliverer Deliverer
	notifier  Notifier
	ops       *maintenance.Ops
	webpush   *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, d Deliverer, n Notifier, ops *maintenance.Ops, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:     s,
		deliverer: d,
		notifier:  n,
		ops:       ops,
		webpush:   webpushOptions,
	}
}
