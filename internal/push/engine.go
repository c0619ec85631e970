package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"pharmagister-backend/internal/metrics"
	"pharmagister-backend/internal/model"
	"pharmagister-backend/internal/store"
)

// ErrDeliveryUnavailable indicates the subscription store could not be read,
// so no delivery was attempted at all.
var ErrDeliveryUnavailable = errors.New("delivery unavailable")

// Payload is one logical notification to fan out to a user's endpoints.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
	Tag   string `json:"tag"`
}

// wirePayload is what actually goes over the provider, with the fixed
// display assets attached.
type wirePayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon"`
	Badge string `json:"badge"`
	Tag   string `json:"tag"`
	URL   string `json:"url"`
}

// Result summarizes one fan-out: how many endpoints were attempted, how many
// accepted the push, and how many stale registrations were cleaned up.
type Result struct {
	Sent    int `json:"sent"`
	Total   int `json:"total"`
	Cleaned int `json:"cleaned"`
}

// Engine fans a notification payload out to every registered endpoint of a
// user and deletes registrations the provider reports as permanently gone.
// It never retries; a transient failure is the caller's concern.
type Engine struct {
	store     store.Store
	webpush   *webpush.Options
	sender    Sender
	metrics   *metrics.Accumulator
	iconPath  string
	badgePath string
}

// NewEngine creates a delivery engine backed by the real webpush sender.
func NewEngine(s store.Store, webpushOptions *webpush.Options, acc *metrics.Accumulator, iconPath, badgePath string) *Engine {
	return &Engine{
		store:     s,
		webpush:   webpushOptions,
		sender:    &WebPushSender{},
		metrics:   acc,
		iconPath:  iconPath,
		badgePath: badgePath,
	}
}

// SetSender replaces the provider sender. Used by tests.
func (e *Engine) SetSender(s Sender) {
	e.sender = s
}

// Deliver sends the payload to every live endpoint registered for userID.
// A user with no registrations yields a zero Result and no provider call.
// Individual endpoint failures never abort the remaining attempts; the only
// error condition is the subscription load itself failing.
func (e *Engine) Deliver(ctx context.Context, userID string, p Payload) (Result, error) {
	subs, err := e.store.SubscriptionsForUser(ctx, userID)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrDeliveryUnavailable, err)
	}
	if len(subs) == 0 {
		return Result{}, nil
	}

	body, err := json.Marshal(wirePayload{
		Title: p.Title,
		Body:  p.Body,
		Icon:  e.iconPath,
		Badge: e.badgePath,
		Tag:   p.Tag,
		URL:   p.URL,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: encoding payload: %v", ErrDeliveryUnavailable, err)
	}

	result := Result{Total: len(subs)}
	for _, sub := range subs {
		switch e.attempt(sub, body) {
		case outcomeDelivered:
			result.Sent++
			e.metrics.Add(metrics.PushSent, 1)
		case outcomePermanent:
			// Cleanup must finish before Deliver returns so a following
			// call never races against a half-deleted stale record.
			if err := e.store.DeleteSubscriptionByID(ctx, sub.ID); err != nil {
				log.Printf("Failed to delete expired subscription %s: %v", sub.ID, err)
			}
			result.Cleaned++
			e.metrics.Add(metrics.PushCleaned, 1)
		case outcomeTransient:
			e.metrics.Add(metrics.PushTransient, 1)
		}
	}
	return result, nil
}

type outcome int

const (
	outcomeDelivered outcome = iota
	outcomeTransient
	outcomePermanent
)

// attempt sends one push and classifies the response. Only 404/410 mark the
// endpoint as permanently gone; everything else, including network errors
// and timeouts, is transient.
func (e *Engine) attempt(sub model.PushSubscription, body []byte) outcome {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := e.sender.Send(body, wpSub, e.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return outcomeTransient
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return outcomeDelivered
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		return outcomePermanent
	default:
		log.Printf("Push to %s failed with status %d", sub.Endpoint, resp.StatusCode)
		return outcomeTransient
	}
}
