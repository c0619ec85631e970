package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pharmagister-backend/internal/maintenance"
	"pharmagister-backend/internal/metrics"
	"pharmagister-backend/internal/model"
	"pharmagister-backend/internal/notification"
	"pharmagister-backend/internal/push"
	"pharmagister-backend/internal/store"
)

// stubDeliverer returns a fixed result without touching a provider.
type stubDeliverer struct {
	result push.Result
	err    error
	calls  []string
}

func (d *stubDeliverer) Deliver(_ context.Context, userID string, _ push.Payload) (push.Result, error) {
	d.calls = append(d.calls, userID)
	return d.result, d.err
}

var apiDBSeq int

func newTestRouter(t *testing.T, deliverer Deliverer) (*gin.Engine, store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	apiDBSeq++
	dsn := fmt.Sprintf("file:api_test_%d?mode=memory&cache=shared", apiDBSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.PushSubscription{},
		&model.Notification{},
		&model.Conversation{},
	))

	s := store.NewGormStore(db)
	acc := metrics.NewAccumulator()
	pool := notification.NewWorkerPool(1, deliverer, acc)
	writer := notification.NewWriter(s, pool, acc)
	handler := NewHandler(s, deliverer, writer, maintenance.NewOps(s), &webpush.Options{VAPIDPublicKey: "test-public-key"})
	return NewRouter(handler), s
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPutSubscription_MissingFields(t *testing.T) {
	router, _ := newTestRouter(t, &stubDeliverer{})

	w := doJSON(router, http.MethodPost, "/api/push-subscription", gin.H{
		"subscription": gin.H{
			"endpoint": "https://push.example/ep",
			"keys":     gin.H{"p256dh": "k", "auth": "a"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPutSubscription_UpsertFlow(t *testing.T) {
	router, s := newTestRouter(t, &stubDeliverer{})

	body := gin.H{
		"userId": "user-a",
		"subscription": gin.H{
			"endpoint": "https://push.example/ep",
			"keys":     gin.H{"p256dh": "k1", "auth": "a1"},
		},
	}
	w := doJSON(router, http.MethodPost, "/api/push-subscription", body)
	require.Equal(t, http.StatusCreated, w.Code)

	var first struct {
		Success bool   `json:"success"`
		ID      string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.True(t, first.Success)
	require.NotEmpty(t, first.ID)

	// Re-registering the same endpoint keeps the id.
	w = doJSON(router, http.MethodPost, "/api/push-subscription", body)
	require.Equal(t, http.StatusCreated, w.Code)
	var second struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Equal(t, first.ID, second.ID)

	subs, err := s.SubscriptionsForUser(context.Background(), "user-a")
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestDeleteSubscription(t *testing.T) {
	router, s := newTestRouter(t, &stubDeliverer{})
	ctx := context.Background()

	_, err := s.UpsertSubscription(ctx, "user-a", "https://push.example/ep1", "k", "a")
	require.NoError(t, err)
	_, err = s.UpsertSubscription(ctx, "user-a", "https://push.example/ep2", "k", "a")
	require.NoError(t, err)

	// Without an endpoint the whole user is unsubscribed.
	w := doJSON(router, http.MethodDelete, "/api/push-subscription", gin.H{"userId": "user-a"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"deleted":2}`, w.Body.String())

	// Deleting again reports zero, still a success.
	w = doJSON(router, http.MethodDelete, "/api/push-subscription", gin.H{"userId": "user-a"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"deleted":0}`, w.Body.String())
}

func TestSendPush(t *testing.T) {
	deliverer := &stubDeliverer{result: push.Result{Sent: 2, Total: 3, Cleaned: 1}}
	router, _ := newTestRouter(t, deliverer)

	w := doJSON(router, http.MethodPost, "/api/send-push", gin.H{
		"userId": "user-b",
		"title":  "X",
		"body":   "Y",
		"url":    "/chat/123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"sent":2,"total":3,"cleaned":1}`, w.Body.String())
	assert.Equal(t, []string{"user-b"}, deliverer.calls)
}

func TestSendPush_MissingUserID(t *testing.T) {
	router, _ := newTestRouter(t, &stubDeliverer{})

	w := doJSON(router, http.MethodPost, "/api/send-push", gin.H{"title": "X", "body": "Y"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendPush_DeliveryUnavailable(t *testing.T) {
	deliverer := &stubDeliverer{err: push.ErrDeliveryUnavailable}
	router, _ := newTestRouter(t, deliverer)

	w := doJSON(router, http.MethodPost, "/api/send-push", gin.H{
		"userId": "user-b", "title": "X", "body": "Y",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestNotifyAndReadAll(t *testing.T) {
	router, _ := newTestRouter(t, &stubDeliverer{})

	// Two notifications for user-b.
	for _, msg := range []string{"first", "second"} {
		w := doJSON(router, http.MethodPost, "/api/notify", gin.H{
			"userId":  "user-b",
			"type":    model.TypeNewMessage,
			"title":   "X",
			"message": msg,
			"url":     "/chat/123",
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(router, http.MethodGet, "/api/users/user-b/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Notifications []model.Notification `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Notifications, 2)
	for _, n := range list.Notifications {
		assert.False(t, n.Read)
	}

	w = doJSON(router, http.MethodPost, "/api/users/user-b/notifications/read-all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"marked":2}`, w.Body.String())

	// Settling again marks nothing.
	w = doJSON(router, http.MethodPost, "/api/users/user-b/notifications/read-all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"marked":0}`, w.Body.String())
}

func TestDeleteNotification(t *testing.T) {
	router, s := newTestRouter(t, &stubDeliverer{})
	ctx := context.Background()

	n := model.Notification{UserID: "user-b", Type: model.TypeNewMessage, Title: "t", Message: "m"}
	require.NoError(t, s.CreateNotification(ctx, &n))

	w := doJSON(router, http.MethodDelete, "/api/users/user-a/notifications/"+n.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodDelete, "/api/users/user-b/notifications/"+n.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetBadges(t *testing.T) {
	router, s := newTestRouter(t, &stubDeliverer{})
	ctx := context.Background()

	require.NoError(t, s.CreateNotification(ctx, &model.Notification{
		UserID: "user-a", Type: model.TypeNewApplication, Title: "t", Message: "m",
	}))
	require.NoError(t, s.DB().Create(&model.Conversation{
		ID:                  "c1",
		Members:             []string{"user-a", "user-b"},
		LastMessageSenderID: "user-b",
	}).Error)

	w := doJSON(router, http.MethodGet, "/api/users/user-a/badges", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"notifications":1,"messages":1}`, w.Body.String())

	// The sender of the last message sees no message badge.
	w = doJSON(router, http.MethodGet, "/api/users/user-b/badges", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"notifications":0,"messages":0}`, w.Body.String())
}

func TestGetVAPIDPublicKey(t *testing.T) {
	router, _ := newTestRouter(t, &stubDeliverer{})

	w := doJSON(router, http.MethodGet, "/api/vapid_public_key", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"public_key":"test-public-key"}`, w.Body.String())
}

func TestAdminPurgeUser(t *testing.T) {
	router, s := newTestRouter(t, &stubDeliverer{})
	ctx := context.Background()

	_, err := s.UpsertSubscription(ctx, "user-a", "https://push.example/ep", "k", "a")
	require.NoError(t, err)
	require.NoError(t, s.CreateNotification(ctx, &model.Notification{
		UserID: "user-a", Type: model.TypeStatusChange, Title: "t", Message: "m",
	}))

	w := doJSON(router, http.MethodPost, "/api/admin/users/user-a/purge", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"subscriptions":1,"notifications":1}`, w.Body.String())
}
