package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pharmagister-backend/internal/model"
)

// ErrBatchCommit indicates that an all-or-nothing batched write failed and
// none of its records were mutated.
var ErrBatchCommit = errors.New("batch commit failed")

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	// Subscriptions
	UpsertSubscription(ctx context.Context, userID, endpoint, p256dh, auth string) (string, error)
	DeleteSubscriptions(ctx context.Context, userID, endpoint string) (int64, error)
	SubscriptionsForUser(ctx context.Context, userID string) ([]model.PushSubscription, error)
	DeleteSubscriptionByID(ctx context.Context, id string) error

	// Notifications
	CreateNotification(ctx context.Context, n *model.Notification) error
	NotificationsForUser(ctx context.Context, userID string) ([]model.Notification, error)
	UnreadNotifications(ctx context.Context, userID string) ([]model.Notification, error)
	MarkAllRead(ctx context.Context, userID string, ids []string) error
	DeleteNotification(ctx context.Context, userID, id string) (int64, error)

	// Conversations (read-only; owned by the chat service)
	ConversationsForUser(ctx context.Context, userID string) ([]model.Conversation, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// UpsertSubscription creates or refreshes the subscription for the exact
// (userID, endpoint) pair and returns the stable record id. Re-registering
// the same endpoint never changes the id.
func (s *gormStore) UpsertSubscription(ctx context.Context, userID, endpoint, p256dh, auth string) (string, error) {
	var id string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.PushSubscription
		err := tx.Where("user_id = ? AND endpoint = ?", userID, endpoint).First(&existing).Error
		switch {
		case err == nil:
			existing.P256DH = p256dh
			existing.Auth = auth
			if err := tx.Save(&existing).Error; err != nil {
				return fmt.Errorf("failed to refresh subscription %s: %w", existing.ID, err)
			}
			id = existing.ID
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			sub := model.PushSubscription{
				ID:       uuid.NewString(),
				UserID:   userID,
				Endpoint: endpoint,
				P256DH:   p256dh,
				Auth:     auth,
			}
			if err := tx.Create(&sub).Error; err != nil {
				return fmt.Errorf("failed to create subscription for user %s: %w", userID, err)
			}
			id = sub.ID
			return nil
		default:
			return fmt.Errorf("failed to look up subscription for user %s: %w", userID, err)
		}
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// DeleteSubscriptions removes all subscriptions for userID, or just the one
// matching endpoint when it is non-empty. A zero match is not an error.
func (s *gormStore) DeleteSubscriptions(ctx context.Context, userID, endpoint string) (int64, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if endpoint != "" {
		q = q.Where("endpoint = ?", endpoint)
	}
	res := q.Delete(&model.PushSubscription{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete subscriptions for user %s: %w", userID, res.Error)
	}
	return res.RowsAffected, nil
}

func (s *gormStore) SubscriptionsForUser(ctx context.Context, userID string) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions for user %s: %w", userID, err)
	}
	return subs, nil
}

// DeleteSubscriptionByID removes a single subscription row. Used by the
// delivery engine to clean up endpoints the provider reports as gone;
// deleting an already-deleted row is a no-op.
func (s *gormStore) DeleteSubscriptionByID(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Delete(&model.PushSubscription{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete subscription %s: %w", id, err)
	}
	return nil
}

func (s *gormStore) CreateNotification(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("failed to create notification for user %s: %w", n.UserID, err)
	}
	return nil
}

func (s *gormStore) NotificationsForUser(ctx context.Context, userID string) ([]model.Notification, error) {
	var records []model.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications for user %s: %w", userID, err)
	}
	return records, nil
}

func (s *gormStore) UnreadNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	var records []model.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND read = ?", userID, false).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unread notifications for user %s: %w", userID, err)
	}
	return records, nil
}

// MarkAllRead flips read=true on the given records in a single transactional
// batch. An empty id set issues no write at all. On failure no record is
// mutated and the error wraps ErrBatchCommit.
func (s *gormStore) MarkAllRead(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&model.Notification{}).
			Where("user_id = ? AND id IN ?", userID, ids).
			Update("read", true).Error
	})
	if err != nil {
		return fmt.Errorf("%w: marking %d notifications read for user %s: %v", ErrBatchCommit, len(ids), userID, err)
	}
	return nil
}

// DeleteNotification removes one record owned by userID. Returns the number
// of rows removed (0 when the record does not exist or belongs to someone else).
func (s *gormStore) DeleteNotification(ctx context.Context, userID, id string) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&model.Notification{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete notification %s: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

// ConversationsForUser returns every conversation the user is a member of.
// Membership lives inside a JSON array column, so this filters in memory
// after a full scan of the (small) conversations table.
func (s *gormStore) ConversationsForUser(ctx context.Context, userID string) ([]model.Conversation, error) {
	var all []model.Conversation
	if err := s.db.WithContext(ctx).Find(&all).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch conversations: %w", err)
	}
	var mine []model.Conversation
	for _, c := range all {
		for _, m := range c.Members {
			if m == userID {
				mine = append(mine, c)
				break
			}
		}
	}
	return mine, nil
}
