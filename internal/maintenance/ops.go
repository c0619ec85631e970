package maintenance

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"pharmagister-backend/internal/model"
	"pharmagister-backend/internal/store"
)

// Ops bundles the idempotent repair operations that used to live in one-off
// admin scripts. Every operation reports what it touched so runs can be
// audited from the log.
type Ops struct {
	store store.Store
}

// NewOps creates the maintenance operation set.
func NewOps(s store.Store) *Ops {
	return &Ops{store: s}
}

// DedupeResult reports one dedupe run.
type DedupeResult struct {
	Scanned int `json:"scanned"`
	Removed int `json:"removed"`
}

// DedupeSubscriptions removes duplicate subscription rows sharing a
// (user_id, endpoint) pair, keeping the most recently updated one. The schema
// enforces uniqueness for new writes; this repairs rows imported before the
// constraint existed. Safe to run repeatedly: a clean table removes nothing.
func (o *Ops) DedupeSubscriptions(ctx context.Context) (DedupeResult, error) {
	var result DedupeResult
	err := o.store.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var subs []model.PushSubscription
		if err := tx.Order("updated_at DESC").Find(&subs).Error; err != nil {
			return fmt.Errorf("failed to scan subscriptions: %w", err)
		}
		result.Scanned = len(subs)

		seen := make(map[string]bool, len(subs))
		for _, sub := range subs {
			key := sub.UserID + "\x00" + sub.Endpoint
			if !seen[key] {
				seen[key] = true
				continue
			}
			if err := tx.Delete(&model.PushSubscription{}, "id = ?", sub.ID).Error; err != nil {
				return fmt.Errorf("failed to delete duplicate subscription %s: %w", sub.ID, err)
			}
			log.Printf("maintenance: removed duplicate subscription %s (user %s)", sub.ID, sub.UserID)
			result.Removed++
		}
		return nil
	})
	if err != nil {
		return DedupeResult{}, err
	}
	return result, nil
}

// PurgeResult reports one user purge.
type PurgeResult struct {
	Subscriptions int64 `json:"subscriptions"`
	Notifications int64 `json:"notifications"`
}

// PurgeUser removes everything this service holds for a removed user: push
// subscriptions and notification records. Conversations are owned by the
// chat service and left alone. Purging an unknown user removes nothing.
func (o *Ops) PurgeUser(ctx context.Context, userID string) (PurgeResult, error) {
	var result PurgeResult

	deleted, err := o.store.DeleteSubscriptions(ctx, userID, "")
	if err != nil {
		return PurgeResult{}, err
	}
	result.Subscriptions = deleted

	res := o.store.DB().WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Notification{})
	if res.Error != nil {
		return PurgeResult{}, fmt.Errorf("failed to purge notifications for user %s: %w", userID, res.Error)
	}
	result.Notifications = res.RowsAffected

	log.Printf("maintenance: purged user %s (%d subscriptions, %d notifications)",
		userID, result.Subscriptions, result.Notifications)
	return result, nil
}
