package model

import "time"

// PushSubscription holds the information for a browser push subscription.
// A user may hold several (one per browser/device); the (user_id, endpoint)
// pair is unique and re-registration updates the existing row in place.
type PushSubscription struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"uniqueIndex:idx_user_endpoint;size:64;not null"`
	Endpoint  string    `gorm:"uniqueIndex:idx_user_endpoint;size:512;not null"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
