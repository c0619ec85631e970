package model

import "time"

// Notification type tags carried on records and push payloads.
const (
	TypeNewMessage     = "new_message"
	TypeNewApplication = "new_application"
	TypeStatusChange   = "status_change"
)

// Notification is an in-app notification record for a single user.
// Read starts false and only ever flips to true.
type Notification struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"index;size:64;not null" json:"userId"`
	Type      string    `gorm:"size:64;not null" json:"type"`
	Title     string    `gorm:"size:256;not null" json:"title"`
	Message   string    `gorm:"size:1024;not null" json:"message"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	RelatedID string    `gorm:"size:64" json:"relatedId,omitempty"`
	URL       string    `gorm:"size:512" json:"url,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`
}
