package model

import (
	"time"

	"gorm.io/datatypes"
)

// Conversation mirrors the chat collaborator's record shape. This service
// only reads it to derive unread counts; the chat service owns all writes.
//
// LastMessageSenderID is empty for a conversation that was created but never
// received an actual message.
type Conversation struct {
	ID                  string                      `gorm:"primaryKey;size:36" json:"id"`
	Members             datatypes.JSONSlice[string] `json:"members"`
	LastMessageSenderID string                      `gorm:"size:64" json:"lastMessageSenderId,omitempty"`
	ArchivedBy          datatypes.JSONSlice[string] `json:"archivedBy"`
	DeletedBy           datatypes.JSONSlice[string] `json:"deletedBy"`
	ReadBy              datatypes.JSONSlice[string] `json:"readBy"`
	CreatedAt           time.Time                   `json:"createdAt"`
	UpdatedAt           time.Time                   `json:"-"`
}
