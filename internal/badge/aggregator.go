package badge

import "pharmagister-backend/internal/model"

// Badges holds the unread counts surfaced in the navigation UI.
type Badges struct {
	Notifications int `json:"notifications"`
	Messages      int `json:"messages"`
}

// ComputeBadges derives the badge counts for userID from a snapshot of the
// user's conversations and notification records. It is a pure function:
// callers re-run it over the full latest snapshot on every change instead of
// patching previous counts.
func ComputeBadges(userID string, conversations []model.Conversation, notifications []model.Notification) Badges {
	var b Badges
	for _, n := range notifications {
		if n.UserID == userID && !n.Read {
			b.Notifications++
		}
	}
	for _, c := range conversations {
		if conversationUnreadFor(&c, userID) {
			b.Messages++
		}
	}
	return b
}

// conversationUnreadFor is the single normative unread rule: the user must be
// a member, must not have archived or deleted the conversation for
// themselves, the conversation must have a real message (a ghost has no
// sender), the latest message must come from the other member, and the user
// must not have read it yet.
func conversationUnreadFor(c *model.Conversation, userID string) bool {
	if !contains(c.Members, userID) {
		return false
	}
	if contains(c.ArchivedBy, userID) || contains(c.DeletedBy, userID) {
		return false
	}
	if c.LastMessageSenderID == "" || c.LastMessageSenderID == userID {
		return false
	}
	return !contains(c.ReadBy, userID)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
