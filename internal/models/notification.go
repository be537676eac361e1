package models

import (
	"time"
)

// Notification types emitted by the feed.
const (
	NotificationTypeLike    = "like"
	NotificationTypeComment = "comment"
)

// Notification records an event from one user to another. Its lifecycle is
// owned by the notification sink; the feed only creates them as side effects.
type Notification struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FromUserID uint      `gorm:"not null;index" json:"from_user_id"`
	ToUserID   uint      `gorm:"not null;index" json:"to_user_id"`
	Type       string    `gorm:"not null" json:"type"`
	Read       bool      `gorm:"default:false" json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}
