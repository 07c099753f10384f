package models

import "time"

// Notification bodies written by the engagement side effects.
const (
	NotificationFollowed = "Someone followed you!"
	NotificationLiked    = "Someone liked your tweet!"
	NotificationReplied  = "Someone replied on your tweet!"
)

// Notification is an immutable message addressed to a single user.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
