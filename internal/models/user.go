// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents an account in the chirper application.
// FollowingIDs is backed by the follows table and populated by the repository layer.
type User struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `json:"name"`
	Username        string    `gorm:"uniqueIndex;not null" json:"username"`
	Email           string    `gorm:"uniqueIndex;not null" json:"email"`
	HashedPassword  *string   `json:"-"`
	Bio             string    `json:"bio"`
	ProfileImage    string    `json:"profile_image"`
	CoverImage      string    `json:"cover_image"`
	HasNotification bool      `gorm:"not null;default:false" json:"has_notification"`
	FollowingIDs    []uint    `gorm:"-" json:"following_ids"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// UserProfile is a User together with its derived follower count.
type UserProfile struct {
	*User
	FollowersCount int64 `json:"followers_count"`
}

// HasCredentials reports whether the user can sign in with a password.
// Accounts created by an external identity provider carry no hash.
func (u *User) HasCredentials() bool {
	return u.HashedPassword != nil && *u.HashedPassword != ""
}
