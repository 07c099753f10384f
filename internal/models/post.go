package models

import (
	"time"
)

// Post represents a post ("tweet") in the chirper application.
type Post struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Body   string `gorm:"type:text;not null" json:"body"`
	UserID uint   `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user"`
	// LikedIDs is not persisted on the row; it is read from the likes table.
	LikedIDs  []uint    `gorm:"-" json:"liked_ids"`
	Comments  []Comment `gorm:"foreignKey:PostID" json:"comments"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
