package models

import "time"

// Comment belongs to a post and optionally to a parent comment.
type Comment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PostID     uint      `gorm:"not null;index" json:"post_id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	ParentID   *uint     `gorm:"index" json:"parent_id,omitempty"`
	Text       string    `gorm:"size:500;not null" json:"text"`
	LikesCount int       `gorm:"not null;default:0" json:"likes_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Computed for reads
	UserName     string     `gorm:"-" json:"user_name"`
	ProfilePhoto string     `gorm:"-" json:"profile_photo"`
	Liked        bool       `gorm:"-" json:"liked"`
	Replies      []*Comment `gorm:"-" json:"replies"`
}
