package models

import (
	"time"
)

// Moderation states shared by posts and listings.
const (
	StatusPending  = "Pending"
	StatusActive   = "Active"
	StatusRejected = "Rejected"
	StatusSold     = "Sold"
	StatusArchived = "Archived"
)

// Post is a piece of user content. UserImage, UserProfession, UserName and
// BackgroundStyle are a snapshot of the author's profile, refreshed only by
// snapshot propagation.
type Post struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          uint       `gorm:"not null;index" json:"user_id"`
	Description     string     `gorm:"type:text;not null" json:"description"`
	Images          StringList `gorm:"type:text" json:"images"`
	Tags            StringList `gorm:"type:text" json:"tags"`
	UserImage       string     `json:"user_image"`
	UserProfession  string     `json:"user_profession"`
	UserName        string     `json:"user_name"`
	BackgroundStyle string     `json:"background_style"`
	Status          string     `gorm:"not null;default:'Active';index" json:"status"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	IsPinned        bool       `gorm:"not null;default:false" json:"is_pinned"`
	LikesCount      int        `gorm:"not null;default:0" json:"likes_count"`
	CommentsCount   int        `gorm:"not null;default:0" json:"comments_count"`
	// Liked and Saved are computed for the requesting user
	Liked     bool      `gorm:"-" json:"liked"`
	Saved     bool      `gorm:"-" json:"saved"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
