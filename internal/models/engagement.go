package models

import "time"

// Like is a user's like on a post. One row per (post, user).
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_likes_post_user" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_post_user;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentLike is a user's like on a comment.
type CommentLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CommentID uint      `gorm:"not null;uniqueIndex:idx_comment_likes_comment_user" json:"comment_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_comment_likes_comment_user;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SavedPost bookmarks a post.
type SavedPost struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_saved_posts_post_user" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_saved_posts_post_user;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SavedPortfolio bookmarks a portfolio.
type SavedPortfolio struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PortfolioID uint      `gorm:"not null;uniqueIndex:idx_saved_portfolios_portfolio_user" json:"portfolio_id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_saved_portfolios_portfolio_user;index" json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Liker is one entry of a post's like list.
type Liker struct {
	UserID       uint      `json:"user_id"`
	UserName     string    `json:"user_name"`
	ProfilePhoto string    `json:"profile_photo"`
	LikedAt      time.Time `json:"liked_at"`
}
