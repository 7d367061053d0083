package models

import "time"

// Feed modes.
const (
	FeedTypeLatest      = "latest"
	FeedTypeRecommended = "recommended"
)

// Preference configures feed ranking for one user.
type Preference struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	FeedType  string     `gorm:"not null;default:'latest'" json:"feed_type"`
	Locations StringList `gorm:"type:text" json:"locations"`
	Skills    StringList `gorm:"type:text" json:"skills"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Tags returns the trimmed, non-empty union of locations and skills.
func (p *Preference) Tags() []string {
	if p == nil {
		return nil
	}
	return CleanTags(append(append([]string{}, p.Locations...), p.Skills...))
}
