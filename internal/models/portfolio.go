package models

import "time"

// Portfolio is the canonical profile of a user. Exactly one per user.
type Portfolio struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	Name            string     `gorm:"not null" json:"name"`
	ProfilePhoto    string     `json:"profile_photo"`
	Location        string     `gorm:"not null;index" json:"location"`
	Profession      string     `gorm:"not null;index" json:"profession"`
	Bio             string     `gorm:"type:text" json:"bio"`
	Contact         string     `json:"contact"`
	BackgroundStyle string     `json:"background_style"`
	Skills          StringList `gorm:"type:text" json:"skills"`
	Services        StringList `gorm:"type:text" json:"services"`
	Gallery         StringList `gorm:"type:text" json:"gallery"`
	Links           StringMap  `gorm:"type:text" json:"links"`
	// Saved is computed for the requesting user
	Saved     bool      `gorm:"-" json:"saved"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ImageURLs returns every blob URL referenced by the portfolio.
func (p *Portfolio) ImageURLs() []string {
	urls := make([]string, 0, len(p.Gallery)+1)
	if p.ProfilePhoto != "" {
		urls = append(urls, p.ProfilePhoto)
	}
	return append(urls, p.Gallery...)
}
