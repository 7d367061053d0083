package models

import "time"

// Listing categories, types and conditions.
const (
	ListingTypeSell   = "Sell"
	ListingTypeDonate = "Donate"
	ListingTypeFree   = "Free"

	PriceFree = "Free"
)

// Listing is a marketplace item. The author snapshot is taken at creation.
type Listing struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          uint       `gorm:"not null;index" json:"user_id"`
	Title           string     `gorm:"size:100;not null" json:"title"`
	Category        string     `gorm:"not null;index" json:"category"`
	ListingType     string     `gorm:"not null" json:"listing_type"`
	Price           string     `json:"price"`
	Description     string     `gorm:"type:text" json:"description"`
	Address         string     `json:"address"`
	ContactInfo     string     `json:"contact_info"`
	Condition       string     `json:"condition,omitempty"`
	Images          StringList `gorm:"type:text" json:"images"`
	UserImage       string     `json:"user_image"`
	UserProfession  string     `json:"user_profession"`
	UserName        string     `json:"user_name"`
	Status          string     `gorm:"not null;default:'Pending';index" json:"status"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ListingCategories is the closed set of listing categories.
var ListingCategories = []string{"Electronics", "Furniture", "Clothing", "Books", "Vehicles", "Services", "Other"}
