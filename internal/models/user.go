// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User is an account. AverageRating and TotalReviews are only written by
// review creation.
type User struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"not null" json:"name"`
	Phone         string     `gorm:"uniqueIndex;not null" json:"phone"`
	Email         string     `json:"email,omitempty"`
	DateOfBirth   *time.Time `json:"date_of_birth,omitempty"`
	CountryCode   string     `gorm:"default:'+1'" json:"country_code"`
	Password      string     `gorm:"not null" json:"-"`
	AverageRating float64    `gorm:"not null;default:0" json:"average_rating"`
	TotalReviews  int        `gorm:"not null;default:0" json:"total_reviews"`
	IsAdmin       bool       `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
