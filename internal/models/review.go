package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// Review relations.
const (
	RelationWorkedWith  = "worked_with"
	RelationWorkDoneFor = "work_done_for"
)

// ReviewAnswer is one answered review question.
type ReviewAnswer struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"max=500"`
}

// ReviewAnswers is stored as JSON text.
type ReviewAnswers []ReviewAnswer

// Value implements driver.Valuer.
func (a ReviewAnswers) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.MarshalNoEscape([]ReviewAnswer(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (a *ReviewAnswers) Scan(src any) error {
	raw, err := columnBytes(src)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		*a = ReviewAnswers{}
		return nil
	}
	var out []ReviewAnswer
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan review answers: %w", err)
	}
	*a = out
	return nil
}

// Review is one user's rating of another. One per (reviewer, reviewed user).
type Review struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	ReviewerID     uint          `gorm:"not null;uniqueIndex:idx_reviews_pair" json:"reviewer_id"`
	ReviewedUserID uint          `gorm:"not null;uniqueIndex:idx_reviews_pair;index" json:"reviewed_user_id"`
	Relation       string        `gorm:"not null" json:"relation"`
	Rating         int           `gorm:"not null" json:"rating"`
	ReferToOthers  bool          `json:"refer_to_others"`
	Questions      ReviewAnswers `gorm:"type:text" json:"questions"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`

	// Resolved by live lookup on read
	ReviewerName  string `gorm:"-" json:"reviewer_name"`
	ReviewerPhoto string `gorm:"-" json:"reviewer_photo"`
}

// RatingStats is the reputation aggregate of a user.
type RatingStats struct {
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int     `json:"total_reviews"`
	ProfilePhoto  string  `json:"profile_photo,omitempty"`
}
