package repository

import (
	"context"

	"showcase/internal/database"
	"showcase/internal/models"

	"gorm.io/gorm"
)

// ReviewRepository stores reviews. Reviews outlive the accounts that wrote
// them.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	ListForUser(ctx context.Context, reviewedUserID uint, offset, limit int) ([]models.Review, int64, error)
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository creates a new ReviewRepository.
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	err := r.db.WithContext(ctx).Create(review).Error
	if database.IsDuplicateKey(err) {
		return models.NewConflictError("You have already reviewed this user")
	}
	return err
}

func (r *reviewRepository) ListForUser(ctx context.Context, reviewedUserID uint, offset, limit int) ([]models.Review, int64, error) {
	offset, limit = clampPage(offset, limit)
	q := readDB(r.db).WithContext(ctx).Model(&models.Review{}).Where("reviewed_user_id = ?", reviewedUserID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	reviews := []models.Review{}
	err := readDB(r.db).WithContext(ctx).
		Where("reviewed_user_id = ?", reviewedUserID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&reviews).Error
	return reviews, total, err
}
