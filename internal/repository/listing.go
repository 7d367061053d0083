package repository

import (
	"context"
	"strings"

	"showcase/internal/models"

	"gorm.io/gorm"
)

// ListingFilter narrows listing queries. Empty fields do not filter.
type ListingFilter struct {
	Status   string
	Category string
	Search   string
	UserID   uint
}

// ListingRepository defines persistence operations for marketplace listings.
type ListingRepository interface {
	Create(ctx context.Context, l *models.Listing) error
	GetByID(ctx context.Context, id uint) (*models.Listing, error)
	Update(ctx context.Context, id uint, updates map[string]any) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, f ListingFilter, offset, limit int) ([]*models.Listing, int64, error)
	ListAllByUser(ctx context.Context, userID uint) ([]*models.Listing, error)
	SetStatus(ctx context.Context, id uint, status, reason string) error
	DeleteByUser(ctx context.Context, userID uint) error
}

type listingRepository struct {
	db *gorm.DB
}

// NewListingRepository creates a new listing repository
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) Create(ctx context.Context, l *models.Listing) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *listingRepository) GetByID(ctx context.Context, id uint) (*models.Listing, error) {
	var l models.Listing
	if err := readDB(r.db).WithContext(ctx).First(&l, id).Error; err != nil {
		return nil, notFound(err, "Listing", id)
	}
	return &l, nil
}

func (r *listingRepository) Update(ctx context.Context, id uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Listing{ID: id}).Updates(updates).Error
}

func (r *listingRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Listing{}, id).Error
}

func (r *listingRepository) filtered(ctx context.Context, f ListingFilter) *gorm.DB {
	q := readDB(r.db).WithContext(ctx).Model(&models.Listing{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := ContainsPattern(s)
		q = q.Where("("+ilike("title")+" OR "+ilike("description")+")", pattern, pattern)
	}
	return q
}

func (r *listingRepository) List(ctx context.Context, f ListingFilter, offset, limit int) ([]*models.Listing, int64, error) {
	offset, limit = clampPage(offset, limit)
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []*models.Listing
	err := r.filtered(ctx, f).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, total, err
}

func (r *listingRepository) ListAllByUser(ctx context.Context, userID uint) ([]*models.Listing, error) {
	var out []*models.Listing
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&out).Error
	return out, err
}

func (r *listingRepository) SetStatus(ctx context.Context, id uint, status, reason string) error {
	res := r.db.WithContext(ctx).Model(&models.Listing{}).Where("id = ?", id).
		Updates(map[string]any{"status": status, "rejection_reason": reason})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Listing", id)
	}
	return nil
}

func (r *listingRepository) DeleteByUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Listing{}).Error
}
