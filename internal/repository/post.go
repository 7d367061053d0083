package repository

import (
	"context"

	"showcase/internal/models"

	"gorm.io/gorm"
)

// PostFilter is the base filter of post queries.
type PostFilter struct {
	Status string
	UserID uint
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Update(ctx context.Context, id uint, updates map[string]any) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context, f PostFilter) (int64, error)
	ListLatest(ctx context.Context, f PostFilter, offset, limit int) ([]*models.Post, error)
	ListAll(ctx context.Context, f PostFilter) ([]*models.Post, error)
	// ListByUser orders pinned posts first, then newest.
	ListByUser(ctx context.Context, userID uint, activeOnly bool, offset, limit int) ([]*models.Post, int64, error)
	ListByIDs(ctx context.Context, ids []uint) ([]*models.Post, error)
	ListAllByUser(ctx context.Context, userID uint) ([]*models.Post, error)
	SetStatus(ctx context.Context, id uint, status, reason string) error
	DeleteByUser(ctx context.Context, userID uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, notFound(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) Update(ctx context.Context, id uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Post{ID: id}).Updates(updates).Error
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Post{}, id).Error
}

func (r *postRepository) filtered(ctx context.Context, f PostFilter) *gorm.DB {
	q := readDB(r.db).WithContext(ctx).Model(&models.Post{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	return q
}

func (r *postRepository) Count(ctx context.Context, f PostFilter) (int64, error) {
	var total int64
	err := r.filtered(ctx, f).Count(&total).Error
	return total, err
}

func (r *postRepository) ListLatest(ctx context.Context, f PostFilter, offset, limit int) ([]*models.Post, error) {
	offset, limit = clampPage(offset, limit)
	var posts []*models.Post
	err := r.filtered(ctx, f).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) ListAll(ctx context.Context, f PostFilter) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.filtered(ctx, f).Order("created_at DESC, id DESC").Find(&posts).Error
	return posts, err
}

func (r *postRepository) ListByUser(ctx context.Context, userID uint, activeOnly bool, offset, limit int) ([]*models.Post, int64, error) {
	offset, limit = clampPage(offset, limit)
	f := PostFilter{UserID: userID}
	if activeOnly {
		f.Status = models.StatusActive
	}

	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var posts []*models.Post
	err := r.filtered(ctx, f).
		Order("is_pinned DESC, created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	return posts, total, err
}

func (r *postRepository) ListByIDs(ctx context.Context, ids []uint) ([]*models.Post, error) {
	if len(ids) == 0 {
		return []*models.Post{}, nil
	}
	var posts []*models.Post
	err := readDB(r.db).WithContext(ctx).Where("id IN ?", ids).Find(&posts).Error
	return posts, err
}

func (r *postRepository) ListAllByUser(ctx context.Context, userID uint) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&posts).Error
	return posts, err
}

func (r *postRepository) SetStatus(ctx context.Context, id uint, status, reason string) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).
		Updates(map[string]any{"status": status, "rejection_reason": reason})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

func (r *postRepository) DeleteByUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Post{}).Error
}
