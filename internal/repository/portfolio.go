package repository

import (
	"context"
	"strings"

	"showcase/internal/database"
	"showcase/internal/models"

	"gorm.io/gorm"
)

// PortfolioFilter narrows portfolio search. Empty fields do not filter.
type PortfolioFilter struct {
	Skill         string
	Location      string
	Profession    string
	ExcludeUserID uint
}

// PortfolioRepository defines persistence operations for portfolios.
type PortfolioRepository interface {
	Create(ctx context.Context, p *models.Portfolio) error
	GetByID(ctx context.Context, id uint) (*models.Portfolio, error)
	GetByUserID(ctx context.Context, userID uint) (*models.Portfolio, error)
	Update(ctx context.Context, id uint, updates map[string]any) error
	Count(ctx context.Context, f PortfolioFilter) (int64, error)
	ListLatest(ctx context.Context, f PortfolioFilter, offset, limit int) ([]*models.Portfolio, error)
	ListAll(ctx context.Context, f PortfolioFilter) ([]*models.Portfolio, error)
	ListByIDs(ctx context.Context, ids []uint) ([]*models.Portfolio, error)
	PhotosByUserIDs(ctx context.Context, userIDs []uint) (map[uint]string, error)
	DeleteByUserID(ctx context.Context, userID uint) error
}

type portfolioRepository struct {
	db *gorm.DB
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(db *gorm.DB) PortfolioRepository {
	return &portfolioRepository{db: db}
}

func (r *portfolioRepository) Create(ctx context.Context, p *models.Portfolio) error {
	err := r.db.WithContext(ctx).Create(p).Error
	if database.IsDuplicateKey(err) {
		return models.NewConflictError("Portfolio already exists")
	}
	return err
}

func (r *portfolioRepository) GetByID(ctx context.Context, id uint) (*models.Portfolio, error) {
	var p models.Portfolio
	if err := readDB(r.db).WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err, "Portfolio", id)
	}
	return &p, nil
}

func (r *portfolioRepository) GetByUserID(ctx context.Context, userID uint) (*models.Portfolio, error) {
	var p models.Portfolio
	if err := readDB(r.db).WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, notFound(err, "Portfolio for user", userID)
	}
	return &p, nil
}

func (r *portfolioRepository) Update(ctx context.Context, id uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Portfolio{ID: id}).Updates(updates).Error
}

// filtered applies the search filter. The fuzzy skill match runs against
// each stored skill on its own.
func (r *portfolioRepository) filtered(ctx context.Context, f PortfolioFilter) *gorm.DB {
	db := readDB(r.db)
	q := db.WithContext(ctx).Model(&models.Portfolio{})
	if s := strings.TrimSpace(f.Skill); s != "" {
		q = q.Where(anyElementLike(db, "skills"), FuzzyPattern(s))
	}
	if s := strings.TrimSpace(f.Location); s != "" {
		q = q.Where(ilike("location"), ContainsPattern(s))
	}
	if s := strings.TrimSpace(f.Profession); s != "" {
		q = q.Where(ilike("profession"), ContainsPattern(s))
	}
	if f.ExcludeUserID != 0 {
		q = q.Where("user_id <> ?", f.ExcludeUserID)
	}
	return q
}

func (r *portfolioRepository) Count(ctx context.Context, f PortfolioFilter) (int64, error) {
	var total int64
	err := r.filtered(ctx, f).Count(&total).Error
	return total, err
}

func (r *portfolioRepository) ListLatest(ctx context.Context, f PortfolioFilter, offset, limit int) ([]*models.Portfolio, error) {
	offset, limit = clampPage(offset, limit)
	var out []*models.Portfolio
	err := r.filtered(ctx, f).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *portfolioRepository) ListAll(ctx context.Context, f PortfolioFilter) ([]*models.Portfolio, error) {
	var out []*models.Portfolio
	err := r.filtered(ctx, f).Order("created_at DESC, id DESC").Find(&out).Error
	return out, err
}

func (r *portfolioRepository) ListByIDs(ctx context.Context, ids []uint) ([]*models.Portfolio, error) {
	if len(ids) == 0 {
		return []*models.Portfolio{}, nil
	}
	var out []*models.Portfolio
	err := readDB(r.db).WithContext(ctx).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

func (r *portfolioRepository) PhotosByUserIDs(ctx context.Context, userIDs []uint) (map[uint]string, error) {
	out := make(map[uint]string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		UserID       uint
		ProfilePhoto string
	}
	if err := readDB(r.db).WithContext(ctx).Model(&models.Portfolio{}).
		Select("user_id, COALESCE(profile_photo, '') AS profile_photo").
		Where("user_id IN ?", userIDs).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.UserID] = row.ProfilePhoto
	}
	return out, nil
}

func (r *portfolioRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Portfolio{}).Error
}
