package repository

import (
	"context"
	"errors"

	"showcase/internal/database"
	"showcase/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PreferenceUpdate carries only the fields a caller supplied.
type PreferenceUpdate struct {
	FeedType  *string
	Locations []string
	Skills    []string
	// SetLocations and SetSkills distinguish "clear the list" from "leave it".
	SetLocations bool
	SetSkills    bool
}

// PreferenceRepository stores per-user feed preferences. A preference always
// exists from the caller's point of view.
type PreferenceRepository interface {
	GetOrCreate(ctx context.Context, userID uint) (*models.Preference, error)
	Upsert(ctx context.Context, userID uint, u PreferenceUpdate) (*models.Preference, error)
	DeleteByUserID(ctx context.Context, userID uint) error
}

type preferenceRepository struct {
	db *gorm.DB
}

// NewPreferenceRepository creates a new preference repository
func NewPreferenceRepository(db *gorm.DB) PreferenceRepository {
	return &preferenceRepository{db: db}
}

func defaultPreference(userID uint) models.Preference {
	return models.Preference{
		UserID:    userID,
		FeedType:  models.FeedTypeLatest,
		Locations: models.StringList{},
		Skills:    models.StringList{},
	}
}

func (r *preferenceRepository) find(ctx context.Context, userID uint) (*models.Preference, error) {
	var p models.Preference
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *preferenceRepository) GetOrCreate(ctx context.Context, userID uint) (*models.Preference, error) {
	p, err := r.find(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := defaultPreference(userID)
	err = r.db.WithContext(ctx).Create(&created).Error
	if err == nil {
		return &created, nil
	}
	// A concurrent first read created it.
	if database.IsDuplicateKey(err) {
		return r.find(ctx, userID)
	}
	return nil, err
}

func (r *preferenceRepository) Upsert(ctx context.Context, userID uint, u PreferenceUpdate) (*models.Preference, error) {
	row := defaultPreference(userID)
	cols := []string{"updated_at"}
	if u.FeedType != nil {
		row.FeedType = *u.FeedType
		cols = append(cols, "feed_type")
	}
	if u.SetLocations {
		row.Locations = models.StringList(models.CleanTags(u.Locations))
		cols = append(cols, "locations")
	}
	if u.SetSkills {
		row.Skills = models.StringList(models.CleanTags(u.Skills))
		cols = append(cols, "skills")
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(cols),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}
	return r.find(ctx, userID)
}

func (r *preferenceRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Preference{}).Error
}
