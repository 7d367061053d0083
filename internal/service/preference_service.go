package service

import (
	"context"
	"strings"

	"showcase/internal/models"
	"showcase/internal/repository"
)

// PreferenceService reads and updates feed preferences.
type PreferenceService struct {
	repo repository.PreferenceRepository
}

// UpdatePreferenceInput carries only the fields the client sent.
type UpdatePreferenceInput struct {
	FeedType  *string   `json:"feed_type"`
	Locations *[]string `json:"locations"`
	Skills    *[]string `json:"skills"`
}

func NewPreferenceService(repo repository.PreferenceRepository) *PreferenceService {
	return &PreferenceService{repo: repo}
}

// Get returns the user's preference, creating the default row on first read.
func (s *PreferenceService) Get(ctx context.Context, userID uint) (*models.Preference, error) {
	return s.repo.GetOrCreate(ctx, userID)
}

func (s *PreferenceService) Update(ctx context.Context, userID uint, in UpdatePreferenceInput) (*models.Preference, error) {
	var u repository.PreferenceUpdate
	if in.FeedType != nil {
		ft := strings.ToLower(strings.TrimSpace(*in.FeedType))
		if ft != models.FeedTypeLatest && ft != models.FeedTypeRecommended {
			return nil, models.NewValidationError("feed_type must be one of: recommended, latest")
		}
		u.FeedType = &ft
	}
	if in.Locations != nil {
		u.Locations, u.SetLocations = *in.Locations, true
	}
	if in.Skills != nil {
		u.Skills, u.SetSkills = *in.Skills, true
	}
	return s.repo.Upsert(ctx, userID, u)
}
