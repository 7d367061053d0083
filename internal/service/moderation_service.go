package service

import (
	"context"
	"strings"

	"showcase/internal/cache"
	"showcase/internal/models"
	"showcase/internal/notifications"
	"showcase/internal/repository"
)

// ModerationService lets admins review Pending posts and listings.
type ModerationService struct {
	posts    repository.PostRepository
	listings repository.ListingRepository
	events   Publisher
}

// StatusDecision is an admin's verdict on one item.
type StatusDecision struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func NewModerationService(posts repository.PostRepository, listings repository.ListingRepository, events Publisher) *ModerationService {
	return &ModerationService{posts: posts, listings: listings, events: events}
}

func (d StatusDecision) validate() (StatusDecision, error) {
	d.Reason = strings.TrimSpace(d.Reason)
	switch d.Status {
	case models.StatusActive:
		d.Reason = ""
	case models.StatusRejected:
		if d.Reason == "" {
			return d, models.NewValidationError("reason is required when rejecting")
		}
	default:
		return d, models.NewValidationError("status must be one of: Active, Rejected")
	}
	return d, nil
}

func (s *ModerationService) PendingPosts(ctx context.Context, req models.PageRequest) (*models.Page[*models.Post], error) {
	req, offset, limit := pageOf(req)
	f := repository.PostFilter{Status: models.StatusPending}
	total, err := s.posts.Count(ctx, f)
	if err != nil {
		return nil, err
	}
	items, err := s.posts.ListLatest(ctx, f, offset, limit)
	if err != nil {
		return nil, err
	}
	return models.NewPage(items, total, req.Page, limit), nil
}

func (s *ModerationService) PendingListings(ctx context.Context, req models.PageRequest) (*models.Page[*models.Listing], error) {
	req, offset, limit := pageOf(req)
	items, total, err := s.listings.List(ctx, repository.ListingFilter{Status: models.StatusPending}, offset, limit)
	if err != nil {
		return nil, err
	}
	return models.NewPage(items, total, req.Page, limit), nil
}

func (s *ModerationService) SetPostStatus(ctx context.Context, id uint, d StatusDecision) (*models.Post, error) {
	d, err := d.validate()
	if err != nil {
		return nil, err
	}
	if err := s.posts.SetStatus(ctx, id, d.Status, d.Reason); err != nil {
		return nil, err
	}
	cache.InvalidateFeeds(ctx)
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	notify(ctx, s.events, post.UserID, notifications.Event{
		Type: notifications.EventPostModerated, SubjectID: post.ID, Detail: d.Status,
	})
	return post, nil
}

func (s *ModerationService) SetListingStatus(ctx context.Context, id uint, d StatusDecision) (*models.Listing, error) {
	d, err := d.validate()
	if err != nil {
		return nil, err
	}
	if err := s.listings.SetStatus(ctx, id, d.Status, d.Reason); err != nil {
		return nil, err
	}
	return s.listings.GetByID(ctx, id)
}
