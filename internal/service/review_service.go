package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"showcase/internal/cache"
	"showcase/internal/middleware"
	"showcase/internal/models"
	"showcase/internal/notifications"
	"showcase/internal/repository"
	"showcase/internal/validation"

	"github.com/cenkalti/backoff/v4"
)

// UnknownReviewer stands in for reviewers whose account no longer exists.
const UnknownReviewer = "Unknown User"

var errRatingContended = errors.New("rating aggregate changed concurrently")

type ReviewService struct {
	reviews    repository.ReviewRepository
	users      repository.UserRepository
	portfolios repository.PortfolioRepository
	events     Publisher
	// newBackOff builds the retry policy of the aggregate update.
	newBackOff func() backoff.BackOff
}

type CreateReviewInput struct {
	ReviewerID     uint                  `json:"-"`
	ReviewedUserID uint                  `json:"-"`
	Relation       string                `json:"relation" validate:"required,oneof=worked_with work_done_for"`
	Rating         int                   `json:"rating" validate:"required,min=1,max=5"`
	ReferToOthers  bool                  `json:"refer_to_others"`
	Questions      []models.ReviewAnswer `json:"questions" validate:"max=20,dive"`
}

// ReviewList is a page of reviews with the reviewed user's stats.
type ReviewList struct {
	*models.Page[models.Review]
	Stats models.RatingStats `json:"stats"`
}

func NewReviewService(
	reviews repository.ReviewRepository,
	users repository.UserRepository,
	portfolios repository.PortfolioRepository,
	events Publisher,
) *ReviewService {
	return &ReviewService{
		reviews:    reviews,
		users:      users,
		portfolios: portfolios,
		events:     events,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 10 * time.Millisecond
			b.MaxInterval = 500 * time.Millisecond
			return backoff.WithMaxRetries(b, 8)
		},
	}
}

// roundRating rounds to two decimals.
func roundRating(v float64) float64 {
	return math.Round(v*100) / 100
}

// CreateReview stores the review and folds its rating into the reviewed
// user's aggregate.
func (s *ReviewService) CreateReview(ctx context.Context, in CreateReviewInput) (*models.Review, error) {
	if in.ReviewerID == in.ReviewedUserID {
		return nil, models.NewValidationError("You cannot review yourself")
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, in.ReviewedUserID); err != nil {
		return nil, err
	}

	review := &models.Review{
		ReviewerID:     in.ReviewerID,
		ReviewedUserID: in.ReviewedUserID,
		Relation:       in.Relation,
		Rating:         in.Rating,
		ReferToOthers:  in.ReferToOthers,
		Questions:      in.Questions,
	}
	if review.Questions == nil {
		review.Questions = models.ReviewAnswers{}
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}

	// The review is already stored; aggregate failures are only logged.
	if err := s.foldRating(ctx, in.ReviewedUserID, in.Rating); err != nil {
		middleware.Logger.ErrorContext(ctx, "rating aggregate update failed",
			slog.Uint64("user_id", uint64(in.ReviewedUserID)),
			slog.String("error", err.Error()),
		)
	}
	cache.InvalidateRating(ctx, in.ReviewedUserID)
	notify(ctx, s.events, in.ReviewedUserID, notifications.Event{
		Type: notifications.EventReviewReceived, ActorID: in.ReviewerID, SubjectID: review.ID,
	})
	return review, nil
}

// foldRating compare-and-swaps the aggregate on total_reviews, retrying
// with exponential backoff while other reviews land concurrently.
func (s *ReviewService) foldRating(ctx context.Context, userID uint, rating int) error {
	op := func() error {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return backoff.Permanent(err)
		}
		n := user.TotalReviews
		avg := roundRating((user.AverageRating*float64(n) + float64(rating)) / float64(n+1))
		ok, err := s.users.CompareAndSetRating(ctx, userID, avg, n+1, n)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return errRatingContended
		}
		return nil
	}
	return backoff.Retry(op, backoff.WithContext(s.newBackOff(), ctx))
}

// ListReviews returns the user's reviews, newest first, with reviewer names
// and photos resolved live.
func (s *ReviewService) ListReviews(ctx context.Context, userID uint, req models.PageRequest) (*ReviewList, error) {
	stats, err := s.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}
	req, offset, limit := pageOf(req)
	reviews, total, err := s.reviews.ListForUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}

	reviewerIDs := make([]uint, len(reviews))
	for i, r := range reviews {
		reviewerIDs[i] = r.ReviewerID
	}
	names, err := s.users.NamesByIDs(ctx, reviewerIDs)
	if err != nil {
		return nil, err
	}
	photos, err := s.portfolios.PhotosByUserIDs(ctx, reviewerIDs)
	if err != nil {
		return nil, err
	}
	for i := range reviews {
		name, ok := names[reviews[i].ReviewerID]
		if !ok {
			name = UnknownReviewer
		}
		reviews[i].ReviewerName = name
		reviews[i].ReviewerPhoto = photos[reviews[i].ReviewerID]
	}

	return &ReviewList{Page: models.NewPage(reviews, total, req.Page, limit), Stats: *stats}, nil
}

// Stats returns the cached rating aggregate of userID.
func (s *ReviewService) Stats(ctx context.Context, userID uint) (*models.RatingStats, error) {
	var stats models.RatingStats
	err := cache.Aside(ctx, cache.RatingKey(userID), &stats, cache.RatingTTL, func() error {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		photos, err := s.portfolios.PhotosByUserIDs(ctx, []uint{userID})
		if err != nil {
			return err
		}
		stats = models.RatingStats{
			AverageRating: user.AverageRating,
			TotalReviews:  user.TotalReviews,
			ProfilePhoto:  photos[userID],
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
