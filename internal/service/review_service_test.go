package service

import (
	"context"
	"testing"

	"showcase/internal/models"
	"showcase/internal/repository"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contendedUsers loses the first n rating swaps.
type contendedUsers struct {
	repository.UserRepository
	lose  int
	calls int
}

func (u *contendedUsers) CompareAndSetRating(ctx context.Context, id uint, average float64, total, expectedTotal int) (bool, error) {
	u.calls++
	if u.calls <= u.lose {
		return false, nil
	}
	return u.UserRepository.CompareAndSetRating(ctx, id, average, total, expectedTotal)
}

func review(reviewer, reviewed uint, rating int) CreateReviewInput {
	return CreateReviewInput{
		ReviewerID:     reviewer,
		ReviewedUserID: reviewed,
		Relation:       models.RelationWorkedWith,
		Rating:         rating,
	}
}

func TestCreateReview_FoldsRating(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	target := e.fx.User("target")
	a := e.fx.User("a")
	b := e.fx.User("b")
	svc := e.reviewService()

	_, err := svc.CreateReview(ctx, review(a.ID, target.ID, 4))
	require.NoError(t, err)
	stats, err := svc.Stats(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, stats.AverageRating)
	assert.Equal(t, 1, stats.TotalReviews)

	_, err = svc.CreateReview(ctx, review(b.ID, target.ID, 5))
	require.NoError(t, err)
	stats, err = svc.Stats(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.5, stats.AverageRating)
	assert.Equal(t, 2, stats.TotalReviews)

	_, err = svc.CreateReview(ctx, review(a.ID, target.ID, 1))
	assertCode(t, err, models.CodeConflict)
	stats, err = svc.Stats(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalReviews)
}

func TestCreateReview_Rejections(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.fx.User("u")
	other := e.fx.User("other")
	svc := e.reviewService()

	_, err := svc.CreateReview(ctx, review(u.ID, u.ID, 5))
	assertCode(t, err, models.CodeValidation)

	_, err = svc.CreateReview(ctx, review(u.ID, other.ID, 6))
	assertCode(t, err, models.CodeValidation)

	bad := review(u.ID, other.ID, 3)
	bad.Relation = "friends"
	_, err = svc.CreateReview(ctx, bad)
	assertCode(t, err, models.CodeValidation)

	_, err = svc.CreateReview(ctx, review(u.ID, 9999, 3))
	assertCode(t, err, models.CodeNotFound)
}

func TestCreateReview_RetriesContendedAggregate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	target := e.fx.User("target")
	reviewer := e.fx.User("reviewer")

	users := &contendedUsers{UserRepository: e.users, lose: 2}
	svc := NewReviewService(e.reviews, users, e.portfolios, nil)
	svc.newBackOff = func() backoff.BackOff { return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 5) }

	_, err := svc.CreateReview(ctx, review(reviewer.ID, target.ID, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, users.calls)

	got, err := e.users.GetByID(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got.AverageRating)
	assert.Equal(t, 1, got.TotalReviews)
}

func TestCreateReview_ExhaustedRetriesStillStoresReview(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	target := e.fx.User("target")
	reviewer := e.fx.User("reviewer")

	users := &contendedUsers{UserRepository: e.users, lose: 100}
	svc := NewReviewService(e.reviews, users, e.portfolios, nil)
	svc.newBackOff = func() backoff.BackOff { return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2) }

	created, err := svc.CreateReview(ctx, review(reviewer.ID, target.ID, 5))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, 3, users.calls)
}

func TestListReviews_ResolvesReviewers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	target := e.fx.User("target")
	kept := e.fx.User("Kept")
	e.fx.Portfolio(kept.ID, func(p *models.Portfolio) { p.ProfilePhoto = "https://img.test/k.jpg" })
	gone := e.fx.User("Gone")
	svc := e.reviewService()

	_, err := svc.CreateReview(ctx, review(kept.ID, target.ID, 2))
	require.NoError(t, err)
	_, err = svc.CreateReview(ctx, review(gone.ID, target.ID, 4))
	require.NoError(t, err)
	require.NoError(t, e.users.Delete(ctx, gone.ID))

	list, err := svc.ListReviews(ctx, target.ID, models.PageRequest{})
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, int64(2), list.Total)
	assert.Equal(t, 3.0, list.Stats.AverageRating)

	byReviewer := map[uint]models.Review{}
	for _, r := range list.Items {
		byReviewer[r.ReviewerID] = r
	}
	assert.Equal(t, "Kept", byReviewer[kept.ID].ReviewerName)
	assert.Equal(t, "https://img.test/k.jpg", byReviewer[kept.ID].ReviewerPhoto)
	assert.Equal(t, UnknownReviewer, byReviewer[gone.ID].ReviewerName)

	_, err = svc.ListReviews(ctx, 9999, models.PageRequest{})
	assertCode(t, err, models.CodeNotFound)
}

func TestRoundRating(t *testing.T) {
	assert.Equal(t, 4.33, roundRating(13.0/3))
	assert.Equal(t, 4.67, roundRating(14.0/3))
	assert.Equal(t, 5.0, roundRating(5))
}
