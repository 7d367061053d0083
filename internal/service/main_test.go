package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"showcase/internal/blobstore"
	"showcase/internal/featureflags"
	"showcase/internal/models"
	"showcase/internal/repository"
	"showcase/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// env wires every service over one private SQLite database.
type env struct {
	db *gorm.DB
	fx *testutil.Fixtures

	users      repository.UserRepository
	portfolios repository.PortfolioRepository
	posts      repository.PostRepository
	listings   repository.ListingRepository
	prefs      repository.PreferenceRepository
	ledger     repository.EngagementRepository
	comments   repository.CommentRepository
	reviews    repository.ReviewRepository
	snapshots  repository.SnapshotRepository

	blobs  *blobstore.MemoryStore
	ranker *Ranker
	admins map[uint]bool
}

func newEnv(t *testing.T) *env {
	db := testutil.NewDB(t)
	e := &env{
		db:         db,
		fx:         testutil.NewFixtures(t, db),
		users:      repository.NewUserRepository(db),
		portfolios: repository.NewPortfolioRepository(db),
		posts:      repository.NewPostRepository(db),
		listings:   repository.NewListingRepository(db),
		prefs:      repository.NewPreferenceRepository(db),
		ledger:     repository.NewEngagementRepository(db),
		comments:   repository.NewCommentRepository(db),
		reviews:    repository.NewReviewRepository(db),
		snapshots:  repository.NewSnapshotRepository(db),
		blobs:      testutil.NewBlobStore(),
		admins:     map[uint]bool{},
	}
	e.ranker = NewRanker(e.prefs, nil)
	return e
}

func (e *env) isAdmin(_ context.Context, userID uint) (bool, error) {
	return e.admins[userID], nil
}

func (e *env) postService(opts PostOptions) *PostService {
	if opts.LocationBonus == 0 {
		opts.LocationBonus = 2
	}
	return NewPostService(e.posts, e.portfolios, e.users, e.ledger, e.comments, e.ranker, e.blobs, nil, opts, e.isAdmin)
}

func (e *env) portfolioService(flags string) *PortfolioService {
	prop := NewSnapshotPropagator(e.snapshots, featureflags.NewManager(flags))
	return NewPortfolioService(e.portfolios, e.ledger, e.ranker, prop, e.blobs, time.Second, 2)
}

func (e *env) listingService() *ListingService {
	return NewListingService(e.listings, e.portfolios, e.users, e.blobs, time.Second, e.isAdmin)
}

func (e *env) commentService() *CommentService {
	return NewCommentService(e.comments, e.posts, e.users, e.portfolios, e.ledger, nil, e.isAdmin)
}

func (e *env) reviewService() *ReviewService {
	return NewReviewService(e.reviews, e.users, e.portfolios, nil)
}

func (e *env) accountService() *AccountService {
	return NewAccountService(e.users, e.portfolios, e.posts, e.listings, e.prefs, e.comments, e.ledger, e.blobs, time.Second)
}

func (e *env) recommend(t *testing.T, userID uint, locations, skills []string) {
	t.Helper()
	ft := models.FeedTypeRecommended
	_, err := e.prefs.Upsert(context.Background(), userID, repository.PreferenceUpdate{
		FeedType:     &ft,
		Locations:    locations,
		SetLocations: true,
		Skills:       skills,
		SetSkills:    true,
	})
	require.NoError(t, err)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func ids[T any](items []T, id func(T) uint) []uint {
	out := make([]uint, len(items))
	for i, it := range items {
		out[i] = id(it)
	}
	return out
}

func postID(p *models.Post) uint           { return p.ID }
func portfolioID(p *models.Portfolio) uint { return p.ID }
