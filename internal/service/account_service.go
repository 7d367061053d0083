package service

import (
	"context"
	"time"

	"showcase/internal/blobstore"
	"showcase/internal/cache"
	"showcase/internal/models"
	"showcase/internal/observability"
	"showcase/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// AccountService removes a user and everything they own.
type AccountService struct {
	users       repository.UserRepository
	portfolios  repository.PortfolioRepository
	posts       repository.PostRepository
	listings    repository.ListingRepository
	prefs       repository.PreferenceRepository
	comments    repository.CommentRepository
	ledger      repository.EngagementRepository
	blobs       blobstore.Store
	blobTimeout time.Duration
}

func NewAccountService(
	users repository.UserRepository,
	portfolios repository.PortfolioRepository,
	posts repository.PostRepository,
	listings repository.ListingRepository,
	prefs repository.PreferenceRepository,
	comments repository.CommentRepository,
	ledger repository.EngagementRepository,
	blobs blobstore.Store,
	blobTimeout time.Duration,
) *AccountService {
	return &AccountService{
		users:       users,
		portfolios:  portfolios,
		posts:       posts,
		listings:    listings,
		prefs:       prefs,
		comments:    comments,
		ledger:      ledger,
		blobs:       blobs,
		blobTimeout: blobTimeout,
	}
}

// DeleteAccount removes the user's engagement, comments, posts, listings,
// portfolio, preference and the user row, then destroys their blobs.
// Reviews the user wrote or received are kept.
func (s *AccountService) DeleteAccount(ctx context.Context, userID uint) (err error) {
	ctx, span := observability.Start(ctx, "account.delete", attribute.Int64("user_id", int64(userID)))
	defer func() {
		span.SetError(err)
		span.End()
	}()

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}

	posts, err := s.posts.ListAllByUser(ctx, userID)
	if err != nil {
		return err
	}
	listings, err := s.listings.ListAllByUser(ctx, userID)
	if err != nil {
		return err
	}
	portfolio, err := s.portfolios.GetByUserID(ctx, userID)
	if err != nil && !models.IsCode(err, models.CodeNotFound) {
		return err
	}

	var blobs []string
	for _, p := range posts {
		blobs = append(blobs, p.Images...)
	}
	for _, l := range listings {
		blobs = append(blobs, l.Images...)
	}

	if err := s.ledger.RemoveUser(ctx, userID); err != nil {
		return err
	}

	roots, err := s.comments.RootIDsByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, id := range roots {
		// Roots nested under an earlier root through another user's reply are
		// already gone.
		if _, err := s.comments.DeleteSubtree(ctx, id); err != nil && !models.IsCode(err, models.CodeNotFound) {
			return err
		}
	}

	postIDs := make([]uint, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}
	if err := s.comments.DeleteByPosts(ctx, postIDs); err != nil {
		return err
	}
	for _, kind := range []repository.LedgerKind{repository.KindPostLike, repository.KindSavedPost} {
		if err := s.ledger.DeleteForParents(ctx, kind, postIDs); err != nil {
			return err
		}
	}
	if err := s.posts.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	if err := s.listings.DeleteByUser(ctx, userID); err != nil {
		return err
	}

	if portfolio != nil {
		blobs = append(blobs, portfolio.ImageURLs()...)
		if err := s.ledger.DeleteForParents(ctx, repository.KindSavedPortfolio, []uint{portfolio.ID}); err != nil {
			return err
		}
		if err := s.portfolios.DeleteByUserID(ctx, userID); err != nil {
			return err
		}
	}
	if err := s.prefs.DeleteByUserID(ctx, userID); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	blobstore.DestroyURLs(ctx, s.blobs, blobs, s.blobTimeout)
	cache.InvalidateFeeds(ctx)
	cache.InvalidateRating(ctx, userID)
	return nil
}
