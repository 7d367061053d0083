package service

import (
	"context"
	"strings"
	"time"

	"showcase/internal/blobstore"
	"showcase/internal/cache"
	"showcase/internal/models"
	"showcase/internal/notifications"
	"showcase/internal/repository"
	"showcase/internal/validation"
)

const maxDescriptionLen = 1000

// PostOptions tunes PostService behaviour from configuration.
type PostOptions struct {
	RequireApproval bool
	LocationBonus   int
	BlobTimeout     time.Duration
}

type PostService struct {
	posts      repository.PostRepository
	portfolios repository.PortfolioRepository
	users      repository.UserRepository
	ledger     repository.EngagementRepository
	comments   repository.CommentRepository
	ranker     *Ranker
	blobs      blobstore.Store
	events     Publisher
	opts       PostOptions
	isAdmin    AdminCheck
}

type CreatePostInput struct {
	UserID          uint     `json:"-"`
	Description     string   `json:"description" validate:"required,max=1000"`
	Images          []string `json:"images"`
	Image           string   `json:"image"`
	Tags            []string `json:"tags"`
	BackgroundStyle string   `json:"background_style"`
}

// UpdatePostInput holds the editable fields; nil means unchanged.
type UpdatePostInput struct {
	UserID          uint      `json:"-"`
	PostID          uint      `json:"-"`
	Description     *string   `json:"description"`
	Tags            *[]string `json:"tags"`
	BackgroundStyle *string   `json:"background_style"`
}

// LikeState is the result of a like toggle.
type LikeState struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}

func NewPostService(
	posts repository.PostRepository,
	portfolios repository.PortfolioRepository,
	users repository.UserRepository,
	ledger repository.EngagementRepository,
	comments repository.CommentRepository,
	ranker *Ranker,
	blobs blobstore.Store,
	events Publisher,
	opts PostOptions,
	isAdmin AdminCheck,
) *PostService {
	return &PostService{
		posts:      posts,
		portfolios: portfolios,
		users:      users,
		ledger:     ledger,
		comments:   comments,
		ranker:     ranker,
		blobs:      blobs,
		events:     events,
		opts:       opts,
		isAdmin:    isAdmin,
	}
}

// collectImages merges the images list and the legacy single image field.
func collectImages(images []string, single string) []string {
	all := append(append([]string{}, images...), single)
	return models.CleanTags(all)
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	in.Description = strings.TrimSpace(in.Description)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	images := collectImages(in.Images, in.Image)
	for _, img := range images {
		if err := validation.Var("images", img, "image_url"); err != nil {
			return nil, err
		}
	}

	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	post := &models.Post{
		UserID:          in.UserID,
		Description:     in.Description,
		Images:          images,
		Tags:            models.CleanTags(in.Tags),
		UserName:        user.Name,
		BackgroundStyle: in.BackgroundStyle,
		Status:          models.StatusActive,
	}
	if s.opts.RequireApproval {
		post.Status = models.StatusPending
	}

	portfolio, err := s.portfolios.GetByUserID(ctx, in.UserID)
	switch {
	case err == nil:
		post.UserImage = portfolio.ProfilePhoto
		post.UserProfession = portfolio.Profession
		if post.BackgroundStyle == "" {
			post.BackgroundStyle = portfolio.BackgroundStyle
		}
	case !models.IsCode(err, models.CodeNotFound):
		return nil, err
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	cache.InvalidateFeeds(ctx)
	return post, nil
}

// Feed returns the ranked Active feed. Anonymous pages are cached.
func (s *PostService) Feed(ctx context.Context, req models.PageRequest, viewerID uint) (*models.Page[*models.Post], error) {
	req, _, _ = pageOf(req)
	src := postSource{repo: s.posts, filter: repository.PostFilter{Status: models.StatusActive}, bonus: s.opts.LocationBonus}
	rank := func() (*models.Page[*models.Post], error) {
		return RankFeed[*models.Post](ctx, s.ranker, src, req, viewerID)
	}

	if viewerID != 0 {
		page, err := rank()
		if err != nil {
			return nil, err
		}
		return page, s.annotate(ctx, page.Items, viewerID)
	}

	var page *models.Page[*models.Post]
	err := cache.Aside(ctx, cache.FeedKey(ctx, "posts", req.Page, req.Limit), &page, cache.FeedTTL, func() error {
		var err error
		page, err = rank()
		return err
	})
	return page, err
}

func (s *PostService) annotate(ctx context.Context, posts []*models.Post, viewerID uint) error {
	if viewerID == 0 || len(posts) == 0 {
		return nil
	}
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	liked, err := s.ledger.ActiveParentIDs(ctx, repository.KindPostLike, viewerID, ids)
	if err != nil {
		return err
	}
	saved, err := s.ledger.ActiveParentIDs(ctx, repository.KindSavedPost, viewerID, ids)
	if err != nil {
		return err
	}
	for _, p := range posts {
		p.Liked = liked[p.ID]
		p.Saved = saved[p.ID]
	}
	return nil
}

// UserPosts lists ownerID's posts, pinned first. Only the owner sees
// non-Active posts.
func (s *PostService) UserPosts(ctx context.Context, ownerID, viewerID uint, req models.PageRequest) (*models.Page[*models.Post], error) {
	req, offset, limit := pageOf(req)
	posts, total, err := s.posts.ListByUser(ctx, ownerID, viewerID != ownerID, offset, limit)
	if err != nil {
		return nil, err
	}
	if err := s.annotate(ctx, posts, viewerID); err != nil {
		return nil, err
	}
	return models.NewPage(posts, total, req.Page, limit), nil
}

func (s *PostService) MyPosts(ctx context.Context, userID uint, req models.PageRequest) (*models.Page[*models.Post], error) {
	return s.UserPosts(ctx, userID, userID, req)
}

// SavedPosts lists the user's bookmarks, most recently saved first.
func (s *PostService) SavedPosts(ctx context.Context, userID uint, req models.PageRequest) (*models.Page[*models.Post], error) {
	req, offset, limit := pageOf(req)
	ids, total, err := s.ledger.ParentIDsByUser(ctx, repository.KindSavedPost, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	found, err := s.posts.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	posts := orderByIDs(ids, found, func(p *models.Post) uint { return p.ID })
	if err := s.annotate(ctx, posts, userID); err != nil {
		return nil, err
	}
	return models.NewPage(posts, total, req.Page, limit), nil
}

func orderByIDs[T any](ids []uint, items []T, id func(T) uint) []T {
	byID := make(map[uint]T, len(items))
	for _, it := range items {
		byID[id(it)] = it
	}
	out := make([]T, 0, len(ids))
	for _, i := range ids {
		if it, ok := byID[i]; ok {
			out = append(out, it)
		}
	}
	return out
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.isAdmin, in.UserID, post.UserID, "You can only update your own posts"); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		if d == "" {
			return nil, models.NewValidationError("description is required")
		}
		if len(d) > maxDescriptionLen {
			return nil, models.NewValidationError("description must be at most 1000 characters")
		}
		updates["description"] = d
	}
	if in.Tags != nil {
		updates["tags"] = models.StringList(models.CleanTags(*in.Tags))
	}
	if in.BackgroundStyle != nil {
		updates["background_style"] = strings.TrimSpace(*in.BackgroundStyle)
	}
	if len(updates) == 0 {
		return post, nil
	}

	if err := s.posts.Update(ctx, post.ID, updates); err != nil {
		return nil, err
	}
	cache.InvalidateFeeds(ctx)
	return s.posts.GetByID(ctx, post.ID)
}

// DeletePost removes the post with its comments and ledger rows, then
// destroys its images on a best-effort basis.
func (s *PostService) DeletePost(ctx context.Context, actorID, postID uint) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if err := authorize(ctx, s.isAdmin, actorID, post.UserID, "You can only delete your own posts"); err != nil {
		return err
	}

	ids := []uint{post.ID}
	if err := s.comments.DeleteByPosts(ctx, ids); err != nil {
		return err
	}
	for _, kind := range []repository.LedgerKind{repository.KindPostLike, repository.KindSavedPost} {
		if err := s.ledger.DeleteForParents(ctx, kind, ids); err != nil {
			return err
		}
	}
	if err := s.posts.Delete(ctx, post.ID); err != nil {
		return err
	}
	blobstore.DestroyURLs(ctx, s.blobs, post.Images, s.opts.BlobTimeout)
	cache.InvalidateFeeds(ctx)
	return nil
}

func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (*LikeState, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	res, err := s.ledger.Toggle(ctx, repository.KindPostLike, postID, userID)
	if err != nil {
		return nil, err
	}
	if res.Active && !res.Raced {
		notify(ctx, s.events, post.UserID, notifications.Event{
			Type: notifications.EventPostLiked, ActorID: userID, SubjectID: postID,
		})
	}
	post, err = s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	return &LikeState{Liked: res.Active, LikesCount: post.LikesCount}, nil
}

// ToggleSave bookmarks or un-bookmarks the post and reports the new state.
func (s *PostService) ToggleSave(ctx context.Context, userID, postID uint) (bool, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return false, err
	}
	res, err := s.ledger.Toggle(ctx, repository.KindSavedPost, postID, userID)
	if err != nil {
		return false, err
	}
	return res.Active, nil
}

// TogglePin flips is_pinned. Only the author may pin.
func (s *PostService) TogglePin(ctx context.Context, userID, postID uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, models.NewForbiddenError("You can only pin your own posts")
	}
	if err := s.posts.Update(ctx, post.ID, map[string]any{"is_pinned": !post.IsPinned}); err != nil {
		return nil, err
	}
	post.IsPinned = !post.IsPinned
	return post, nil
}

func (s *PostService) Likers(ctx context.Context, postID uint, req models.PageRequest) (*models.Page[models.Liker], error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	req, offset, limit := pageOf(req)
	likers, total, err := s.ledger.Likers(ctx, postID, offset, limit)
	if err != nil {
		return nil, err
	}
	return models.NewPage(likers, total, req.Page, limit), nil
}
