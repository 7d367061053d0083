package service

import (
	"context"
	"strings"

	"showcase/internal/models"
	"showcase/internal/notifications"
	"showcase/internal/repository"
	"showcase/internal/validation"
)

type CommentService struct {
	comments   repository.CommentRepository
	posts      repository.PostRepository
	users      repository.UserRepository
	portfolios repository.PortfolioRepository
	ledger     repository.EngagementRepository
	events     Publisher
	isAdmin    AdminCheck
}

type CreateCommentInput struct {
	UserID   uint   `json:"-"`
	PostID   uint   `json:"-"`
	ParentID *uint  `json:"parent_id"`
	Text     string `json:"text" validate:"required,max=500"`
}

func NewCommentService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	users repository.UserRepository,
	portfolios repository.PortfolioRepository,
	ledger repository.EngagementRepository,
	events Publisher,
	isAdmin AdminCheck,
) *CommentService {
	return &CommentService{
		comments:   comments,
		posts:      posts,
		users:      users,
		portfolios: portfolios,
		ledger:     ledger,
		events:     events,
		isAdmin:    isAdmin,
	}
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	in.Text = strings.TrimSpace(in.Text)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	post, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	var parent *models.Comment
	if in.ParentID != nil {
		parent, err = s.comments.GetByID(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != post.ID {
			return nil, models.NewValidationError("parent comment belongs to a different post")
		}
	}

	comment := &models.Comment{
		PostID:   post.ID,
		UserID:   in.UserID,
		ParentID: in.ParentID,
		Text:     in.Text,
		Replies:  []*models.Comment{},
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	if err := s.decorate(ctx, []*models.Comment{comment}, in.UserID); err != nil {
		return nil, err
	}

	notify(ctx, s.events, post.UserID, notifications.Event{
		Type: notifications.EventPostCommented, ActorID: in.UserID, SubjectID: post.ID,
	})
	if parent != nil {
		notify(ctx, s.events, parent.UserID, notifications.Event{
			Type: notifications.EventCommentReplied, ActorID: in.UserID, SubjectID: parent.ID,
		})
	}
	return comment, nil
}

// decorate fills author names, live portfolio photos and the viewer's liked
// flags with one lookup each.
func (s *CommentService) decorate(ctx context.Context, comments []*models.Comment, viewerID uint) error {
	if len(comments) == 0 {
		return nil
	}
	userIDs := make([]uint, 0, len(comments))
	ids := make([]uint, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
		userIDs = append(userIDs, c.UserID)
	}
	names, err := s.users.NamesByIDs(ctx, userIDs)
	if err != nil {
		return err
	}
	photos, err := s.portfolios.PhotosByUserIDs(ctx, userIDs)
	if err != nil {
		return err
	}
	liked, err := s.ledger.ActiveParentIDs(ctx, repository.KindCommentLike, viewerID, ids)
	if err != nil {
		return err
	}
	for _, c := range comments {
		c.UserName = names[c.UserID]
		c.ProfilePhoto = photos[c.UserID]
		c.Liked = liked[c.ID]
	}
	return nil
}

// CommentTree returns the post's comments as a forest, newest first at every
// level.
func (s *CommentService) CommentTree(ctx context.Context, postID, viewerID uint) ([]*models.Comment, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	flat, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.decorate(ctx, flat, viewerID); err != nil {
		return nil, err
	}
	return buildTree(flat), nil
}

func buildTree(flat []*models.Comment) []*models.Comment {
	byID := make(map[uint]*models.Comment, len(flat))
	for _, c := range flat {
		c.Replies = []*models.Comment{}
		byID[c.ID] = c
	}
	roots := []*models.Comment{}
	for _, c := range flat {
		if c.ParentID != nil {
			if parent, ok := byID[*c.ParentID]; ok {
				parent.Replies = append(parent.Replies, c)
				continue
			}
		}
		roots = append(roots, c)
	}
	return roots
}

func (s *CommentService) ToggleLike(ctx context.Context, userID, commentID uint) (*LikeState, error) {
	if _, err := s.comments.GetByID(ctx, commentID); err != nil {
		return nil, err
	}
	res, err := s.ledger.Toggle(ctx, repository.KindCommentLike, commentID, userID)
	if err != nil {
		return nil, err
	}
	c, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	return &LikeState{Liked: res.Active, LikesCount: c.LikesCount}, nil
}

// DeleteComment removes the comment and its replies. The comment author, the
// post owner and admins may delete. It returns how many comments were removed.
func (s *CommentService) DeleteComment(ctx context.Context, actorID, commentID uint) (int64, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return 0, err
	}
	if actorID != comment.UserID {
		post, err := s.posts.GetByID(ctx, comment.PostID)
		if err != nil {
			return 0, err
		}
		if err := authorize(ctx, s.isAdmin, actorID, post.UserID, "You can only delete your own comments"); err != nil {
			return 0, err
		}
	}
	return s.comments.DeleteSubtree(ctx, comment.ID)
}
