package repository

import (
	"context"

	"showcase/internal/models"
	"showcase/internal/observability"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	// Create stores the comment and bumps its post's comments_count.
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error)
	// DeleteSubtree removes the comment, all of its descendants and their
	// likes, and returns how many comments were deleted.
	DeleteSubtree(ctx context.Context, rootID uint) (int64, error)
	DeleteByPosts(ctx context.Context, postIDs []uint) error
	RootIDsByUser(ctx context.Context, userID uint) ([]uint, error)
	RepairCommentCounts(ctx context.Context) (int64, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", comment.PostID).
		UpdateColumn("comments_count", gorm.Expr("comments_count + ?", 1)).Error
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, notFound(err, "Comment", id)
	}
	return &comment, nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	err := readDB(r.db).WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at DESC, id DESC").
		Find(&comments).Error
	return comments, err
}

// collectSubtree walks the reply tree breadth first, one query per level.
func (r *commentRepository) collectSubtree(ctx context.Context, rootID uint) ([]uint, error) {
	ids := []uint{rootID}
	frontier := []uint{rootID}
	for len(frontier) > 0 {
		var next []uint
		if err := r.db.WithContext(ctx).Model(&models.Comment{}).
			Where("parent_id IN ?", frontier).
			Pluck("id", &next).Error; err != nil {
			return nil, err
		}
		ids = append(ids, next...)
		frontier = next
	}
	return ids, nil
}

func (r *commentRepository) DeleteSubtree(ctx context.Context, rootID uint) (int64, error) {
	root, err := r.GetByID(ctx, rootID)
	if err != nil {
		return 0, err
	}
	ids, err := r.collectSubtree(ctx, rootID)
	if err != nil {
		return 0, err
	}

	if err := r.db.WithContext(ctx).Where("comment_id IN ?", ids).Delete(&models.CommentLike{}).Error; err != nil {
		return 0, err
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Comment{})
	if res.Error != nil {
		return 0, res.Error
	}

	n := res.RowsAffected
	if n > 0 {
		err = r.db.WithContext(ctx).Model(&models.Post{}).
			Where("id = ?", root.PostID).
			UpdateColumn("comments_count",
				gorm.Expr("CASE WHEN comments_count > ? THEN comments_count - ? ELSE 0 END", n, n)).Error
	}
	return n, err
}

func (r *commentRepository) DeleteByPosts(ctx context.Context, postIDs []uint) error {
	if len(postIDs) == 0 {
		return nil
	}
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("post_id IN ?", postIDs).
		Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Where("comment_id IN ?", ids).Delete(&models.CommentLike{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Comment{}).Error
}

// RootIDsByUser returns the user's comments whose parent was not also
// written by the user, so deleting each subtree covers every comment once.
func (r *commentRepository) RootIDsByUser(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("user_id = ?", userID).
		Where("parent_id IS NULL OR parent_id NOT IN (?)",
			r.db.Model(&models.Comment{}).Select("id").Where("user_id = ?", userID)).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *commentRepository) RepairCommentCounts(ctx context.Context) (int64, error) {
	drifted, err := repairCount(ctx, r.db, "posts", "comments_count", "comments", "post_id")
	if err != nil {
		return 0, err
	}
	observability.CounterRepairs.WithLabelValues("comment_count").Add(float64(drifted))
	return drifted, nil
}
