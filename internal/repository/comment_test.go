package repository

import (
	"context"
	"testing"

	"showcase/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_CreateBumpsCount(t *testing.T) {
	db, fx := setupDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	u := fx.User("u")
	post := fx.Post(u.ID, nil)
	require.NoError(t, repo.Create(ctx, &models.Comment{PostID: post.ID, UserID: u.ID, Text: "hi"}))

	var reloaded models.Post
	fx.Reload(&reloaded, post.ID)
	assert.Equal(t, 1, reloaded.CommentsCount)
}

func TestCommentRepository_DeleteSubtree(t *testing.T) {
	db, fx := setupDB(t)
	repo := NewCommentRepository(db)
	ledger := NewEngagementRepository(db)
	ctx := context.Background()

	u := fx.User("u")
	post := fx.Post(u.ID, nil)
	root := fx.Comment(post.ID, u.ID, nil)
	a := fx.Comment(post.ID, u.ID, &root.ID)
	b := fx.Comment(post.ID, u.ID, &root.ID)
	fx.Comment(post.ID, u.ID, &a.ID)
	other := fx.Comment(post.ID, u.ID, nil)

	_, err := ledger.Toggle(ctx, KindCommentLike, b.ID, u.ID)
	require.NoError(t, err)
	_, err = ledger.Toggle(ctx, KindCommentLike, other.ID, u.ID)
	require.NoError(t, err)

	n, err := repo.DeleteSubtree(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	var reloaded models.Post
	fx.Reload(&reloaded, post.ID)
	assert.Equal(t, 1, reloaded.CommentsCount)

	remaining, err := repo.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, other.ID, remaining[0].ID)

	var likes int64
	require.NoError(t, db.Model(&models.CommentLike{}).Count(&likes).Error)
	assert.Equal(t, int64(1), likes)
}

func TestCommentRepository_DeleteSubtreeMissing(t *testing.T) {
	db, _ := setupDB(t)
	repo := NewCommentRepository(db)

	_, err := repo.DeleteSubtree(context.Background(), 404)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestCommentRepository_RootIDsByUser(t *testing.T) {
	db, fx := setupDB(t)
	repo := NewCommentRepository(db)

	u := fx.User("u")
	v := fx.User("v")
	post := fx.Post(v.ID, nil)
	top := fx.Comment(post.ID, u.ID, nil)
	fx.Comment(post.ID, u.ID, &top.ID)
	theirs := fx.Comment(post.ID, v.ID, nil)
	replyToTheirs := fx.Comment(post.ID, u.ID, &theirs.ID)

	ids, err := repo.RootIDsByUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{top.ID, replyToTheirs.ID}, ids)
}

func TestCommentRepository_DeleteByPosts(t *testing.T) {
	db, fx := setupDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	u := fx.User("u")
	gone := fx.Post(u.ID, nil)
	kept := fx.Post(u.ID, nil)
	c := fx.Comment(gone.ID, u.ID, nil)
	fx.Comment(gone.ID, u.ID, &c.ID)
	fx.Comment(kept.ID, u.ID, nil)

	require.NoError(t, repo.DeleteByPosts(ctx, []uint{gone.ID}))

	var count int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCommentRepository_RepairCommentCounts(t *testing.T) {
	db, fx := setupDB(t)
	repo := NewCommentRepository(db)

	u := fx.User("u")
	post := fx.Post(u.ID, nil)
	fx.Comment(post.ID, u.ID, nil)
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", post.ID).UpdateColumn("comments_count", 5).Error)

	n, err := repo.RepairCommentCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var reloaded models.Post
	fx.Reload(&reloaded, post.ID)
	assert.Equal(t, 1, reloaded.CommentsCount)
}
