package seed

import (
	"context"
	"testing"

	"showcase/internal/models"
	"showcase/internal/repository"
	"showcase/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSplitStatuses_Posts(t *testing.T) {
	counts := splitStatuses(20, postStatusShares)
	assert.Equal(t, 16, counts[models.StatusActive])
	assert.Equal(t, 3, counts[models.StatusPending])
	assert.Equal(t, 1, counts[models.StatusRejected])
}

func TestSplitStatuses_LeftoversGoFirst(t *testing.T) {
	counts := splitStatuses(7, listingStatusShares)
	sum := 0
	for _, c := range counts {
		sum += c
	}
	assert.Equal(t, 7, sum)
	// floor(4.2)=4, floor(1.4)=1, floor(0.7)=0 twice, leftover 2
	assert.Equal(t, 6, counts[models.StatusActive])
	assert.Equal(t, 1, counts[models.StatusPending])
}

func TestExpandStatuses_Length(t *testing.T) {
	assert.Len(t, expandStatuses(13, postStatusShares), 13)
	assert.Empty(t, expandStatuses(0, postStatusShares))
}

func TestApplyPreset(t *testing.T) {
	opts, err := ApplyPreset("small", Options{DryRun: true, Seed: 7})
	require.NoError(t, err)
	assert.Equal(t, 10, opts.Users)
	assert.True(t, opts.DryRun)
	assert.Equal(t, int64(7), opts.Seed)

	_, err = ApplyPreset("huge", Options{})
	assert.Error(t, err)
}

func TestFactory_Pick(t *testing.T) {
	f, err := NewFactory(nil, Options{Seed: 1, SkipBcrypt: true})
	require.NoError(t, err)

	picked := f.Pick(5, 10, 2)
	assert.Len(t, picked, 4)
	assert.NotContains(t, picked, 2)

	seen := map[int]bool{}
	for _, idx := range picked {
		assert.False(t, seen[idx])
		seen[idx] = true
	}
	assert.Nil(t, f.Pick(0, 3, -1))
}

func TestSeeder_DryRunWritesNothing(t *testing.T) {
	db := testutil.NewDB(t)
	opts := Presets["small"]
	opts.DryRun = true
	opts.SkipBcrypt = true
	opts.Seed = 42

	s, err := NewSeeder(db, opts)
	require.NoError(t, err)
	sum, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, sum.Users)
	assert.Equal(t, 20, sum.Posts)
	assert.Positive(t, sum.Likes)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users)
}

func TestSeeder_RunKeepsCountersConsistent(t *testing.T) {
	db := testutil.NewDB(t)
	opts := Presets["small"]
	opts.SkipBcrypt = true
	opts.Seed = 42

	s, err := NewSeeder(db, opts)
	require.NoError(t, err)
	ctx := context.Background()
	sum, err := s.Run(ctx)
	require.NoError(t, err)

	var users, posts, likes, comments, reviews int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	require.NoError(t, db.Model(&models.Like{}).Count(&likes).Error)
	require.NoError(t, db.Model(&models.Comment{}).Count(&comments).Error)
	require.NoError(t, db.Model(&models.Review{}).Count(&reviews).Error)
	assert.EqualValues(t, sum.Users, users)
	assert.EqualValues(t, sum.Posts, posts)
	assert.EqualValues(t, sum.Likes, likes)
	assert.EqualValues(t, sum.Comments, comments)
	assert.EqualValues(t, sum.Reviews, reviews)

	// Nothing to repair when every write went through the ledger.
	drifted, err := repository.NewEngagementRepository(db).RepairCounters(ctx, repository.KindPostLike)
	require.NoError(t, err)
	assert.Zero(t, drifted)
	drifted, err = repository.NewCommentRepository(db).RepairCommentCounts(ctx)
	require.NoError(t, err)
	assert.Zero(t, drifted)

	// Seeded users can log in with the shared password.
	var u models.User
	require.NoError(t, db.First(&u).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(DefaultPassword)))

	var rated int64
	require.NoError(t, db.Model(&models.User{}).Where("total_reviews > 0").Count(&rated).Error)
	assert.Positive(t, rated)
}

func TestSeeder_ClearAll(t *testing.T) {
	db := testutil.NewDB(t)
	opts := Presets["small"]
	opts.SkipBcrypt = true
	opts.Seed = 3

	s, err := NewSeeder(db, opts)
	require.NoError(t, err)
	ctx := context.Background()
	_, err = s.Run(ctx)
	require.NoError(t, err)

	require.NoError(t, s.ClearAll(ctx))
	for _, m := range []any{&models.User{}, &models.Post{}, &models.Like{}, &models.Comment{}, &models.Review{}, &models.Listing{}} {
		var n int64
		require.NoError(t, db.Model(m).Count(&n).Error)
		assert.Zero(t, n, "%T", m)
	}
}
