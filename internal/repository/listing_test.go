package repository

import (
	"context"
	"testing"

	"showcase/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingRepository_ListFilters(t *testing.T) {
	db, fx := setupDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	u := fx.User("u")
	desk := fx.Listing(u.ID, nil)
	fx.Listing(u.ID, func(l *models.Listing) { l.Title = "Phone"; l.Category = "Electronics" })
	fx.Listing(u.ID, func(l *models.Listing) { l.Title = "Old desk"; l.Status = models.StatusSold })
	lamp := fx.Listing(u.ID, func(l *models.Listing) { l.Title = "Lamp"; l.Description = "fits any DESK" })

	got, total, err := repo.List(ctx, ListingFilter{Status: models.StatusActive, Search: "desk"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, got, 2)
	assert.Equal(t, lamp.ID, got[0].ID)
	assert.Equal(t, desk.ID, got[1].ID)

	_, total, err = repo.List(ctx, ListingFilter{Status: models.StatusActive, Category: "Electronics"}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, total, err = repo.List(ctx, ListingFilter{Search: "_"}, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestListingRepository_SetStatusNotFound(t *testing.T) {
	db, _ := setupDB(t)
	repo := NewListingRepository(db)

	err := repo.SetStatus(context.Background(), 1, models.StatusActive, "")
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}
