package service

import (
	"context"
	"testing"

	"showcase/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferenceService(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.fx.User("u")
	svc := NewPreferenceService(e.prefs)

	p, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FeedTypeLatest, p.FeedType)
	assert.Empty(t, p.Skills)

	ft := " Recommended "
	skills := []string{"go", "sql"}
	p, err = svc.Update(ctx, u.ID, UpdatePreferenceInput{FeedType: &ft, Skills: &skills})
	require.NoError(t, err)
	assert.Equal(t, models.FeedTypeRecommended, p.FeedType)
	assert.Equal(t, models.StringList{"go", "sql"}, p.Skills)

	locations := []string{"Austin"}
	p, err = svc.Update(ctx, u.ID, UpdatePreferenceInput{Locations: &locations})
	require.NoError(t, err)
	assert.Equal(t, models.FeedTypeRecommended, p.FeedType)
	assert.Equal(t, models.StringList{"go", "sql"}, p.Skills)
	assert.Equal(t, models.StringList{"Austin"}, p.Locations)

	bad := "popular"
	_, err = svc.Update(ctx, u.ID, UpdatePreferenceInput{FeedType: &bad})
	assertCode(t, err, models.CodeValidation)
}
