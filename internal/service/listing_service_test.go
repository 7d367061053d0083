package service

import (
	"context"
	"testing"

	"showcase/internal/models"
	"showcase/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validListing(userID uint) CreateListingInput {
	return CreateListingInput{
		UserID:      userID,
		Title:       " Oak desk ",
		Category:    "Furniture",
		ListingType: models.ListingTypeSell,
		Price:       " 40 ",
		Description: "Solid oak",
		Address:     "1 Main St",
		ContactInfo: "call me",
		Condition:   "Like New",
		Images:      []string{"https://img.test/desk.jpg", " "},
	}
}

func TestCreateListing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.fx.User("seller")
	e.fx.Portfolio(u.ID, func(p *models.Portfolio) { p.ProfilePhoto = "https://img.test/s.jpg" })
	svc := e.listingService()

	l, err := svc.CreateListing(ctx, validListing(u.ID))
	require.NoError(t, err)
	assert.Equal(t, "Oak desk", l.Title)
	assert.Equal(t, "40", l.Price)
	assert.Equal(t, models.StatusPending, l.Status)
	assert.Equal(t, "seller", l.UserName)
	assert.Equal(t, "https://img.test/s.jpg", l.UserImage)
	assert.Equal(t, models.StringList{"https://img.test/desk.jpg"}, l.Images)

	for _, lt := range []string{models.ListingTypeDonate, models.ListingTypeFree} {
		in := validListing(u.ID)
		in.ListingType = lt
		in.Price = "99"
		l, err := svc.CreateListing(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, models.PriceFree, l.Price)
	}
}

func TestCreateListing_Validation(t *testing.T) {
	e := newEnv(t)
	u := e.fx.User("seller")
	svc := e.listingService()

	for name, mutate := range map[string]func(in *CreateListingInput){
		"missing price for sale": func(in *CreateListingInput) { in.Price = "" },
		"bad category":           func(in *CreateListingInput) { in.Category = "Pets" },
		"bad condition":          func(in *CreateListingInput) { in.Condition = "Broken" },
		"no images":              func(in *CreateListingInput) { in.Images = []string{" "} },
		"bad image":              func(in *CreateListingInput) { in.Images = []string{"ftp://x/y.jpg"} },
		"no address":             func(in *CreateListingInput) { in.Address = "" },
	} {
		t.Run(name, func(t *testing.T) {
			in := validListing(u.ID)
			mutate(&in)
			_, err := svc.CreateListing(context.Background(), in)
			assertCode(t, err, models.CodeValidation)
		})
	}
}

func TestListListings_ActiveOnly(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.fx.User("seller")
	chair := e.fx.Listing(u.ID, func(l *models.Listing) { l.Title = "Chair" })
	e.fx.Listing(u.ID, func(l *models.Listing) { l.Status = models.StatusPending })
	book := e.fx.Listing(u.ID, func(l *models.Listing) { l.Title = "Novel"; l.Category = "Books" })
	svc := e.listingService()

	all, err := svc.ListListings(ctx, ListListingsInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)
	assert.Equal(t, book.ID, all.Items[0].ID)
	assert.Equal(t, chair.ID, all.Items[1].ID)

	books, err := svc.ListListings(ctx, ListListingsInput{Category: "Books"})
	require.NoError(t, err)
	require.Len(t, books.Items, 1)
	assert.Equal(t, book.ID, books.Items[0].ID)

	_, err = svc.ListListings(ctx, ListListingsInput{Category: "Pets"})
	assertCode(t, err, models.CodeValidation)

	mine, err := svc.UserListings(ctx, u.ID, u.ID, models.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), mine.Total)
	theirs, err := svc.UserListings(ctx, u.ID, 0, models.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), theirs.Total)
}

func TestUpdateListing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.fx.User("owner")
	stranger := e.fx.User("stranger")
	l := e.fx.Listing(owner.ID, nil)
	svc := e.listingService()
	str := func(s string) *string { return &s }

	got, err := svc.UpdateListing(ctx, UpdateListingInput{UserID: owner.ID, ListingID: l.ID, ListingType: str(models.ListingTypeDonate)})
	require.NoError(t, err)
	assert.Equal(t, models.PriceFree, got.Price)

	_, err = svc.UpdateListing(ctx, UpdateListingInput{UserID: owner.ID, ListingID: l.ID, ListingType: str(models.ListingTypeSell), Price: str(" ")})
	assertCode(t, err, models.CodeValidation)

	_, err = svc.UpdateListing(ctx, UpdateListingInput{UserID: stranger.ID, ListingID: l.ID, Title: str("mine")})
	assertCode(t, err, models.CodeForbidden)

	_, err = svc.UpdateListing(ctx, UpdateListingInput{UserID: owner.ID, ListingID: l.ID, Status: str(models.StatusPending)})
	assertCode(t, err, models.CodeValidation)

	got, err = svc.UpdateListing(ctx, UpdateListingInput{UserID: owner.ID, ListingID: l.ID, Status: str(models.StatusSold)})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSold, got.Status)

	_, err = svc.UpdateListing(ctx, UpdateListingInput{UserID: owner.ID, ListingID: l.ID, Status: str(models.StatusActive)})
	assertCode(t, err, models.CodeValidation)
}

func TestUpdateListing_DestroysReplacedImages(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.fx.User("owner")
	l := e.fx.Listing(owner.ID, func(l *models.Listing) {
		l.Images = models.StringList{testutil.BlobBaseURL + "/a.jpg", testutil.BlobBaseURL + "/b.jpg"}
	})
	svc := e.listingService()

	images := []string{testutil.BlobBaseURL + "/b.jpg", testutil.BlobBaseURL + "/c.jpg"}
	got, err := svc.UpdateListing(ctx, UpdateListingInput{UserID: owner.ID, ListingID: l.ID, Images: &images})
	require.NoError(t, err)
	assert.Equal(t, models.StringList(images), got.Images)
	assert.Equal(t, []string{"a"}, e.blobs.Destroyed())

	title := "Renamed"
	_, err = svc.UpdateListing(ctx, UpdateListingInput{UserID: owner.ID, ListingID: l.ID, Title: &title})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, e.blobs.Destroyed())
}

func TestDeleteListing_DestroysImages(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.fx.User("owner")
	stranger := e.fx.User("stranger")
	l := e.fx.Listing(owner.ID, func(l *models.Listing) {
		l.Images = models.StringList{testutil.BlobBaseURL + "/a.jpg", testutil.BlobBaseURL + "/b.jpg"}
	})
	svc := e.listingService()

	assertCode(t, svc.DeleteListing(ctx, stranger.ID, l.ID), models.CodeForbidden)
	require.NoError(t, svc.DeleteListing(ctx, owner.ID, l.ID))
	assert.ElementsMatch(t, []string{"a", "b"}, e.blobs.Destroyed())

	_, err := svc.GetListing(ctx, l.ID)
	assertCode(t, err, models.CodeNotFound)
}
