package service

import (
	"context"
	"strings"
	"time"

	"showcase/internal/blobstore"
	"showcase/internal/models"
	"showcase/internal/repository"
	"showcase/internal/validation"
)

const listingCategoryRule = "oneof=Electronics Furniture Clothing Books Vehicles Services Other"

type ListingService struct {
	listings    repository.ListingRepository
	portfolios  repository.PortfolioRepository
	users       repository.UserRepository
	blobs       blobstore.Store
	blobTimeout time.Duration
	isAdmin     AdminCheck
}

type CreateListingInput struct {
	UserID      uint     `json:"-"`
	Title       string   `json:"title" validate:"required,max=100"`
	Category    string   `json:"category" validate:"required,oneof=Electronics Furniture Clothing Books Vehicles Services Other"`
	ListingType string   `json:"listing_type" validate:"required,oneof=Sell Donate Free"`
	Price       string   `json:"price" validate:"required_if=ListingType Sell"`
	Description string   `json:"description" validate:"required,max=2000"`
	Address     string   `json:"address" validate:"required"`
	ContactInfo string   `json:"contact_info" validate:"required"`
	Condition   string   `json:"condition" validate:"required,oneof='New' 'Like New' 'Used'"`
	Images      []string `json:"images" validate:"min=1,dive,image_url"`
}

// UpdateListingInput holds the editable fields; nil means unchanged.
type UpdateListingInput struct {
	UserID      uint      `json:"-"`
	ListingID   uint      `json:"-"`
	Title       *string   `json:"title" validate:"omitempty,max=100"`
	Category    *string   `json:"category" validate:"omitempty,oneof=Electronics Furniture Clothing Books Vehicles Services Other"`
	ListingType *string   `json:"listing_type" validate:"omitempty,oneof=Sell Donate Free"`
	Price       *string   `json:"price"`
	Description *string   `json:"description" validate:"omitempty,max=2000"`
	Address     *string   `json:"address"`
	ContactInfo *string   `json:"contact_info"`
	Condition   *string   `json:"condition" validate:"omitempty,oneof='New' 'Like New' 'Used'"`
	Images      *[]string `json:"images" validate:"omitempty,dive,image_url"`
	Status      *string   `json:"status"`
}

// ListListingsInput filters the public marketplace.
type ListListingsInput struct {
	Search   string
	Category string
	Page     models.PageRequest
}

func NewListingService(
	listings repository.ListingRepository,
	portfolios repository.PortfolioRepository,
	users repository.UserRepository,
	blobs blobstore.Store,
	blobTimeout time.Duration,
	isAdmin AdminCheck,
) *ListingService {
	return &ListingService{
		listings:    listings,
		portfolios:  portfolios,
		users:       users,
		blobs:       blobs,
		blobTimeout: blobTimeout,
		isAdmin:     isAdmin,
	}
}

// priceFor forces Free for giveaway listing types.
func priceFor(listingType, price string) string {
	if listingType == models.ListingTypeDonate || listingType == models.ListingTypeFree {
		return models.PriceFree
	}
	return strings.TrimSpace(price)
}

// CreateListing stores a Pending listing with the author's profile snapshot.
func (s *ListingService) CreateListing(ctx context.Context, in CreateListingInput) (*models.Listing, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Images = models.CleanTags(in.Images)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	listing := &models.Listing{
		UserID:      in.UserID,
		Title:       in.Title,
		Category:    in.Category,
		ListingType: in.ListingType,
		Price:       priceFor(in.ListingType, in.Price),
		Description: strings.TrimSpace(in.Description),
		Address:     strings.TrimSpace(in.Address),
		ContactInfo: strings.TrimSpace(in.ContactInfo),
		Condition:   in.Condition,
		Images:      in.Images,
		UserName:    user.Name,
		Status:      models.StatusPending,
	}
	portfolio, err := s.portfolios.GetByUserID(ctx, in.UserID)
	switch {
	case err == nil:
		listing.UserImage = portfolio.ProfilePhoto
		listing.UserProfession = portfolio.Profession
	case !models.IsCode(err, models.CodeNotFound):
		return nil, err
	}

	if err := s.listings.Create(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// ListListings returns Active listings, newest first.
func (s *ListingService) ListListings(ctx context.Context, in ListListingsInput) (*models.Page[*models.Listing], error) {
	if in.Category != "" {
		if err := validation.Var("category", in.Category, listingCategoryRule); err != nil {
			return nil, err
		}
	}
	req, offset, limit := pageOf(in.Page)
	items, total, err := s.listings.List(ctx, repository.ListingFilter{
		Status:   models.StatusActive,
		Category: in.Category,
		Search:   in.Search,
	}, offset, limit)
	if err != nil {
		return nil, err
	}
	return models.NewPage(items, total, req.Page, limit), nil
}

func (s *ListingService) GetListing(ctx context.Context, id uint) (*models.Listing, error) {
	return s.listings.GetByID(ctx, id)
}

// UserListings lists ownerID's listings. Only the owner sees non-Active ones.
func (s *ListingService) UserListings(ctx context.Context, ownerID, viewerID uint, req models.PageRequest) (*models.Page[*models.Listing], error) {
	f := repository.ListingFilter{UserID: ownerID}
	if viewerID != ownerID {
		f.Status = models.StatusActive
	}
	req, offset, limit := pageOf(req)
	items, total, err := s.listings.List(ctx, f, offset, limit)
	if err != nil {
		return nil, err
	}
	return models.NewPage(items, total, req.Page, limit), nil
}

// ownerStatusMoves are the status changes an owner may make without moderation.
var ownerStatusMoves = map[string][]string{
	models.StatusActive: {models.StatusSold, models.StatusArchived},
}

func (s *ListingService) UpdateListing(ctx context.Context, in UpdateListingInput) (*models.Listing, error) {
	listing, err := s.listings.GetByID(ctx, in.ListingID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.isAdmin, in.UserID, listing.UserID, "You can only update your own listings"); err != nil {
		return nil, err
	}
	if in.Images != nil {
		cleaned := models.CleanTags(*in.Images)
		in.Images = &cleaned
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	setString := func(col string, v *string) {
		if v != nil {
			updates[col] = strings.TrimSpace(*v)
		}
	}
	setString("title", in.Title)
	setString("category", in.Category)
	setString("description", in.Description)
	setString("address", in.Address)
	setString("contact_info", in.ContactInfo)
	setString("condition", in.Condition)
	if in.Images != nil {
		if len(*in.Images) == 0 {
			return nil, models.NewValidationError("images must have at least 1 items")
		}
		updates["images"] = models.StringList(*in.Images)
	}

	listingType := listing.ListingType
	if in.ListingType != nil {
		listingType = *in.ListingType
		updates["listing_type"] = listingType
	}
	if in.Price != nil || in.ListingType != nil {
		price := listing.Price
		if in.Price != nil {
			price = *in.Price
		}
		price = priceFor(listingType, price)
		if price == "" {
			return nil, models.NewValidationError("price is required")
		}
		updates["price"] = price
	}

	if in.Status != nil && *in.Status != listing.Status {
		allowed := false
		for _, to := range ownerStatusMoves[listing.Status] {
			if to == *in.Status {
				allowed = true
			}
		}
		if !allowed {
			return nil, models.NewValidationError("status can only move from Active to Sold or Archived")
		}
		updates["status"] = *in.Status
	}

	if len(updates) > 0 {
		if err := s.listings.Update(ctx, listing.ID, updates); err != nil {
			return nil, err
		}
	}
	if in.Images != nil {
		blobstore.DestroyURLs(ctx, s.blobs, removedURLs(listing.Images, *in.Images), s.blobTimeout)
	}
	return s.listings.GetByID(ctx, listing.ID)
}

func (s *ListingService) DeleteListing(ctx context.Context, actorID, listingID uint) error {
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return err
	}
	if err := authorize(ctx, s.isAdmin, actorID, listing.UserID, "You can only delete your own listings"); err != nil {
		return err
	}
	if err := s.listings.Delete(ctx, listing.ID); err != nil {
		return err
	}
	blobstore.DestroyURLs(ctx, s.blobs, listing.Images, s.blobTimeout)
	return nil
}
