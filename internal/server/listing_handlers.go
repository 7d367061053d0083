package server

import (
	"strings"

	"showcase/internal/models"
	"showcase/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateListing handles POST /api/listings
// @Summary Create listing
// @Tags listings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateListingInput true "Listing"
// @Success 201 {object} models.Listing
// @Failure 400 {object} models.ErrorResponse
// @Router /listings [post]
func (s *Server) CreateListing(c *fiber.Ctx) error {
	var req service.CreateListingInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.UserID = viewerID(c)

	listing, err := s.listingService.CreateListing(c.UserContext(), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(listing)
}

// GetListings handles GET /api/listings
// @Summary Browse active listings
// @Tags listings
// @Produce json
// @Param search query string false "Matches title or description"
// @Param category query string false "Category"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} models.Page[models.Listing]
// @Failure 400 {object} models.ErrorResponse
// @Router /listings [get]
func (s *Server) GetListings(c *fiber.Ctx) error {
	in := service.ListListingsInput{
		Search:   strings.TrimSpace(c.Query("search")),
		Category: strings.TrimSpace(c.Query("category")),
		Page:     s.searchPage(c),
	}

	page, err := s.listingService.ListListings(c.UserContext(), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetListing handles GET /api/listings/:id
// @Summary Get listing
// @Tags listings
// @Produce json
// @Param id path int true "Listing ID"
// @Success 200 {object} models.Listing
// @Failure 404 {object} models.ErrorResponse
// @Router /listings/{id} [get]
func (s *Server) GetListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	listing, err := s.listingService.GetListing(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(listing)
}

// GetUserListings handles GET /api/listings/user/:userId. Owners see every
// status; everyone else sees active listings only.
// @Summary A user's listings
// @Tags listings
// @Produce json
// @Param userId path int true "User ID"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} models.Page[models.Listing]
// @Router /listings/user/{userId} [get]
func (s *Server) GetUserListings(c *fiber.Ctx) error {
	ownerID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	page, err := s.listingService.UserListings(c.UserContext(), ownerID, viewerID(c), parsePage(c, maxPaginationLimit))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// UpdateListing handles PUT /api/listings/:id
// @Summary Update listing
// @Tags listings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Listing ID"
// @Param request body service.UpdateListingInput true "Fields to change"
// @Success 200 {object} models.Listing
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /listings/{id} [put]
func (s *Server) UpdateListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.UpdateListingInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.UserID = viewerID(c)
	req.ListingID = id

	listing, err := s.listingService.UpdateListing(c.UserContext(), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(listing)
}

// DeleteListing handles DELETE /api/listings/:id
// @Summary Delete listing
// @Tags listings
// @Security BearerAuth
// @Param id path int true "Listing ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /listings/{id} [delete]
func (s *Server) DeleteListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.listingService.DeleteListing(c.UserContext(), viewerID(c), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
