package server

import (
	"showcase/internal/models"
	"showcase/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPendingPosts handles GET /api/admin/posts/pending
// @Summary Posts awaiting approval
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} models.Page[models.Post]
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/posts/pending [get]
func (s *Server) GetPendingPosts(c *fiber.Ctx) error {
	page, err := s.moderationService.PendingPosts(c.UserContext(), parsePage(c, maxPaginationLimit))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetPendingListings handles GET /api/admin/listings/pending
// @Summary Listings awaiting approval
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} models.Page[models.Listing]
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/listings/pending [get]
func (s *Server) GetPendingListings(c *fiber.Ctx) error {
	page, err := s.moderationService.PendingListings(c.UserContext(), parsePage(c, maxPaginationLimit))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// SetPostStatus handles PUT /api/admin/posts/:id/status
// @Summary Approve or reject a post
// @Description status is Active or Rejected; reason is required when rejecting
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body service.StatusDecision true "Decision"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/posts/{id}/status [put]
func (s *Server) SetPostStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.StatusDecision
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.moderationService.SetPostStatus(c.UserContext(), id, req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(post)
}

// SetListingStatus handles PUT /api/admin/listings/:id/status
// @Summary Approve or reject a listing
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Listing ID"
// @Param request body service.StatusDecision true "Decision"
// @Success 200 {object} models.Listing
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/listings/{id}/status [put]
func (s *Server) SetListingStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.StatusDecision
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	listing, err := s.moderationService.SetListingStatus(c.UserContext(), id, req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(listing)
}

// GetFeatureFlags returns configured feature flags and their evaluated state
// for the current user.
// @Summary Feature flags
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{raw=map[string]string,evaluated=map[string]bool}
// @Router /admin/feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	if s.featureFlags == nil {
		return c.JSON(fiber.Map{
			"raw":       map[string]string{},
			"evaluated": map[string]bool{},
		})
	}

	userID := viewerID(c)
	return c.JSON(fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(userID),
	})
}
