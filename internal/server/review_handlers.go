package server

import (
	"showcase/internal/models"
	"showcase/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateReview handles POST /api/reviews/:userId
// @Summary Review a user
// @Description One review per reviewer and reviewed user; the reviewed user's rating aggregate is updated
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userId path int true "Reviewed user ID"
// @Param request body service.CreateReviewInput true "Review"
// @Success 201 {object} models.Review
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /reviews/{userId} [post]
func (s *Server) CreateReview(c *fiber.Ctx) error {
	reviewedID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	var req service.CreateReviewInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.ReviewerID = viewerID(c)
	req.ReviewedUserID = reviewedID

	review, err := s.reviewService.CreateReview(c.UserContext(), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

// GetReviews handles GET /api/reviews/:userId
// @Summary Reviews of a user
// @Tags reviews
// @Produce json
// @Param userId path int true "User ID"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} service.ReviewList
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/{userId} [get]
func (s *Server) GetReviews(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	list, err := s.reviewService.ListReviews(c.UserContext(), userID, parsePage(c, maxPaginationLimit))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(list)
}

// GetReviewStats handles GET /api/reviews/:userId/stats
// @Summary Rating aggregate of a user
// @Tags reviews
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {object} models.RatingStats
// @Failure 404 {object} models.ErrorResponse
// @Router /reviews/{userId}/stats [get]
func (s *Server) GetReviewStats(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	stats, err := s.reviewService.Stats(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(stats)
}
