package server

import (
	"strings"

	"showcase/internal/models"
	"showcase/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePortfolio handles POST /api/portfolios
// @Summary Create portfolio
// @Description Create the caller's portfolio and backfill its snapshot into their posts
// @Tags portfolios
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreatePortfolioInput true "Portfolio"
// @Success 201 {object} models.Portfolio
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /portfolios [post]
func (s *Server) CreatePortfolio(c *fiber.Ctx) error {
	var req service.CreatePortfolioInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.UserID = viewerID(c)

	p, err := s.portfolioService.CreatePortfolio(c.UserContext(), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

// GetMyPortfolio handles GET /api/portfolios/me
// @Summary Caller's portfolio
// @Tags portfolios
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Portfolio
// @Failure 404 {object} models.ErrorResponse
// @Router /portfolios/me [get]
func (s *Server) GetMyPortfolio(c *fiber.Ctx) error {
	p, err := s.portfolioService.GetMyPortfolio(c.UserContext(), viewerID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(p)
}

// UpdateMyPortfolio handles PUT /api/portfolios/me. Only the fields present
// in the body change; display fields are propagated to the caller's content.
// @Summary Update portfolio
// @Tags portfolios
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.UpdatePortfolioInput true "Fields to change"
// @Success 200 {object} models.Portfolio
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /portfolios/me [put]
func (s *Server) UpdateMyPortfolio(c *fiber.Ctx) error {
	var req service.UpdatePortfolioInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	p, err := s.portfolioService.UpdatePortfolio(c.UserContext(), viewerID(c), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(p)
}

// GetPortfolio handles GET /api/portfolios/:id
// @Summary Get portfolio
// @Tags portfolios
// @Produce json
// @Param id path int true "Portfolio ID"
// @Success 200 {object} models.Portfolio
// @Failure 404 {object} models.ErrorResponse
// @Router /portfolios/{id} [get]
func (s *Server) GetPortfolio(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	p, err := s.portfolioService.GetPortfolio(c.UserContext(), id, viewerID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(p)
}

// SearchPortfolios handles GET /api/portfolios
// @Summary Search portfolios
// @Description Filter by skill (fuzzy), location and profession, ranked by the caller's preferences
// @Tags portfolios
// @Produce json
// @Param skill query string false "Skill"
// @Param location query string false "Location"
// @Param profession query string false "Profession"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} models.Page[models.Portfolio]
// @Router /portfolios [get]
func (s *Server) SearchPortfolios(c *fiber.Ctx) error {
	in := service.SearchPortfoliosInput{
		Skill:      strings.TrimSpace(c.Query("skill")),
		Location:   strings.TrimSpace(c.Query("location")),
		Profession: strings.TrimSpace(c.Query("profession")),
		Page:       s.searchPage(c),
	}

	page, err := s.portfolioService.SearchPortfolios(c.UserContext(), in, viewerID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetPortfolioSuggestions handles GET /api/portfolios/suggestions
// @Summary Suggested portfolios
// @Tags portfolios
// @Produce json
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} models.Page[models.Portfolio]
// @Router /portfolios/suggestions [get]
func (s *Server) GetPortfolioSuggestions(c *fiber.Ctx) error {
	page, err := s.portfolioService.Suggestions(c.UserContext(), viewerID(c), s.searchPage(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// ToggleSavePortfolio handles POST /api/portfolios/:id/save
// @Summary Save or unsave portfolio
// @Tags portfolios
// @Produce json
// @Security BearerAuth
// @Param id path int true "Portfolio ID"
// @Success 200 {object} object{saved=bool}
// @Failure 404 {object} models.ErrorResponse
// @Router /portfolios/{id}/save [post]
func (s *Server) ToggleSavePortfolio(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	saved, err := s.portfolioService.ToggleSave(c.UserContext(), viewerID(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"saved": saved})
}

// GetSavedPortfolios handles GET /api/portfolios/saved
// @Summary Saved portfolios
// @Tags portfolios
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} models.Page[models.Portfolio]
// @Router /portfolios/saved [get]
func (s *Server) GetSavedPortfolios(c *fiber.Ctx) error {
	page, err := s.portfolioService.SavedPortfolios(c.UserContext(), viewerID(c), parsePage(c, maxPaginationLimit))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}
