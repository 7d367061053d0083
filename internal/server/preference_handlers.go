package server

import (
	"showcase/internal/models"
	"showcase/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPreferences handles GET /api/preferences. A default latest-feed
// preference is created on first read.
// @Summary Feed preferences
// @Tags preferences
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Preference
// @Router /preferences [get]
func (s *Server) GetPreferences(c *fiber.Ctx) error {
	pref, err := s.preferenceService.Get(c.UserContext(), viewerID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(pref)
}

// UpdatePreferences handles PUT /api/preferences
// @Summary Update feed preferences
// @Tags preferences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.UpdatePreferenceInput true "Fields to change"
// @Success 200 {object} models.Preference
// @Failure 400 {object} models.ErrorResponse
// @Router /preferences [put]
func (s *Server) UpdatePreferences(c *fiber.Ctx) error {
	var req service.UpdatePreferenceInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	pref, err := s.preferenceService.Update(c.UserContext(), viewerID(c), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(pref)
}
