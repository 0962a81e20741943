package controllers

import (
	"rewards-dashboard/session"
	"rewards-dashboard/utils"

	"github.com/gofiber/fiber/v3"
)

type PreferencesController struct {
	Preferences *session.Preferences
}

func NewPreferencesController(prefs *session.Preferences) *PreferencesController {
	return &PreferencesController{Preferences: prefs}
}

type LanguageRequest struct {
	Language string `json:"language" validate:"required" example:"ar"`
}

// GetLanguage returns the UI language
// @Summary Get language
// @Tags Preferences
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=LanguageRequest}
// @Router /api/preferences/language [get]
func (pc *PreferencesController) GetLanguage(c fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: "Language retrieved successfully",
		Data:    LanguageRequest{Language: pc.Preferences.Language()},
	})
}

// SetLanguage persists the UI language
// @Summary Set language
// @Tags Preferences
// @Accept json
// @Produce json
// @Param request body LanguageRequest true "Language code"
// @Success 200 {object} utils.SuccessResponse{data=LanguageRequest}
// @Failure 400 {object} utils.ErrorResponse "Invalid language"
// @Router /api/preferences/language [put]
func (pc *PreferencesController) SetLanguage(c fiber.Ctx) error {
	var req LanguageRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := pc.Preferences.SetLanguage(c.Context(), req.Language); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: "Language updated successfully",
		Data:    LanguageRequest{Language: pc.Preferences.Language()},
	})
}
