package controllers

import (
	"rewards-dashboard/dashboard"
	"rewards-dashboard/notify"
	"rewards-dashboard/utils"

	"github.com/gofiber/fiber/v3"
)

type DashboardController struct {
	Stats *dashboard.Stats
	Hub   *notify.Hub
}

func NewDashboardController(stats *dashboard.Stats, hub *notify.Hub) *DashboardController {
	return &DashboardController{Stats: stats, Hub: hub}
}

// GetStats returns the store-wide dashboard statistics
// @Summary Dashboard statistics
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.SuccessResponse{data=models.DashboardStats}
// @Router /api/dashboard/stats [get]
func (dc *DashboardController) GetStats(c fiber.Ctx) error {
	stats, err := dc.Stats.DashboardStats(c.Context())
	if stats == nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: "Dashboard statistics retrieved successfully",
		Data:    stats,
	})
}

// GetStatusCounts returns the number of requests per status
// @Summary Request status counts
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.SuccessResponse{data=models.StatusCounts}
// @Router /api/dashboard/status-counts [get]
func (dc *DashboardController) GetStatusCounts(c fiber.Ctx) error {
	counts, err := dc.Stats.StatusCounts(c.Context())
	if counts == nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: "Status counts retrieved successfully",
		Data:    counts,
	})
}

// GetCategories returns the reward categories
// @Summary Reward categories
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.SuccessResponse{data=[]models.RewardCategory}
// @Router /api/dashboard/categories [get]
func (dc *DashboardController) GetCategories(c fiber.Ctx) error {
	categories, err := dc.Stats.Categories(c.Context())
	if categories == nil && err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: "Categories retrieved successfully",
		Data:    categories,
	})
}

// GetOverview returns statistics, status counts and categories together
// @Summary Dashboard overview
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.SuccessResponse{data=dashboard.Overview}
// @Router /api/dashboard/overview [get]
func (dc *DashboardController) GetOverview(c fiber.Ctx) error {
	overview, err := dc.Stats.Overview(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: "Dashboard overview retrieved successfully",
		Data:    overview,
	})
}

// RefreshCache rebuilds the backend caches for the store
// @Summary Refresh store cache
// @Description Asks the backend to rebuild the store's caches and drops every cached read of the store
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.SuccessResponse
// @Router /api/dashboard/refresh-cache [post]
func (dc *DashboardController) RefreshCache(c fiber.Ctx) error {
	if err := dc.Stats.RefreshCache(c.Context()); err != nil {
		return respondError(c, err)
	}
	dc.Hub.Success("Cache refreshed successfully")
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: "Cache refreshed successfully",
	})
}

// Focus marks focus-sensitive reads for refetch
// @Summary Window focus
// @Description Called by the UI when the dashboard regains focus; reward request lists refetch on their next read
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.SuccessResponse
// @Router /api/dashboard/focus [post]
func (dc *DashboardController) Focus(c fiber.Ctx) error {
	n := dc.Stats.Focus()
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: "Focus registered",
		Data:    fiber.Map{"invalidated": n},
	})
}
