package controllers

import (
	"fmt"
	"rewards-dashboard/dashboard"
	"rewards-dashboard/models"
	"rewards-dashboard/notify"
	"rewards-dashboard/utils"
	"strings"

	"github.com/gofiber/fiber/v3"
	fiberutils "github.com/gofiber/utils/v2"
)

type RewardsManagementController struct {
	Rewards *dashboard.RewardsManager
	Hub     *notify.Hub
}

func NewRewardsManagementController(rewards *dashboard.RewardsManager, hub *notify.Hub) *RewardsManagementController {
	return &RewardsManagementController{Rewards: rewards, Hub: hub}
}

// Request structs
type SelectionRequest struct {
	IDs []string `json:"ids" validate:"required,min=1" example:"reward-1,reward-2"`
}

type ToggleRewardRequest struct {
	IsActive *bool `json:"isActive,omitempty" example:"true"`
}

// GetRewards lists the catalog under the current filters
// @Summary List rewards
// @Description Current page of the store's rewards, with the active filters and statistics computed over this page only
// @Tags Rewards Management
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.SuccessPaginatedResponse{data=dashboard.RewardsView}
// @Failure 401 {object} utils.ErrorResponse "Unauthorized"
// @Failure 502 {object} utils.ErrorResponse "Backend unreachable"
// @Router /api/rewards-management [get]
func (rc *RewardsManagementController) GetRewards(c fiber.Ctx) error {
	view, err := rc.Rewards.List(c.Context())
	if view == nil {
		return respondError(c, err)
	}
	// Last good page, the error is surfaced as a toast by the gateway.
	message := "Rewards retrieved successfully"
	if err != nil {
		message = "Showing cached rewards"
	}
	return c.Status(fiber.StatusOK).JSON(utils.SuccessPaginatedResponse{
		Success:    true,
		Message:    message,
		Data:       view,
		Pagination: view.Pagination,
	})
}

// GetPageStats returns statistics over the current page
// @Summary Page statistics
// @Description Active count, total redemptions and average points cost over the currently loaded page only
// @Tags Rewards Management
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.SuccessResponse{data=dashboard.PageStats}
// @Router /api/rewards-management/stats [get]
func (rc *RewardsManagementController) GetPageStats(c fiber.Ctx) error {
	view, err := rc.Rewards.List(c.Context())
	if view == nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: "Page statistics retrieved successfully",
		Data:    view.Stats,
	})
}

// UpdateFilters changes the list filters
// @Summary Update filters
// @Description Apply a partial filter change. Any change other than page returns to page 1
// @Tags Rewards Management
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dashboard.FilterPatch true "Filter changes"
// @Success 200 {object} utils.SuccessResponse{data=dashboard.Filters}
// @Failure 400 {object} utils.ErrorResponse "Invalid filter"
// @Router /api/rewards-management/filters [patch]
func (rc *RewardsManagementController) UpdateFilters(c fiber.Ctx) error {
	var patch dashboard.FilterPatch
	if err := c.Bind().Body(&patch); err != nil {
		return badRequest(c, "Invalid request body")
	}
	filters, err := rc.Rewards.Filters().Update(patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: "Filters updated",
		Data:    filters,
	})
}

// ResetFilters restores the initial filters
// @Summary Reset filters
// @Tags Rewards Management
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.SuccessResponse{data=dashboard.Filters}
// @Router /api/rewards-management/filters/reset [post]
func (rc *RewardsManagementController) ResetFilters(c fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: "Filters reset",
		Data:    rc.Rewards.Filters().Reset(),
	})
}

// ClearFilters drops every filter
// @Summary Clear filters
// @Tags Rewards Management
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.SuccessResponse{data=dashboard.Filters}
// @Router /api/rewards-management/filters/clear [post]
func (rc *RewardsManagementController) ClearFilters(c fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: "Filters cleared",
		Data:    rc.Rewards.Filters().Clear(),
	})
}

// GetReward returns one reward
// @Summary Get reward
// @Tags Rewards Management
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reward ID"
// @Success 200 {object} utils.SuccessResponse{data=models.Reward}
// @Failure 404 {object} utils.ErrorResponse "Reward not found"
// @Router /api/rewards-management/{id} [get]
func (rc *RewardsManagementController) GetReward(c fiber.Ctx) error {
	reward, err := rc.Rewards.Get(c.Context(), routeID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: "Reward retrieved successfully",
		Data:    reward,
	})
}

// CreateReward adds a reward to the catalog
// @Summary Create reward
// @Description Title, description and a positive points cost are required
// @Tags Rewards Management
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dashboard.RewardForm true "Reward details"
// @Success 201 {object} utils.SuccessResponse{data=models.Reward}
// @Failure 400 {object} utils.ErrorResponse "Please fill in all required fields"
// @Failure 409 {object} utils.ErrorResponse "Reward with this name already exists"
// @Router /api/rewards-management [post]
func (rc *RewardsManagementController) CreateReward(c fiber.Ctx) error {
	var form dashboard.RewardForm
	if err := c.Bind().Body(&form); err != nil {
		return badRequest(c, "Invalid request body")
	}
	reward, err := rc.Rewards.Create(c.Context(), form)
	if err != nil {
		return respondError(c, err)
	}
	rc.Hub.Success("Reward created successfully")
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse{
		Success: true,
		Message: "Reward created successfully",
		Data:    reward,
	})
}

// UpdateReward changes some fields of a reward
// @Summary Update reward
// @Tags Rewards Management
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reward ID"
// @Param request body models.UpdateRewardDto true "Fields to change"
// @Success 200 {object} utils.SuccessResponse{data=models.Reward}
// @Failure 400 {object} utils.ErrorResponse "Invalid reward data"
// @Failure 404 {object} utils.ErrorResponse "Reward not found"
// @Router /api/rewards-management/{id} [put]
func (rc *RewardsManagementController) UpdateReward(c fiber.Ctx) error {
	var dto models.UpdateRewardDto
	if err := c.Bind().Body(&dto); err != nil {
		return badRequest(c, "Invalid request body")
	}
	reward, err := rc.Rewards.Update(c.Context(), routeID(c), dto)
	if err != nil {
		return respondError(c, err)
	}
	rc.Hub.Success("Reward updated successfully")
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: "Reward updated successfully",
		Data:    reward,
	})
}

// DeleteReward removes a reward
// @Summary Delete reward
// @Tags Rewards Management
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reward ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse "Reward not found"
// @Router /api/rewards-management/{id} [delete]
func (rc *RewardsManagementController) DeleteReward(c fiber.Ctx) error {
	if err := rc.Rewards.Delete(c.Context(), routeID(c)); err != nil {
		return respondError(c, err)
	}
	rc.Hub.Success("Reward deleted successfully")
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: "Reward deleted successfully",
	})
}

// ToggleRewardStatus activates or deactivates a reward
// @Summary Toggle reward status
// @Description Sets isActive when given, otherwise flips the current value
// @Tags Rewards Management
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reward ID"
// @Param request body ToggleRewardRequest false "Target status"
// @Success 200 {object} utils.SuccessResponse{data=models.Reward}
// @Router /api/rewards-management/{id}/status [patch]
func (rc *RewardsManagementController) ToggleRewardStatus(c fiber.Ctx) error {
	var req ToggleRewardRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}

	var reward *models.Reward
	var err error
	if req.IsActive != nil {
		reward, err = rc.Rewards.ToggleStatus(c.Context(), routeID(c), *req.IsActive)
	} else {
		reward, err = rc.Rewards.Toggle(c.Context(), routeID(c))
	}
	if err != nil {
		return respondError(c, err)
	}

	message := "Reward deactivated successfully"
	if reward.IsActive {
		message = "Reward activated successfully"
	}
	rc.Hub.Success(message)
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: message,
		Data:    reward,
	})
}

// BulkUpdateRewards applies the same change to several rewards
// @Summary Bulk update rewards
// @Tags Rewards Management
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.BulkUpdateRewardsDto true "Reward IDs and changes"
// @Success 200 {object} utils.SuccessResponse{data=[]models.Reward}
// @Failure 400 {object} utils.ErrorResponse "Please select rewards first"
// @Router /api/rewards-management/bulk-update [put]
func (rc *RewardsManagementController) BulkUpdateRewards(c fiber.Ctx) error {
	var dto models.BulkUpdateRewardsDto
	if err := c.Bind().Body(&dto); err != nil {
		return badRequest(c, "Invalid request body")
	}
	rewards, err := rc.Rewards.BulkUpdate(c.Context(), dto.IDs, dto.Data)
	if err != nil {
		return respondError(c, err)
	}
	message := fmt.Sprintf("%d rewards updated successfully", len(dto.IDs))
	rc.Hub.Success(message)
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: message,
		Data:    rewards,
	})
}

// BulkActivateRewards activates the selected rewards
// @Summary Bulk activate rewards
// @Tags Rewards Management
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SelectionRequest true "Reward IDs"
// @Success 200 {object} utils.SuccessResponse{data=[]models.Reward}
// @Failure 400 {object} utils.ErrorResponse "Please select rewards first"
// @Router /api/rewards-management/bulk-activate [post]
func (rc *RewardsManagementController) BulkActivateRewards(c fiber.Ctx) error {
	return rc.bulkSetActive(c, true)
}

// BulkDeactivateRewards deactivates the selected rewards
// @Summary Bulk deactivate rewards
// @Tags Rewards Management
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SelectionRequest true "Reward IDs"
// @Success 200 {object} utils.SuccessResponse{data=[]models.Reward}
// @Failure 400 {object} utils.ErrorResponse "Please select rewards first"
// @Router /api/rewards-management/bulk-deactivate [post]
func (rc *RewardsManagementController) BulkDeactivateRewards(c fiber.Ctx) error {
	return rc.bulkSetActive(c, false)
}

func (rc *RewardsManagementController) bulkSetActive(c fiber.Ctx, active bool) error {
	var req SelectionRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	var rewards []models.Reward
	var err error
	verb := "deactivated"
	if active {
		verb = "activated"
		rewards, err = rc.Rewards.BulkActivate(c.Context(), req.IDs)
	} else {
		rewards, err = rc.Rewards.BulkDeactivate(c.Context(), req.IDs)
	}
	if err != nil {
		return respondError(c, err)
	}

	message := fmt.Sprintf("%d rewards %s successfully", len(req.IDs), verb)
	rc.Hub.Success(message)
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: message,
		Data:    rewards,
	})
}

// BulkDeleteRewards removes the selected rewards
// @Summary Bulk delete rewards
// @Tags Rewards Management
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SelectionRequest true "Reward IDs"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse "Please select rewards first"
// @Router /api/rewards-management/bulk-delete [delete]
func (rc *RewardsManagementController) BulkDeleteRewards(c fiber.Ctx) error {
	var req SelectionRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := rc.Rewards.BulkDelete(c.Context(), req.IDs); err != nil {
		return respondError(c, err)
	}
	message := fmt.Sprintf("%d rewards deleted successfully", len(req.IDs))
	rc.Hub.Success(message)
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: message,
	})
}

// GetRewardAnalytics returns redemption analytics for a reward
// @Summary Reward analytics
// @Tags Rewards Management
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reward ID"
// @Param timeRange query string false "Time range" Enums(7d, 30d, 90d, 1y) default(30d)
// @Success 200 {object} utils.SuccessResponse{data=models.RewardAnalytics}
// @Router /api/rewards-management/{id}/analytics [get]
func (rc *RewardsManagementController) GetRewardAnalytics(c fiber.Ctx) error {
	analytics, err := rc.Rewards.Analytics(c.Context(), routeID(c), fiberutils.CopyString(c.Query("timeRange", "30d")))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: "Reward analytics retrieved successfully",
		Data:    analytics,
	})
}

// ExportRewards downloads the catalog under the current filters
// @Summary Export rewards
// @Tags Rewards Management
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "File format" Enums(csv, xlsx, json) default(csv)
// @Success 200 {file} file
// @Failure 400 {object} utils.ErrorResponse "Unsupported format"
// @Router /api/rewards-management/export [get]
func (rc *RewardsManagementController) ExportRewards(c fiber.Ctx) error {
	format := strings.ToLower(c.Query("format", "csv"))
	data, contentType, err := rc.Rewards.Export(c.Context(), format)
	if err != nil {
		return respondError(c, err)
	}

	name := "rewards"
	if storeName, ok := c.Locals("storeName").(string); ok && storeName != "" {
		if slug := utils.GenerateSlug(storeName); slug != "" {
			name = slug + "-rewards"
		}
	}
	c.Attachment(fmt.Sprintf("%s.%s", name, format))
	if contentType != "" {
		c.Set(fiber.HeaderContentType, contentType)
	}
	return c.Status(fiber.StatusOK).Send(data)
}
