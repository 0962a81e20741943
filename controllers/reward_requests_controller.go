package controllers

import (
	"fmt"
	"rewards-dashboard/dashboard"
	"rewards-dashboard/models"
	"rewards-dashboard/notify"
	"rewards-dashboard/utils"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
)

type RewardRequestsController struct {
	Requests *dashboard.RequestsQueue
	Hub      *notify.Hub
}

func NewRewardRequestsController(requests *dashboard.RequestsQueue, hub *notify.Hub) *RewardRequestsController {
	return &RewardRequestsController{Requests: requests, Hub: hub}
}

// Request structs
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required" example:"FULFILLED"`
}

type BulkStatusRequest struct {
	IDs    []string `json:"ids" validate:"required,min=1"`
	Status string   `json:"status" validate:"required" example:"CANCELLED"`
}

func statusMessage(status models.RewardStatus) string {
	if status == models.RewardStatusFulfilled {
		return "Request fulfilled successfully"
	}
	return "Request cancelled successfully"
}

// searchQuery reads the search and pagination parameters from the query string
func searchQuery(c fiber.Ctx) (models.RequestSearchQuery, error) {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	q := models.RequestSearchQuery{
		Query:      strings.TrimSpace(c.Query("query", "")),
		DateFrom:   c.Query("dateFrom", ""),
		DateTo:     c.Query("dateTo", ""),
		Category:   c.Query("category", ""),
		CategoryID: c.Query("categoryId", ""),
		Page:       page,
		Limit:      limit,
		SortBy:     c.Query("sortBy", ""),
		SortOrder:  c.Query("sortOrder", ""),
	}
	if raw := c.Query("status", ""); raw != "" {
		status, err := models.ParseRewardStatus(raw)
		if err != nil {
			return q, err
		}
		q.Status = status
	}
	if raw := c.Query("isActive", ""); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return q, fmt.Errorf("invalid isActive %q", raw)
		}
		q.IsActive = &active
	}
	return q, nil
}

// GetRequests lists reward requests under the current filters
// @Summary List reward requests
// @Description Requests fetched by status and filtered by text and category. Counts are over the filtered requests
// @Tags Reward Requests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.SuccessResponse{data=dashboard.RequestsView}
// @Failure 401 {object} utils.ErrorResponse "Unauthorized"
// @Router /api/reward-requests [get]
func (rc *RewardRequestsController) GetRequests(c fiber.Ctx) error {
	view, err := rc.Requests.List(c.Context())
	if view == nil {
		return respondError(c, err)
	}
	message := "Reward requests retrieved successfully"
	if err != nil {
		message = "Showing cached reward requests"
	}
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: message,
		Data:    view,
	})
}

// UpdateFilters changes the queue filters
// @Summary Update request filters
// @Tags Reward Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dashboard.FilterPatch true "Filter changes"
// @Success 200 {object} utils.SuccessResponse{data=dashboard.Filters}
// @Failure 400 {object} utils.ErrorResponse "Invalid filter"
// @Router /api/reward-requests/filters [patch]
func (rc *RewardRequestsController) UpdateFilters(c fiber.Ctx) error {
	var patch dashboard.FilterPatch
	if err := c.Bind().Body(&patch); err != nil {
		return badRequest(c, "Invalid request body")
	}
	filters, err := rc.Requests.Filters().Update(patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: "Filters updated",
		Data:    filters,
	})
}

// ResetFilters restores the initial queue filters
// @Summary Reset request filters
// @Tags Reward Requests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.SuccessResponse{data=dashboard.Filters}
// @Router /api/reward-requests/filters/reset [post]
func (rc *RewardRequestsController) ResetFilters(c fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: "Filters reset",
		Data:    rc.Requests.Filters().Reset(),
	})
}

// ClearFilters drops every queue filter
// @Summary Clear request filters
// @Tags Reward Requests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.SuccessResponse{data=dashboard.Filters}
// @Router /api/reward-requests/filters/clear [post]
func (rc *RewardRequestsController) ClearFilters(c fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: "Filters cleared",
		Data:    rc.Requests.Filters().Clear(),
	})
}

// GetRequest returns one reward request
// @Summary Get reward request
// @Tags Reward Requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} utils.SuccessResponse{data=models.RewardRequest}
// @Failure 404 {object} utils.ErrorResponse "Not found"
// @Router /api/reward-requests/{id} [get]
func (rc *RewardRequestsController) GetRequest(c fiber.Ctx) error {
	req, err := rc.Requests.Details(c.Context(), routeID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: "Reward request retrieved successfully",
		Data:    req,
	})
}

// UpdateStatus fulfils or cancels a pending request
// @Summary Update request status
// @Description Only PENDING requests can move, and only to FULFILLED or CANCELLED
// @Tags Reward Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param request body UpdateStatusRequest true "Target status"
// @Success 200 {object} utils.SuccessResponse{data=models.RewardRequest}
// @Failure 400 {object} utils.ErrorResponse "Invalid status"
// @Failure 409 {object} utils.ErrorResponse "Already processed"
// @Router /api/reward-requests/{id}/status [put]
func (rc *RewardRequestsController) UpdateStatus(c fiber.Ctx) error {
	return rc.updateStatus(c, false)
}

// UpdateStatusOptimistic fulfils or cancels a request, showing the change before the backend confirms it
// @Summary Update request status optimistically
// @Description Cached lists show the new status at once and are rolled back if the backend rejects the change
// @Tags Reward Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param request body UpdateStatusRequest true "Target status"
// @Success 200 {object} utils.SuccessResponse{data=models.RewardRequest}
// @Failure 400 {object} utils.ErrorResponse "Invalid status"
// @Failure 409 {object} utils.ErrorResponse "Already processed"
// @Router /api/reward-requests/{id}/status/optimistic [put]
func (rc *RewardRequestsController) UpdateStatusOptimistic(c fiber.Ctx) error {
	return rc.updateStatus(c, true)
}

func (rc *RewardRequestsController) updateStatus(c fiber.Ctx, optimistic bool) error {
	var req UpdateStatusRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	status, err := models.ParseRewardStatus(req.Status)
	if err != nil {
		return badRequest(c, "Invalid status")
	}

	var updated *models.RewardRequest
	if optimistic {
		updated, err = rc.Requests.UpdateStatusOptimistic(c.Context(), routeID(c), status)
	} else {
		updated, err = rc.Requests.UpdateStatus(c.Context(), routeID(c), status)
	}
	if err != nil {
		return respondError(c, err)
	}

	rc.Hub.Success(statusMessage(status))
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: statusMessage(status),
		Data:    updated,
	})
}

// BulkUpdateStatus fulfils or cancels several requests
// @Summary Bulk update request status
// @Tags Reward Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BulkStatusRequest true "Request IDs and target status"
// @Success 200 {object} utils.SuccessResponse{data=[]models.RewardRequest}
// @Failure 400 {object} utils.ErrorResponse "Invalid status or empty selection"
// @Router /api/reward-requests/bulk-status [put]
func (rc *RewardRequestsController) BulkUpdateStatus(c fiber.Ctx) error {
	var req BulkStatusRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	status, err := models.ParseRewardStatus(req.Status)
	if err != nil {
		return badRequest(c, "Invalid status")
	}

	updated, err := rc.Requests.BulkUpdateStatus(c.Context(), req.IDs, status)
	if err != nil {
		return respondError(c, err)
	}

	message := fmt.Sprintf("%d requests updated successfully", len(req.IDs))
	rc.Hub.Success(message)
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: message,
		Data:    updated,
	})
}

// SearchRequests searches the store's requests on the backend
// @Summary Search reward requests
// @Tags Reward Requests
// @Produce json
// @Security BearerAuth
// @Param query query string false "Search text"
// @Param status query string false "Status" Enums(PENDING, FULFILLED, CANCELLED)
// @Param dateFrom query string false "From date"
// @Param dateTo query string false "To date"
// @Param categoryId query string false "Category ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} utils.SuccessPaginatedResponse{data=[]models.RewardRequest}
// @Router /api/reward-requests/search [get]
func (rc *RewardRequestsController) SearchRequests(c fiber.Ctx) error {
	q, err := searchQuery(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	page, err := rc.Requests.Search(c.Context(), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(utils.SuccessPaginatedResponse{
		Success:    true,
		Message:    "Reward requests retrieved successfully",
		Data:       page.Data,
		Pagination: page.Pagination,
	})
}

// GetPaginatedRequests returns one backend page of requests
// @Summary Paginated reward requests
// @Tags Reward Requests
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status" Enums(PENDING, FULFILLED, CANCELLED)
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Param sortBy query string false "Sort field" default(createdAt)
// @Param sortOrder query string false "Sort order" Enums(asc, desc) default(desc)
// @Success 200 {object} utils.SuccessPaginatedResponse{data=[]models.RewardRequest}
// @Router /api/reward-requests/paginated [get]
func (rc *RewardRequestsController) GetPaginatedRequests(c fiber.Ctx) error {
	q, err := searchQuery(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	page, err := rc.Requests.Paginated(c.Context(), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(utils.SuccessPaginatedResponse{
		Success:    true,
		Message:    "Reward requests retrieved successfully",
		Data:       page.Data,
		Pagination: page.Pagination,
	})
}
