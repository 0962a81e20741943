package controllers

import (
	"rewards-dashboard/notify"
	"rewards-dashboard/utils"
	"strconv"

	"github.com/gofiber/fiber/v3"
)

type NotificationController struct {
	Hub *notify.Hub
}

func NewNotificationController(hub *notify.Hub) *NotificationController {
	return &NotificationController{Hub: hub}
}

// GetNotifications returns toasts published after a sequence number
// @Summary Poll notifications
// @Description Notifications newer than `after`. A notification re-published under the same id replaces the earlier one
// @Tags Notifications
// @Produce json
// @Param after query int false "Last sequence number seen" default(0)
// @Success 200 {object} utils.SuccessResponse{data=[]notify.Notification}
// @Router /api/notifications [get]
func (nc *NotificationController) GetNotifications(c fiber.Ctx) error {
	after, err := strconv.ParseUint(c.Query("after", "0"), 10, 64)
	if err != nil {
		return badRequest(c, "Invalid after parameter")
	}
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: "Notifications retrieved successfully",
		Data:    nc.Hub.Since(after),
	})
}
