package controllers

import (
	"errors"

	"rewards-dashboard/dashboard"
	"rewards-dashboard/gateway"
	"rewards-dashboard/services"
	"rewards-dashboard/session"
	"rewards-dashboard/utils"

	"github.com/gofiber/fiber/v3"
	fiberutils "github.com/gofiber/utils/v2"
)

// errorStatus maps a domain or backend error to an HTTP status and a
// readable message.
func errorStatus(err error) (int, string) {
	var validation *dashboard.ValidationError
	var apiErr *gateway.APIError

	switch {
	case errors.As(err, &validation):
		return fiber.StatusBadRequest, validation.Message
	case errors.Is(err, dashboard.ErrNotAuthenticated):
		return fiber.StatusUnauthorized, "Please log in first"
	case errors.Is(err, dashboard.ErrNoSelection),
		errors.Is(err, dashboard.ErrInvalidPhone),
		errors.Is(err, dashboard.ErrInvalidOTP),
		errors.Is(err, dashboard.ErrNoPendingOTP),
		errors.Is(err, session.ErrInvalidLanguage):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, dashboard.ErrTerminalStatus):
		return fiber.StatusConflict, "This request has already been processed"
	case errors.Is(err, dashboard.ErrMissingStore):
		return fiber.StatusBadGateway, err.Error()
	case errors.As(err, &apiErr):
		return apiErr.Status, services.ErrorMessage(err)
	case gateway.IsNetwork(err):
		return fiber.StatusBadGateway, gateway.NetworkMessage
	}
	return fiber.StatusInternalServerError, gateway.GenericMessage
}

func respondError(c fiber.Ctx, err error) error {
	status, message := errorStatus(err)
	resp := utils.ErrorResponse{Success: false, Error: message}
	if status == fiber.StatusUnauthorized {
		resp.Redirect = "/auth"
	}
	return c.Status(status).JSON(resp)
}

func badRequest(c fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
		Success: false,
		Error:   message,
	})
}

// routeID copies the :id route parameter out of the request buffer. Ids end
// up in cache keys that outlive the handler.
func routeID(c fiber.Ctx) string {
	return fiberutils.CopyString(c.Params("id"))
}
