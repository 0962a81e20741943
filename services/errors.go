package services

import (
	"errors"

	"rewards-dashboard/gateway"
)

// ErrorMessage maps an adapter error to a readable message: the server's own
// message when it sent one, otherwise a per-status message.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		if apiErr.PayloadMessage != "" {
			return apiErr.PayloadMessage
		}
		return StatusMessage(apiErr.Status)
	}
	if gateway.IsNetwork(err) {
		return gateway.NetworkMessage
	}
	return StatusMessage(0)
}

// StatusMessage is the fallback message for an HTTP status.
func StatusMessage(status int) string {
	switch status {
	case 400:
		return "Invalid reward data provided"
	case 401:
		return "You are not authorized to perform this action"
	case 403:
		return "You do not have permission to manage rewards"
	case 404:
		return "Reward not found"
	case 409:
		return "Reward with this name already exists"
	case 422:
		return "Reward data validation failed"
	default:
		return "An unexpected error occurred while managing rewards"
	}
}
