package utils

import "rewards-dashboard/models"

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SuccessPaginatedResponse represents a paginated success response
type SuccessPaginatedResponse struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Data       interface{}       `json:"data,omitempty"`
	Pagination models.Pagination `json:"pagination"`
}

// ErrorResponse represents a generic error response
type ErrorResponse struct {
	Success  bool   `json:"success"`
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

// LoginResponse represents the response returned upon successful OTP verification
type LoginResponse struct {
	Success     bool          `json:"success"`
	AccessToken string        `json:"accessToken"`
	Store       *models.Store `json:"store"`
	Redirect    string        `json:"redirect"`
}
