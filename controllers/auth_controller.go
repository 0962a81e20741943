package controllers

import (
	"rewards-dashboard/config"
	"rewards-dashboard/dashboard"
	"rewards-dashboard/logger"
	"rewards-dashboard/middleware"
	"rewards-dashboard/models"
	"rewards-dashboard/session"
	"rewards-dashboard/utils"
	"time"

	"github.com/gofiber/fiber/v3"
)

type AuthController struct {
	Config  *config.Config
	Flow    *dashboard.AuthFlow
	Session *session.Container
}

func NewAuthController(cfg *config.Config, flow *dashboard.AuthFlow, sess *session.Container) *AuthController {
	return &AuthController{Config: cfg, Flow: flow, Session: sess}
}

// Request structs
type RequestOTPRequest struct {
	Phone string `json:"phone" validate:"required" example:"+963912345678"`
}

type VerifyOTPRequest struct {
	Otp string `json:"otp" validate:"required,len=6" example:"123456"`
}

type SessionResponse struct {
	IsAuthenticated bool                `json:"isAuthenticated"`
	IsLoading       bool                `json:"isLoading"`
	Store           *models.Store       `json:"store"`
	Flow            dashboard.FlowState `json:"flow"`
}

// RequestOTP sends a one-time password to the store phone
// @Summary Request OTP
// @Description Send a one-time password to the store phone number and move the login flow to the OTP step
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body RequestOTPRequest true "Store phone number"
// @Success 200 {object} utils.SuccessResponse{data=models.OtpRequestResponse} "OTP sent"
// @Failure 400 {object} utils.ErrorResponse "Invalid phone number"
// @Failure 502 {object} utils.ErrorResponse "Backend unreachable"
// @Router /api/auth/request-otp [post]
func (ac *AuthController) RequestOTP(c fiber.Ctx) error {
	var req RequestOTPRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := ac.Flow.RequestOTP(c.Context(), req.Phone)
	if err != nil {
		return respondError(c, err)
	}

	message := resp.Message
	if message == "" {
		message = "OTP sent successfully"
	}
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: message,
		Data:    resp,
	})
}

// VerifyOTP verifies the OTP and signs the store in
// @Summary Verify OTP
// @Description Verify the 6-digit code for the pending phone, persist the backend token and issue a dashboard access token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "One-time password"
// @Success 200 {object} utils.LoginResponse "Login successful"
// @Failure 400 {object} utils.ErrorResponse "Invalid OTP"
// @Failure 401 {object} utils.ErrorResponse "OTP rejected"
// @Failure 502 {object} utils.ErrorResponse "Missing store info"
// @Router /api/auth/verify-otp [post]
func (ac *AuthController) VerifyOTP(c fiber.Ctx) error {
	var req VerifyOTPRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := ac.Flow.VerifyOTP(c.Context(), req.Otp)
	if err != nil {
		return respondError(c, err)
	}

	accessToken, err := utils.GenerateAccessToken(utils.TokenClaims{
		StoreID:   resp.Store.ID,
		StoreName: resp.Store.Name,
	}, ac.Config)
	if err != nil {
		logger.Component("auth").WithError(err).Error("failed to generate access token")
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Success: false,
			Error:   "Failed to generate access token",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    accessToken,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   ac.Config.Env == "production",
		Expires:  time.Now().Add(time.Duration(ac.Config.AccessTokenTTL) * time.Minute),
	})

	return c.Status(fiber.StatusOK).JSON(utils.LoginResponse{
		Success:     true,
		AccessToken: accessToken,
		Store:       resp.Store,
		Redirect:    middleware.HomePage,
	})
}

// GetSession returns the authentication state and login step
// @Summary Get session
// @Description Current authentication state, loading flag and login flow step
// @Tags Authentication
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=SessionResponse}
// @Router /api/auth/session [get]
func (ac *AuthController) GetSession(c fiber.Ctx) error {
	state := ac.Session.Get()
	data := SessionResponse{
		IsAuthenticated: state.IsAuthenticated,
		IsLoading:       state.IsLoading,
		Store:           state.Store,
		Flow:            ac.Flow.State(),
	}
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: "Session retrieved successfully",
		Data:    data,
	})
}

// BackToPhone returns the login flow to the phone step
// @Summary Restart login
// @Description Discard the pending phone number and return to the phone step
// @Tags Authentication
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dashboard.FlowState}
// @Router /api/auth/back [post]
func (ac *AuthController) BackToPhone(c fiber.Ctx) error {
	ac.Flow.Reset()
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: "Login flow reset",
		Data:    ac.Flow.State(),
	})
}

// Logout signs the store out
// @Summary Logout
// @Description Clear the session, the persisted token and every cached read
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.SuccessResponse "Logged out"
// @Failure 401 {object} utils.ErrorResponse "Unauthorized"
// @Router /api/auth/logout [post]
func (ac *AuthController) Logout(c fiber.Ctx) error {
	if err := ac.Flow.Logout(c.Context()); err != nil {
		logger.Component("auth").WithError(err).Warn("logout did not clear persisted storage")
	}
	c.ClearCookie(middleware.TokenCookie)
	return c.Status(fiber.StatusOK).JSON(utils.SuccessResponse{
		Success: true,
		Message: "Logged out successfully",
		Data:    fiber.Map{"redirect": "/auth"},
	})
}
