package middleware

import (
	"rewards-dashboard/config"
	"rewards-dashboard/session"
	"rewards-dashboard/utils"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// TokenCookie carries the dashboard access token for page navigation.
const TokenCookie = "dashboard_token"

const authPage = "/auth"

// SessionReader exposes the current session state.
type SessionReader interface {
	Get() session.State
}

func unauthorized(c fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(utils.ErrorResponse{
		Success:  false,
		Error:    message,
		Redirect: authPage,
	})
}

// bearerToken reads the token from the Authorization header or the cookie.
func bearerToken(c fiber.Ctx) (string, bool) {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", false
		}
		return parts[1], true
	}
	if cookie := c.Cookies(TokenCookie); cookie != "" {
		return cookie, true
	}
	return "", false
}

func AuthMiddleware(cfg *config.Config, sess SessionReader) fiber.Handler {
	return func(c fiber.Ctx) error {
		state := sess.Get()
		if state.IsLoading {
			c.Set(fiber.HeaderRetryAfter, "1")
			return c.Status(fiber.StatusServiceUnavailable).JSON(utils.ErrorResponse{
				Success: false,
				Error:   "Session is loading",
			})
		}

		token, ok := bearerToken(c)
		if !ok {
			return unauthorized(c, "Missing authorization token")
		}

		claims, err := utils.ParseClaims(token, cfg)
		if err != nil {
			return unauthorized(c, "Invalid or expired token")
		}

		// The token must belong to the store the session is signed in as.
		if !state.IsAuthenticated || state.Store == nil || state.Store.ID != claims.StoreID {
			return unauthorized(c, "Session expired, please log in again")
		}

		c.Locals("storeId", claims.StoreID)
		c.Locals("storeName", claims.StoreName)

		return c.Next()
	}
}
