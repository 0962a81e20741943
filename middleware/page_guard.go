package middleware

import (
	"github.com/gofiber/fiber/v3"
)

const loadingPage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><meta http-equiv="refresh" content="1"><title>Loading</title></head>
<body><div class="loading-spinner" role="status">Loading...</div></body></html>`

func renderLoading(c fiber.Ctx) error {
	c.Set(fiber.HeaderRetryAfter, "1")
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(fiber.StatusServiceUnavailable).SendString(loadingPage)
}

// Page access rules.
const (
	PagePublic    = iota // reachable signed in or out
	PageProtected        // signed-in stores only
	PageGuestOnly        // signed-out visitors only, e.g. the login page
)

// PageGuard redirects page navigation according to the session. While the
// session is still loading it renders a loading page instead of deciding.
func PageGuard(sess SessionReader, access int) fiber.Handler {
	return func(c fiber.Ctx) error {
		state := sess.Get()
		if state.IsLoading {
			return renderLoading(c)
		}

		switch access {
		case PageProtected:
			if !state.IsAuthenticated {
				return c.Redirect().Status(fiber.StatusFound).To(authPage)
			}
		case PageGuestOnly:
			if state.IsAuthenticated {
				return c.Redirect().Status(fiber.StatusFound).To(HomePage)
			}
		}
		return c.Next()
	}
}

// HomePage is where signed-in stores land.
const HomePage = "/rewards"

// RootRedirect sends "/" to the home page or the login page.
func RootRedirect(sess SessionReader) fiber.Handler {
	return func(c fiber.Ctx) error {
		state := sess.Get()
		if state.IsLoading {
			return renderLoading(c)
		}
		if state.IsAuthenticated {
			return c.Redirect().Status(fiber.StatusFound).To(HomePage)
		}
		return c.Redirect().Status(fiber.StatusFound).To(authPage)
	}
}
