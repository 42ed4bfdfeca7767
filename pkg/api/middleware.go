package api

import (
	echo "github.com/labstack/echo/v5"
)

// securityHeaders sets standard security response headers, matching the
// same conservative defaults the rest of the pack's HTTP surfaces use.
func securityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			return next(c)
		}
	}
}
