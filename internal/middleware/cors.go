package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CORS header values applied to every response.
const (
	corsAllowMethods = "GET,POST,PUT,DELETE,PATCH,OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization, X-Requested-With, X-CSRF-Token"
	corsMaxAge       = "86400"
)

// CORS returns an Echo middleware implementing the CORS policy gate.
// The request's Origin header is reflected back as the allowed origin ("*"
// when absent) with credentials allowed. This intentionally admits any
// origin; the web app is served from arbitrary mirrors and federated hosts.
// OPTIONS preflights short-circuit with 200 and never reach proxy logic.
func CORS() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			origin := c.Request().Header.Get(echo.HeaderOrigin)
			if origin == "" {
				origin = "*"
			}

			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, origin)
			h.Set(echo.HeaderAccessControlAllowMethods, corsAllowMethods)
			h.Set(echo.HeaderAccessControlAllowHeaders, corsAllowHeaders)
			h.Set(echo.HeaderAccessControlAllowCredentials, "true")
			h.Set(echo.HeaderAccessControlMaxAge, corsMaxAge)

			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusOK)
			}

			return next(c)
		}
	}
}
