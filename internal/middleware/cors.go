package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Fixed pre-flight grants for permissive (development) mode.
const (
	corsAllowOrigin  = "*"
	corsAllowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS, HEAD"
	corsAllowHeaders = "Authorization, Content-Type, Accept, Accept-Language, Cache-Control"
)

// PermissiveCORS returns an Echo middleware that answers OPTIONS requests
// directly with fixed Access-Control-Allow-* headers and no body, before the
// request ever reaches the forwarder. It is only installed in permissive
// mode; otherwise OPTIONS requests are forwarded like any other method.
func PermissiveCORS() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodOptions {
				return next(c)
			}

			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, corsAllowOrigin)
			h.Set(echo.HeaderAccessControlAllowMethods, corsAllowMethods)
			h.Set(echo.HeaderAccessControlAllowHeaders, corsAllowHeaders)

			return c.NoContent(http.StatusOK)
		}
	}
}
