package middleware

import "github.com/labstack/echo/v4"

// UserID returns the authenticated admin id set by RequireSession.
func UserID(c echo.Context) (uint64, bool) {
	v, ok := c.Get(UserIDKey).(uint64)
	return v, ok && v != 0
}
