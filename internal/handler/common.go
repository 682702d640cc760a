package handler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/edwanmarques/portfolio/internal/middleware"
)

// storeTimeout bounds every store call made while serving a request.
const storeTimeout = 5 * time.Second

func storeCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), storeTimeout)
}

// getUserID returns the admin id set by the session guard.
func getUserID(c echo.Context) (uint64, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return 0, errUnauthorized
	}
	return id, nil
}

// parseID parses a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidProjectID
	}
	return id, nil
}

type normalizer interface {
	normalize()
}

// bindAndValidate decodes the body into dst, normalizes it when dst knows
// how, and runs the registered validator.
func bindAndValidate(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return errInvalidBody
	}
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}
	return c.Validate(dst)
}
