package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health reports liveness for load balancers and uptime checks.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}
