package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// apiError is what handlers return for any non-2xx outcome. Message is
// safe to show to the client; Err carries the internal cause for the log.
type apiError struct {
	Status  int
	Message string
	Errors  map[string]string
	Err     error
}

func (e *apiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

func (e *apiError) Unwrap() error { return e.Err }

func newError(status int, msg string) *apiError {
	return &apiError{Status: status, Message: msg}
}

// internalError hides err from the client behind msg.
func internalError(msg string, err error) *apiError {
	return &apiError{Status: http.StatusInternalServerError, Message: msg, Err: err}
}

var (
	errUnauthorized       = newError(http.StatusUnauthorized, "Unauthorized")
	errInvalidCredentials = newError(http.StatusUnauthorized, "Invalid credentials")
	errInvalidInput       = newError(http.StatusBadRequest, "Invalid input")
	errInvalidBody        = newError(http.StatusBadRequest, "Invalid request body")
	errInvalidProjectID   = newError(http.StatusBadRequest, "Invalid project ID")
	errProjectNotFound    = newError(http.StatusNotFound, "Project not found")
	errSlugTaken          = newError(http.StatusConflict, "A project with this slug already exists")
	errSetupDone          = newError(http.StatusForbidden, "Setup already completed. No more admin users can be created.")
)

// HTTPErrorHandler renders every error as JSON with a message field. It
// replaces echo's default handler so framework errors (404 routes, 405,
// oversized bodies) share the same shape.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	body := echo.Map{"message": "Internal server error"}

	var ae *apiError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &ae):
		status = ae.Status
		body["message"] = ae.Message
		if len(ae.Errors) > 0 {
			body["errors"] = ae.Errors
		}
		if ae.Err != nil {
			c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, ae.Err)
		}
	case errors.As(err, &he):
		status = he.Code
		if msg, ok := he.Message.(string); ok && status < http.StatusInternalServerError {
			body["message"] = msg
		} else {
			body["message"] = http.StatusText(status)
		}
		if he.Internal != nil {
			c.Logger().Warnf("%s %s: %v", c.Request().Method, c.Request().URL.Path, he.Internal)
		}
	default:
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		c.Logger().Error(err)
	}
}
