package handler

import (
	"github.com/labstack/echo/v4"

	apperrors "jobtrackr/internal/errors"
)

// fail renders err through the shared error mapping. Unexpected errors are
// logged and reach the client only as a generic 500.
func fail(c echo.Context, err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	if httpErr.Code == "INTERNAL_ERROR" {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// bindAndValidate decodes the request into req and runs the registered
// validator on it.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperrors.NewValidationError("", "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	return nil
}
