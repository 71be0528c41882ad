package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/unievents/eventhub-api/internal/api/middleware"
	"github.com/unievents/eventhub-api/internal/core/domain"
)

// currentPrincipal returns the principal set by the access guard. Its absence
// means the route was registered without a guard, which is reported as 401.
func currentPrincipal(c echo.Context) (*domain.Principal, error) {
	p, ok := middleware.Principal(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}
	return p, nil
}

// bindAndValidate decodes the request into req and runs the struct validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
