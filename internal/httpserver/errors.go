package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sport_shop/internal/principal"
	"github.com/Skotchmaster/sport_shop/internal/service"
	"github.com/Skotchmaster/sport_shop/pkg/tokens"
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrRatingRequired),
		errors.Is(err, service.ErrInvalidRating):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidRefreshToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrDuplicateReview):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail logs err under event and turns it into the matching HTTP error.
// Internal errors are logged in full but answered with fallback only.
func fail(l *slog.Logger, event string, err error, fallback string) error {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		l.Error(event, "status", code, "reason", fallback, "error", err)
		return echo.NewHTTPError(code, fallback)
	}
	l.Warn(event, "status", code, "reason", err.Error())
	return echo.NewHTTPError(code, err.Error())
}

func pathID(c echo.Context, l *slog.Logger, event string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn(event, "status", 400, "reason", "id is not a uuid", "error", err)
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}
	return id, nil
}

// callerFrom rebuilds the principal the auth middleware put on the context.
func callerFrom(c echo.Context) (principal.Principal, error) {
	sub, _ := c.Get("user_id").(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return principal.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	role, _ := c.Get("role").(string)
	name, _ := c.Get("name").(string)
	return principal.Principal{ID: id, Name: name, IsAdmin: role == tokens.RoleAdmin}, nil
}
