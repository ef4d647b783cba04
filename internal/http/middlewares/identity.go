package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "techtrack.com/techtrack/internal/errors"
	repository "techtrack.com/techtrack/internal/repositories"
	"techtrack.com/techtrack/internal/services"
)

// ActorKey is where the resolved actor lives on the echo context.
const ActorKey = "actor"

// PermissionChecker answers whether a user holds a named permission.
// Authorization policy itself lives behind this interface; handlers only
// declare the permission string they require.
type PermissionChecker interface {
	HasPerm(ctx context.Context, userID, perm string) (bool, error)
}

// TechnicianPermissions grants every permission to any user with a
// technician row. Single-tenant internal tooling policy.
type TechnicianPermissions struct {
	technicians *repository.TechnicianRepository
}

func NewTechnicianPermissions(technicians *repository.TechnicianRepository) *TechnicianPermissions {
	return &TechnicianPermissions{technicians: technicians}
}

func (p *TechnicianPermissions) HasPerm(ctx context.Context, userID, perm string) (bool, error) {
	_, err := p.technicians.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrTechnicianNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Require authenticates the request from the identity headers and checks
// the declared permission before the handler runs. Handlers behind it can
// assume the check passed.
func Require(perm string, checker PermissionChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := c.Request().Header.Get("X-User-ID")
			if userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			ok, err := checker.HasPerm(c.Request().Context(), userID, perm)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "permission check failed")
			}
			if !ok {
				return echo.NewHTTPError(apperrors.ErrForbidden.StatusCode, apperrors.ErrForbidden.Message)
			}

			c.Set(ActorKey, services.Actor{
				UserID: userID,
				Name:   c.Request().Header.Get("X-User-Name"),
				Email:  c.Request().Header.Get("X-User-Email"),
			})

			return next(c)
		}
	}
}

// Actor returns the identity resolved by Require.
func Actor(c echo.Context) services.Actor {
	actor, _ := c.Get(ActorKey).(services.Actor)
	return actor
}
