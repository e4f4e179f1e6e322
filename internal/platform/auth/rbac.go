package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RequireRole returns middleware that lets the request through when the
// session role is one of roles. Admin always passes.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if HasRole(c.Request().Context(), roles...) {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

func HasRole(ctx context.Context, roles ...string) bool {
	has := RoleFromContext(ctx)
	if has == RoleAdmin {
		return true
	}
	for _, r := range roles {
		if has == r {
			return true
		}
	}
	return false
}

// CanAccessPatient reports whether the session may read patientID's
// records. Doctors and admins see any patient; patients see themselves and
// relatives see the patient they are linked to.
func CanAccessPatient(ctx context.Context, patientID string) bool {
	switch RoleFromContext(ctx) {
	case RoleAdmin, RoleDoctor:
		return true
	case RolePatient:
		return UserIDFromContext(ctx) == patientID
	case RoleRelative:
		return PatientIDFromContext(ctx) == patientID
	}
	return false
}

// RequirePatientAccess is the handler-level form of CanAccessPatient.
func RequirePatientAccess(c echo.Context, patientID string) error {
	if !CanAccessPatient(c.Request().Context(), patientID) {
		return echo.NewHTTPError(http.StatusForbidden, "not allowed to access this patient's records")
	}
	return nil
}

// CanActAsPatient is stricter than CanAccessPatient: only the patient
// themself (or an admin) may create bookings or mutate their records.
func CanActAsPatient(ctx context.Context, patientID string) bool {
	switch RoleFromContext(ctx) {
	case RoleAdmin:
		return true
	case RolePatient:
		return UserIDFromContext(ctx) == patientID
	}
	return false
}
