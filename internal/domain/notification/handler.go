package notification

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/swasthya/setu/internal/platform/auth"
	"github.com/swasthya/setu/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/notifications/user/:userId", h.ListByUser)
	api.POST("/notifications/user/:userId/read-all", h.MarkAllRead)
	api.POST("/notifications/:id/read", h.MarkRead)
}

// feedOwner is the user whose feed the session sees. Relatives see the
// linked patient's feed.
func feedOwner(ctx context.Context) string {
	if auth.RoleFromContext(ctx) == auth.RoleRelative {
		return auth.PatientIDFromContext(ctx)
	}
	return auth.UserIDFromContext(ctx)
}

func feedParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid userId")
	}
	ctx := c.Request().Context()
	if auth.RoleFromContext(ctx) != auth.RoleAdmin && feedOwner(ctx) != id.String() {
		return uuid.Nil, echo.NewHTTPError(http.StatusForbidden, "access denied to this feed")
	}
	return id, nil
}

func (h *Handler) ListByUser(c echo.Context) error {
	userID, err := feedParam(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	unread := c.QueryParam("unread") == "true"
	items, total, err := h.svc.ListByUser(c.Request().Context(), userID, unread, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) MarkRead(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	owner, err := uuid.Parse(feedOwner(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusForbidden, "no feed bound to this session")
	}
	n, err := h.svc.MarkRead(c.Request().Context(), owner, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "notification not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) MarkAllRead(c echo.Context) error {
	userID, err := feedParam(c)
	if err != nil {
		return err
	}
	n, err := h.svc.MarkAllRead(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int64{"updated": n})
}
