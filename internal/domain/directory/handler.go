package directory

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/swasthya/setu/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/doctors", h.List)
	api.GET("/doctors/best-value", h.BestValue)
	api.GET("/doctors/specialties", h.Specialties)
	api.GET("/doctors/me", h.Me, auth.RequireRole(auth.RoleDoctor))
	api.GET("/doctors/:id", h.Get)
	api.PUT("/doctors/:id", h.Update, auth.RequireRole(auth.RoleDoctor))
}

// RegisterDevRoutes mounts the seeding helper. Only for development.
func (h *Handler) RegisterDevRoutes(api *echo.Group) {
	api.POST("/seed-doctors", h.SeedDefaults, auth.RequireRole(auth.RoleAdmin))
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Doctor not found")
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func filterFromQuery(c echo.Context) (Filter, error) {
	f := Filter{Specialty: c.QueryParam("specialty")}
	if v := c.QueryParam("video"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, echo.NewHTTPError(http.StatusBadRequest, "video must be true or false")
		}
		f.VideoOnly = b
	}
	return f, nil
}

func (h *Handler) List(c echo.Context) error {
	f, err := filterFromQuery(c)
	if err != nil {
		return err
	}
	doctors, err := h.svc.List(c.Request().Context(), f)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, doctors)
}

type bestValueResponse struct {
	Doctors   []*Doctor  `json:"doctors"`
	Analytics *Analytics `json:"analytics,omitempty"`
}

func (h *Handler) BestValue(c echo.Context) error {
	f, err := filterFromQuery(c)
	if err != nil {
		return err
	}
	doctors, analytics, err := h.svc.BestValue(c.Request().Context(), f)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, bestValueResponse{Doctors: doctors, Analytics: analytics})
}

func (h *Handler) Specialties(c echo.Context) error {
	out, err := h.svc.Specialties(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if out == nil {
		out = []string{}
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

// Me returns the directory entry of the signed-in doctor, which carries
// the id their schedule is listed under.
func (h *Handler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	uid, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusForbidden, "no doctor bound to this session")
	}
	d, err := h.svc.GetByUser(ctx, uid)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

// Update lets a doctor edit their own directory entry.
func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	current, err := h.svc.Get(ctx, id)
	if err != nil {
		return httpError(err)
	}
	if auth.RoleFromContext(ctx) != auth.RoleAdmin &&
		(current.UserID == nil || current.UserID.String() != auth.UserIDFromContext(ctx)) {
		return echo.NewHTTPError(http.StatusForbidden, "doctors may only edit their own profile")
	}

	var u Update
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.Update(ctx, id, u)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) SeedDefaults(c echo.Context) error {
	n, err := h.svc.Seed(c.Request().Context(), DefaultDoctors())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"message": "Seeded successfully", "count": n})
}
