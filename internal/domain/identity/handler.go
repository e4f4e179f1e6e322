package identity

import (
	"errors"
	"fmt"
	"net/http"

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
	api.POST("/auth/login", h.Login)
	api.POST("/auth/signup", h.Signup)
	api.GET("/auth/me", h.Me)

	api.GET("/patients/:id/profile", h.GetProfile)
	api.PUT("/patients/:id/profile", h.UpdateProfile)
	api.POST("/patients/:id/caregivers", h.InviteCaregiver)
}

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func httpError(err error) error {
	var mismatch *RoleMismatchError
	switch {
	case errors.As(err, &mismatch):
		return echo.NewHTTPError(http.StatusUnauthorized,
			fmt.Sprintf("Account registered as %s, but tried logging in as %s.", mismatch.Registered, mismatch.Requested))
	case errors.Is(err, ErrUnknownUser):
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials. User not found.")
	case errors.Is(err, ErrBadPassword):
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials.")
	case errors.Is(err, ErrUserExists):
		return echo.NewHTTPError(http.StatusBadRequest, "User already exists. Please login.")
	case errors.Is(err, ErrInvalidSignup):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotAPatient):
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func (h *Handler) Login(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sess, err := h.svc.Login(c.Request().Context(), req.Email, req.Password, req.Role)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *Handler) Signup(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sess, err := h.svc.Signup(c.Request().Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, sess)
}

func (h *Handler) Me(c echo.Context) error {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "no account bound to this session")
	}
	sess, err := h.svc.Me(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *Handler) GetProfile(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := auth.RequirePatientAccess(c, id.String()); err != nil {
		return err
	}
	p, err := h.svc.GetProfile(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

// actingPatient parses :id and checks the session may edit that patient.
// Caregivers can view but not edit.
func actingPatient(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if !auth.CanActAsPatient(c.Request().Context(), id.String()) {
		return uuid.Nil, echo.NewHTTPError(http.StatusForbidden, "only the patient may change this profile")
	}
	return id, nil
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	id, err := actingPatient(c)
	if err != nil {
		return err
	}
	var upd ProfileUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u, err := h.svc.UpdateProfile(c.Request().Context(), id, upd)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return httpError(err)
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) InviteCaregiver(c echo.Context) error {
	id, err := actingPatient(c)
	if err != nil {
		return err
	}
	var req credentials
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u, err := h.svc.InviteCaregiver(c.Request().Context(), id, req.Name, req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, u)
}
