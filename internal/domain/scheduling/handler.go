package scheduling

import (
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
	api.POST("/appointments", h.Book)
	api.GET("/appointments/:id", h.Get)
	api.GET("/appointments/user/:userId", h.ListByPatient)
	api.POST("/appointments/:id/rate", h.Rate)

	doctors := api.Group("", auth.RequireRole(auth.RoleDoctor))
	doctors.GET("/appointments/doctor/:doctorId", h.ListByDoctor)
	doctors.POST("/appointments/:id/accept", h.Accept)
	doctors.POST("/appointments/:id/decline", h.Decline)
	doctors.POST("/appointments/:id/complete", h.Complete)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	case errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func idParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

type bookRequest struct {
	PatientID  string  `json:"patientId"`
	DoctorID   string  `json:"doctorId"`
	DoctorName string  `json:"doctorName"`
	Date       string  `json:"date"`
	Time       string  `json:"time"`
	Type       string  `json:"type"`
	Notes      *string `json:"notes"`
}

// Book files a request for the signed-in patient, or for patientId when an
// admin books on someone's behalf.
func (h *Handler) Book(c echo.Context) error {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()

	if req.PatientID == "" && auth.RoleFromContext(ctx) == auth.RolePatient {
		req.PatientID = auth.UserIDFromContext(ctx)
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patientId")
	}
	if !auth.CanActAsPatient(ctx, patientID.String()) {
		return echo.NewHTTPError(http.StatusForbidden, "cannot book for this patient")
	}
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctorId")
	}

	a := &Appointment{
		PatientID:  patientID,
		DoctorID:   doctorID,
		DoctorName: req.DoctorName,
		Date:       req.Date,
		Time:       req.Time,
		Type:       req.Type,
		Notes:      req.Notes,
	}
	if err := h.svc.Book(ctx, a); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	if err := auth.RequirePatientAccess(c, a.PatientID.String()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	id, err := idParam(c, "userId")
	if err != nil {
		return err
	}
	if err := auth.RequirePatientAccess(c, id.String()); err != nil {
		return err
	}
	pg, windowed := pagination.Optional(c)
	items, total, err := h.svc.ListByPatient(c.Request().Context(), id, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*Appointment{}
	}
	return pagination.WriteList(c, items, total, windowed)
}

// ListByDoctor is a doctor's schedule; ?status=pending gives the request
// inbox. Doctors only see their own entry.
func (h *Handler) ListByDoctor(c echo.Context) error {
	doctorID, err := idParam(c, "doctorId")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if auth.RoleFromContext(ctx) != auth.RoleAdmin {
		uid, err := uuid.Parse(auth.UserIDFromContext(ctx))
		if err != nil || !h.svc.OwnsDoctor(ctx, uid, doctorID) {
			return echo.NewHTTPError(http.StatusForbidden, "not your schedule")
		}
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByDoctor(ctx, doctorID, c.QueryParam("status"), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

// assigned loads the appointment and checks the caller is its doctor.
func (h *Handler) assigned(c echo.Context) (uuid.UUID, error) {
	id, err := idParam(c, "id")
	if err != nil {
		return uuid.Nil, err
	}
	ctx := c.Request().Context()
	if auth.RoleFromContext(ctx) == auth.RoleAdmin {
		return id, nil
	}
	a, err := h.svc.Get(ctx, id)
	if err != nil {
		return uuid.Nil, httpError(err)
	}
	uid, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil || !h.svc.IsAssignedDoctor(ctx, uid, a) {
		return uuid.Nil, echo.NewHTTPError(http.StatusForbidden, "appointment belongs to another doctor")
	}
	return id, nil
}

func (h *Handler) Accept(c echo.Context) error {
	id, err := h.assigned(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Accept(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Decline(c echo.Context) error {
	id, err := h.assigned(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Decline(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Complete(c echo.Context) error {
	id, err := h.assigned(c)
	if err != nil {
		return err
	}
	var body Consultation
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.CompleteConsultation(c.Request().Context(), id, body)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

type rateRequest struct {
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

func (h *Handler) Rate(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req rateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	a, err := h.svc.Get(ctx, id)
	if err != nil {
		return httpError(err)
	}
	if !auth.CanActAsPatient(ctx, a.PatientID.String()) {
		return echo.NewHTTPError(http.StatusForbidden, "only the patient can rate this visit")
	}
	a, err = h.svc.Rate(ctx, id, req.Rating, req.Review)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}
