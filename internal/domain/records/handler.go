package records

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
	api.GET("/reports", h.ListReports)
	api.POST("/reports", h.CreateReport)
	api.GET("/reports/user/:userId", h.ListReportsByPatient)
	api.GET("/reports/:id", h.GetReport)

	api.GET("/patients/:id/medications", h.ListMedications)
	api.POST("/patients/:id/medications/:medId/taken", h.MarkMedicationTaken)
	api.GET("/patients/:id/events", h.ListEvents)

	writers := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RolePatient))
	writers.POST("/patients/:id/medications", h.AddMedication)
	writers.POST("/patients/:id/events", h.AddEvent)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "record not found")
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func patientParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	if err := auth.RequirePatientAccess(c, id.String()); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// sessionPatient is the patient a patient or relative session acts for.
func sessionPatient(c echo.Context) string {
	ctx := c.Request().Context()
	if pid := auth.PatientIDFromContext(ctx); pid != "" {
		return pid
	}
	if auth.RoleFromContext(ctx) == auth.RolePatient {
		return auth.UserIDFromContext(ctx)
	}
	return ""
}

// -- Reports --

// ListReports returns every report to doctors and the session's own
// reports to patients and relatives.
func (h *Handler) ListReports(c echo.Context) error {
	pg, windowed := pagination.Optional(c)
	ctx := c.Request().Context()
	var (
		items []*Report
		total int
		err   error
	)
	if auth.HasRole(ctx, auth.RoleDoctor) {
		items, total, err = h.svc.ListReports(ctx, pg.Limit, pg.Offset)
	} else {
		pid, perr := uuid.Parse(sessionPatient(c))
		if perr != nil {
			return echo.NewHTTPError(http.StatusForbidden, "no patient bound to this session")
		}
		items, total, err = h.svc.ListReportsByPatient(ctx, pid, pg.Limit, pg.Offset)
	}
	if err != nil {
		return httpError(err)
	}
	return writeReports(c, items, total, windowed)
}

func writeReports(c echo.Context, items []*Report, total int, windowed bool) error {
	if items == nil {
		items = []*Report{}
	}
	return pagination.WriteList(c, items, total, windowed)
}

func (h *Handler) CreateReport(c echo.Context) error {
	var r Report
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if r.PatientID == uuid.Nil {
		pid, err := uuid.Parse(sessionPatient(c))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "patientId is required")
		}
		r.PatientID = pid
	}
	if err := auth.RequirePatientAccess(c, r.PatientID.String()); err != nil {
		return err
	}
	if r.DoctorName == nil || *r.DoctorName == "" {
		by := "Self Uploaded"
		if auth.RoleFromContext(c.Request().Context()) == auth.RoleRelative {
			by = "Uploaded by Relative"
		}
		r.DoctorName = &by
	}
	if err := h.svc.CreateReport(c.Request().Context(), &r); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) ListReportsByPatient(c echo.Context) error {
	pid, err := patientParam(c, "userId")
	if err != nil {
		return err
	}
	pg, windowed := pagination.Optional(c)
	items, total, err := h.svc.ListReportsByPatient(c.Request().Context(), pid, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return writeReports(c, items, total, windowed)
}

func (h *Handler) GetReport(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	r, err := h.svc.GetReport(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	if err := auth.RequirePatientAccess(c, r.PatientID.String()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

// -- Medications --

func (h *Handler) ListMedications(c echo.Context) error {
	pid, err := patientParam(c, "id")
	if err != nil {
		return err
	}
	items, err := h.svc.ListMedications(c.Request().Context(), pid)
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*Medication{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) AddMedication(c echo.Context) error {
	pid, err := patientParam(c, "id")
	if err != nil {
		return err
	}
	var m Medication
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m.PatientID = pid
	if err := h.svc.AddMedication(c.Request().Context(), &m); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, m)
}

type takenRequest struct {
	Taken *bool `json:"taken"`
}

func (h *Handler) MarkMedicationTaken(c echo.Context) error {
	pid, err := patientParam(c, "id")
	if err != nil {
		return err
	}
	medID, err := uuid.Parse(c.Param("medId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid medId")
	}
	var req takenRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	taken := true
	if req.Taken != nil {
		taken = *req.Taken
	}
	m, err := h.svc.MarkMedicationTaken(c.Request().Context(), pid, medID, taken)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, m)
}

// -- Medical events --

func (h *Handler) ListEvents(c echo.Context) error {
	pid, err := patientParam(c, "id")
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListEvents(c.Request().Context(), pid, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) AddEvent(c echo.Context) error {
	pid, err := patientParam(c, "id")
	if err != nil {
		return err
	}
	var e MedicalEvent
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e.PatientID = pid
	if err := h.svc.AddEvent(c.Request().Context(), &e); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, e)
}
