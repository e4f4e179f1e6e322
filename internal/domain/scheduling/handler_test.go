package scheduling

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/swasthya/setu/internal/platform/auth"
)

func asUser(req *http.Request, userID, role, patientID string) *http.Request {
	ctx := context.WithValue(req.Context(), auth.UserIDKey, userID)
	ctx = context.WithValue(ctx, auth.UserRoleKey, role)
	ctx = context.WithValue(ctx, auth.PatientIDKey, patientID)
	return req.WithContext(ctx)
}

func jsonRequest(method, body string) *http.Request {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func statusOf(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}

func (f *fixture) echoContext(req *http.Request, names []string, values ...string) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	if len(names) > 0 {
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	return c, rec
}

func (f *fixture) asPatient(req *http.Request) *http.Request {
	return asUser(req, f.patient.String(), auth.RolePatient, f.patient.String())
}

func (f *fixture) asDoctor(req *http.Request) *http.Request {
	return asUser(req, f.doctorUID.String(), auth.RoleDoctor, "")
}

func TestHandler_Book_DefaultsPatientToSession(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	body := `{"doctorId":"` + f.doctor.ID.String() + `","date":"Tomorrow","time":"11:30 AM","type":"in-person"}`
	c, rec := f.echoContext(f.asPatient(jsonRequest(http.MethodPost, body)), nil)

	if err := h.Book(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var a Appointment
	json.Unmarshal(rec.Body.Bytes(), &a)
	if a.PatientID != f.patient || a.Status != StatusPending || a.DoctorName != "Dr. Vikram Singh" {
		t.Errorf("unexpected appointment %+v", a)
	}
}

func TestHandler_Book_ForAnotherPatient(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	body := `{"patientId":"` + uuid.NewString() + `","doctorId":"` + f.doctor.ID.String() + `","date":"Today","time":"9:00 AM"}`
	c, _ := f.echoContext(f.asPatient(jsonRequest(http.MethodPost, body)), nil)

	if err := h.Book(c); statusOf(err) != http.StatusForbidden {
		t.Errorf("expected 403, got %v", err)
	}
}

func TestHandler_Book_RelativeCannotBook(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	body := `{"patientId":"` + f.patient.String() + `","doctorId":"` + f.doctor.ID.String() + `","date":"Today","time":"9:00 AM"}`
	req := asUser(jsonRequest(http.MethodPost, body), uuid.NewString(), auth.RoleRelative, f.patient.String())
	c, _ := f.echoContext(req, nil)

	if err := h.Book(c); statusOf(err) != http.StatusForbidden {
		t.Errorf("expected 403, got %v", err)
	}
}

func TestHandler_Book_Validation(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	body := `{"doctorId":"` + f.doctor.ID.String() + `","time":"9:00 AM"}`
	c, _ := f.echoContext(f.asPatient(jsonRequest(http.MethodPost, body)), nil)

	if err := h.Book(c); statusOf(err) != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_ListByPatient(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	f.book(t, TypeVideo)
	f.book(t, TypeInPerson)

	c, rec := f.echoContext(f.asPatient(httptest.NewRequest(http.MethodGet, "/", nil)), []string{"userId"}, f.patient.String())
	if err := h.ListByPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("expected a bare array: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 appointments, got %d", len(got))
	}

	other := asUser(httptest.NewRequest(http.MethodGet, "/", nil), uuid.NewString(), auth.RolePatient, "")
	c, _ = f.echoContext(other, []string{"userId"}, f.patient.String())
	if err := h.ListByPatient(c); statusOf(err) != http.StatusForbidden {
		t.Errorf("expected 403 for another patient, got %v", err)
	}
}

func TestHandler_ListByPatient_WholeListUnlessWindowed(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	for i := 0; i < 25; i++ {
		f.book(t, TypeVideo)
	}

	c, rec := f.echoContext(f.asPatient(httptest.NewRequest(http.MethodGet, "/", nil)), []string{"userId"}, f.patient.String())
	if err := h.ListByPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var all []Appointment
	json.Unmarshal(rec.Body.Bytes(), &all)
	if len(all) != 25 {
		t.Errorf("expected all 25 appointments, got %d", len(all))
	}

	c, rec = f.echoContext(f.asPatient(httptest.NewRequest(http.MethodGet, "/?limit=10&offset=20", nil)), []string{"userId"}, f.patient.String())
	if err := h.ListByPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var window []Appointment
	json.Unmarshal(rec.Body.Bytes(), &window)
	if len(window) != 5 {
		t.Errorf("expected the last 5 appointments, got %d", len(window))
	}
	if got := rec.Header().Get("X-Total-Count"); got != "25" {
		t.Errorf("expected X-Total-Count 25, got %q", got)
	}
}

func TestHandler_ListByPatient_EmptyIsArray(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	c, rec := f.echoContext(f.asPatient(httptest.NewRequest(http.MethodGet, "/", nil)), []string{"userId"}, f.patient.String())
	if err := h.ListByPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("expected [], got %s", got)
	}
}

func TestHandler_Get(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	a := f.book(t, TypeVideo)

	c, rec := f.echoContext(f.asDoctor(httptest.NewRequest(http.MethodGet, "/", nil)), []string{"id"}, a.ID.String())
	if err := h.Get(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	c, _ = f.echoContext(f.asPatient(httptest.NewRequest(http.MethodGet, "/", nil)), []string{"id"}, uuid.NewString())
	if err := h.Get(c); statusOf(err) != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
	c, _ = f.echoContext(f.asPatient(httptest.NewRequest(http.MethodGet, "/", nil)), []string{"id"}, "nope")
	if err := h.Get(c); statusOf(err) != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_ListByDoctor(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	f.book(t, TypeVideo)
	f.upcoming(t, TypeVideo)

	req := f.asDoctor(httptest.NewRequest(http.MethodGet, "/?status=pending", nil))
	c, rec := f.echoContext(req, []string{"doctorId"}, f.doctor.ID.String())
	if err := h.ListByDoctor(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Total int `json:"total"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 1 {
		t.Errorf("expected 1 pending request, got %d", resp.Total)
	}

	stranger := asUser(httptest.NewRequest(http.MethodGet, "/", nil), uuid.NewString(), auth.RoleDoctor, "")
	c, _ = f.echoContext(stranger, []string{"doctorId"}, f.doctor.ID.String())
	if err := h.ListByDoctor(c); statusOf(err) != http.StatusForbidden {
		t.Errorf("expected 403, got %v", err)
	}
}

func TestHandler_AcceptDeclineFlow(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	a := f.book(t, TypeVideo)

	c, rec := f.echoContext(f.asDoctor(httptest.NewRequest(http.MethodPost, "/", nil)), []string{"id"}, a.ID.String())
	if err := h.Accept(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got Appointment
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Status != StatusUpcoming {
		t.Errorf("expected upcoming, got %s", got.Status)
	}

	c, _ = f.echoContext(f.asDoctor(httptest.NewRequest(http.MethodPost, "/", nil)), []string{"id"}, a.ID.String())
	if err := h.Decline(c); statusOf(err) != http.StatusConflict {
		t.Errorf("expected 409 declining an accepted appointment, got %v", err)
	}
}

func TestHandler_Accept_OtherDoctor(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	a := f.book(t, TypeVideo)

	req := asUser(httptest.NewRequest(http.MethodPost, "/", nil), uuid.NewString(), auth.RoleDoctor, "")
	c, _ := f.echoContext(req, []string{"id"}, a.ID.String())
	if err := h.Accept(c); statusOf(err) != http.StatusForbidden {
		t.Errorf("expected 403, got %v", err)
	}
}

func TestHandler_Accept_Unknown(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	c, _ := f.echoContext(f.asDoctor(httptest.NewRequest(http.MethodPost, "/", nil)), []string{"id"}, uuid.NewString())
	if err := h.Accept(c); statusOf(err) != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_Complete(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	a := f.upcoming(t, TypeVideo)

	body := `{"diagnosis":"Tension headache","medications":["Ibuprofen 400mg"],"followUp":"1 week"}`
	c, rec := f.echoContext(f.asDoctor(jsonRequest(http.MethodPost, body)), []string{"id"}, a.ID.String())
	if err := h.Complete(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got Appointment
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Status != StatusCompleted || len(got.Prescription) != 1 {
		t.Errorf("unexpected appointment %+v", got)
	}

	b := f.upcoming(t, TypeVideo)
	c, _ = f.echoContext(f.asDoctor(jsonRequest(http.MethodPost, `{"diagnosis":""}`)), []string{"id"}, b.ID.String())
	if err := h.Complete(c); statusOf(err) != http.StatusBadRequest {
		t.Errorf("expected 400 without diagnosis, got %v", err)
	}
}

func TestHandler_Rate(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	a := f.completed(t)

	c, rec := f.echoContext(f.asPatient(jsonRequest(http.MethodPost, `{"rating":5,"review":"Great"}`)), []string{"id"}, a.ID.String())
	if err := h.Rate(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got Appointment
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Rating == nil || *got.Rating != 5 {
		t.Errorf("expected userRating 5, got %+v", got)
	}

	c, _ = f.echoContext(f.asPatient(jsonRequest(http.MethodPost, `{"rating":9}`)), []string{"id"}, a.ID.String())
	if err := h.Rate(c); statusOf(err) != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}

	c, _ = f.echoContext(f.asDoctor(jsonRequest(http.MethodPost, `{"rating":1}`)), []string{"id"}, a.ID.String())
	if err := h.Rate(c); statusOf(err) != http.StatusForbidden {
		t.Errorf("expected 403 for the doctor, got %v", err)
	}
}
