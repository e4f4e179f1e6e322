package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func ctxWith(userID, role, patientID string) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, UserIDKey, userID)
	ctx = context.WithValue(ctx, UserRoleKey, role)
	ctx = context.WithValue(ctx, PatientIDKey, patientID)
	return ctx
}

func roleContext(role string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(ctxWith("u1", role, ""))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRequireRole_Allowed(t *testing.T) {
	c, _ := roleContext(RoleDoctor)
	if err := RequireRole(RoleDoctor)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequireRole_Denied(t *testing.T) {
	c, _ := roleContext(RoleRelative)
	err := RequireRole(RolePatient, RoleDoctor)(okHandler)(c)
	expectStatus(t, err, http.StatusForbidden)
	if he := err.(*echo.HTTPError); he.Message != "required role: patient or doctor" {
		t.Errorf("unexpected message: %v", he.Message)
	}
}

func TestRequireRole_AdminBypass(t *testing.T) {
	c, _ := roleContext(RoleAdmin)
	if err := RequireRole(RoleDoctor)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCanAccessPatient(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want bool
	}{
		{"patient self", ctxWith("p1", RolePatient, "p1"), true},
		{"patient other", ctxWith("p1", RolePatient, "p1"), false},
		{"relative linked", ctxWith("r1", RoleRelative, "p1"), true},
		{"relative unlinked", ctxWith("r1", RoleRelative, "p2"), false},
		{"doctor", ctxWith("d1", RoleDoctor, ""), true},
		{"admin", ctxWith("a1", RoleAdmin, ""), true},
		{"anonymous", context.Background(), false},
	}
	for i, tt := range tests {
		target := "p1"
		if i == 1 {
			target = "p2"
		}
		if got := CanAccessPatient(tt.ctx, target); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestCanActAsPatient(t *testing.T) {
	if !CanActAsPatient(ctxWith("p1", RolePatient, "p1"), "p1") {
		t.Error("expected patient to act for themself")
	}
	if CanActAsPatient(ctxWith("r1", RoleRelative, "p1"), "p1") {
		t.Error("expected relative to be refused")
	}
	if CanActAsPatient(ctxWith("d1", RoleDoctor, ""), "p1") {
		t.Error("expected doctor to be refused")
	}
}

func TestRequirePatientAccess(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctxWith("p1", RolePatient, "p1"))
	c := e.NewContext(req, httptest.NewRecorder())

	if err := RequirePatientAccess(c, "p1"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	expectStatus(t, RequirePatientAccess(c, "p2"), http.StatusForbidden)
}

func TestUserIDFromContext_Empty(t *testing.T) {
	if uid := UserIDFromContext(context.Background()); uid != "" {
		t.Errorf("expected empty user id, got %q", uid)
	}
}
