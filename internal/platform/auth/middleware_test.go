package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only")

func createTestToken(t *testing.T, claims Claims, key []byte) string {
	t.Helper()
	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return tokenStr
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func expectStatus(t *testing.T, err error, code int) {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T (%v)", err, err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d", code, httpErr.Code)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	err := JWTMiddleware(JWTConfig{SigningKey: testSigningKey})(okHandler)(c)
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_InvalidFormat(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "Token abc123"},
		{"missing token", "Bearer"},
		{"empty value", "Bearer "},
		{"basic auth", "Basic dXNlcjpwYXNz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", tt.header)
			c := e.NewContext(req, httptest.NewRecorder())

			err := JWTMiddleware(JWTConfig{SigningKey: testSigningKey})(okHandler)(c)
			expectStatus(t, err, http.StatusUnauthorized)
		})
	}
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	issuer := NewTokenIssuer(testSigningKey, "swasthya-setu", time.Hour)
	tokenStr, err := issuer.Issue("user-123", RoleRelative, "patient-9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	c := e.NewContext(req, httptest.NewRecorder())

	var called bool
	handler := func(c echo.Context) error {
		called = true
		ctx := c.Request().Context()
		if uid := UserIDFromContext(ctx); uid != "user-123" {
			t.Errorf("expected user_id=user-123, got %s", uid)
		}
		if role := RoleFromContext(ctx); role != RoleRelative {
			t.Errorf("expected role relative, got %s", role)
		}
		if pid := PatientIDFromContext(ctx); pid != "patient-9" {
			t.Errorf("expected patient_id=patient-9, got %s", pid)
		}
		if uid, _ := c.Get("user_id").(string); uid != "user-123" {
			t.Errorf("expected user_id on echo context, got %q", uid)
		}
		return nil
	}

	if err := JWTMiddleware(issuer.Config())(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("handler was not called")
	}
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	tokenStr := createTestToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
		Role: RolePatient,
	}, testSigningKey)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	c := e.NewContext(req, httptest.NewRecorder())

	err := JWTMiddleware(JWTConfig{SigningKey: testSigningKey})(okHandler)(c)
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_WrongKey(t *testing.T) {
	tokenStr := createTestToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, []byte("another-key"))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	c := e.NewContext(req, httptest.NewRecorder())

	err := JWTMiddleware(JWTConfig{SigningKey: testSigningKey})(okHandler)(c)
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_WrongIssuer(t *testing.T) {
	tokenStr, _ := NewTokenIssuer(testSigningKey, "someone-else", time.Hour).Issue("u", RolePatient, "u")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	c := e.NewContext(req, httptest.NewRecorder())

	err := JWTMiddleware(JWTConfig{Issuer: "swasthya-setu", SigningKey: testSigningKey})(okHandler)(c)
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_WebsocketQueryToken(t *testing.T) {
	issuer := NewTokenIssuer(testSigningKey, "", time.Hour)
	tokenStr, _ := issuer.Issue("user-1", RolePatient, "user-1")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/ws?access_token="+tokenStr, nil)
	req.Header.Set("Upgrade", "websocket")
	c := e.NewContext(req, httptest.NewRecorder())

	if err := JWTMiddleware(issuer.Config())(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestJWTMiddleware_QueryTokenIgnoredWithoutUpgrade(t *testing.T) {
	issuer := NewTokenIssuer(testSigningKey, "", time.Hour)
	tokenStr, _ := issuer.Issue("user-1", RolePatient, "user-1")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/doctors?access_token="+tokenStr, nil)
	c := e.NewContext(req, httptest.NewRecorder())

	err := JWTMiddleware(issuer.Config())(okHandler)(c)
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestDevAuthMiddleware_NoToken(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	handler := func(c echo.Context) error {
		ctx := c.Request().Context()
		if uid := UserIDFromContext(ctx); uid != "dev-user" {
			t.Errorf("expected user_id=dev-user, got %s", uid)
		}
		if role := RoleFromContext(ctx); role != RoleAdmin {
			t.Errorf("expected role admin, got %s", role)
		}
		return nil
	}

	if err := DevAuthMiddleware(JWTConfig{SigningKey: testSigningKey})(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDevAuthMiddleware_ValidatesProvidedToken(t *testing.T) {
	issuer := NewTokenIssuer(testSigningKey, "", time.Hour)
	tokenStr, _ := issuer.Issue("doc-1", RoleDoctor, "")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	c := e.NewContext(req, httptest.NewRecorder())

	handler := func(c echo.Context) error {
		if role := RoleFromContext(c.Request().Context()); role != RoleDoctor {
			t.Errorf("expected role doctor, got %s", role)
		}
		return nil
	}
	if err := DevAuthMiddleware(issuer.Config())(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDevAuthMiddleware_RejectsBadToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	c := e.NewContext(req, httptest.NewRecorder())

	err := DevAuthMiddleware(JWTConfig{SigningKey: testSigningKey})(okHandler)(c)
	expectStatus(t, err, http.StatusUnauthorized)
}

func TestTokenIssuer_Expiry(t *testing.T) {
	issuer := NewTokenIssuer(testSigningKey, "swasthya-setu", 30*time.Minute)
	fixed := time.Now().Truncate(time.Second)
	issuer.now = func() time.Time { return fixed }

	tokenStr, err := issuer.Issue("user-1", RolePatient, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	claims, err := parseToken(issuer.Config(), tokenStr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !claims.ExpiresAt.Time.Equal(fixed.Add(30 * time.Minute)) {
		t.Errorf("expected expiry %v, got %v", fixed.Add(30*time.Minute), claims.ExpiresAt.Time)
	}
	if claims.ID == "" {
		t.Error("expected a token id")
	}
}
