package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// publicRoutes are matched against the registered route pattern, so
// "/api/doctors/:id" covers every doctor id.
var publicRoutes = map[string]bool{
	"/health":                  true,
	"/health/db":               true,
	"/api/health":              true,
	"/api/auth/login":          true,
	"/api/auth/signup":         true,
	"/api/doctors":             true,
	"/api/doctors/best-value":  true,
	"/api/doctors/specialties": true,
	"/api/doctors/:id":         true,
}

// AuthSkipper lets unauthenticated GETs of the directory, the health checks
// and the login/signup endpoints through.
func AuthSkipper(c echo.Context) bool {
	if !publicRoutes[c.Path()] {
		return false
	}
	m := c.Request().Method
	if c.Path() == "/api/auth/login" || c.Path() == "/api/auth/signup" {
		return m == http.MethodPost
	}
	return m == http.MethodGet || m == http.MethodHead
}

func IsPublicPath(path string) bool {
	return publicRoutes[path]
}
