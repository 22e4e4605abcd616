// Package handler holds the Echo handlers for the public discovery API, the
// admin cache endpoints and the health check.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health reports that the process is serving.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
